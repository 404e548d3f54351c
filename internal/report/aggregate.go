package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"billingcb/internal/fiscal"
	"billingcb/internal/model"
)

var hundred = decimal.NewFromInt(100)

// MonthTotal 月度合计
type MonthTotal struct {
	YearMonth   string          `json:"yearMonth"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	NetAmount   decimal.Decimal `json:"netAmount"`
}

// ByMonth 按年月汇总，时间升序
func ByMonth(records []model.BillingRecord) []MonthTotal {
	index := make(map[string]int)
	var out []MonthTotal
	for _, r := range records {
		i, ok := index[r.YearMonth]
		if !ok {
			out = append(out, MonthTotal{YearMonth: r.YearMonth})
			i = len(out) - 1
			index[r.YearMonth] = i
		}
		out[i].TotalAmount = out[i].TotalAmount.Add(r.TotalAmount)
		out[i].NetAmount = out[i].NetAmount.Add(r.NetAmount)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].YearMonth < out[b].YearMonth })
	return out
}

// HierarchyTotal 负责人/顾问/客户 三级合计
type HierarchyTotal struct {
	BusinessHead string          `json:"businessHead"`
	Consultant   string          `json:"consultant"`
	Client       string          `json:"client"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	NetAmount    decimal.Decimal `json:"netAmount"`
}

// ByHierarchy 按 (负责人, 顾问, 客户) 汇总
func ByHierarchy(records []model.BillingRecord) []HierarchyTotal {
	type key struct{ head, consultant, client string }
	index := make(map[key]int)
	var out []HierarchyTotal
	for _, r := range records {
		k := key{r.BusinessHead, r.Consultant, r.Client}
		i, ok := index[k]
		if !ok {
			out = append(out, HierarchyTotal{BusinessHead: k.head, Consultant: k.consultant, Client: k.client})
			i = len(out) - 1
			index[k] = i
		}
		out[i].TotalAmount = out[i].TotalAmount.Add(r.TotalAmount)
		out[i].NetAmount = out[i].NetAmount.Add(r.NetAmount)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].BusinessHead != out[b].BusinessHead {
			return out[a].BusinessHead < out[b].BusinessHead
		}
		if out[a].Consultant != out[b].Consultant {
			return out[a].Consultant < out[b].Consultant
		}
		return out[a].Client < out[b].Client
	})
	return out
}

// FiscalYearTotal 财年合计；DiffPercent = (T-N)/T*100，T 为 0 时为 nil
type FiscalYearTotal struct {
	FiscalYear  string          `json:"fiscalYear"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	NetAmount   decimal.Decimal `json:"netAmount"`
	DiffPercent *float64        `json:"diffPercent"`
}

// ByFiscalYear 按财年汇总，时间升序
func ByFiscalYear(records []model.BillingRecord) []FiscalYearTotal {
	index := make(map[string]int)
	var out []FiscalYearTotal
	for _, r := range records {
		i, ok := index[r.FiscalYear]
		if !ok {
			out = append(out, FiscalYearTotal{FiscalYear: r.FiscalYear})
			i = len(out) - 1
			index[r.FiscalYear] = i
		}
		out[i].TotalAmount = out[i].TotalAmount.Add(r.TotalAmount)
		out[i].NetAmount = out[i].NetAmount.Add(r.NetAmount)
	}
	for i := range out {
		if !out[i].TotalAmount.IsZero() {
			pct := out[i].TotalAmount.Sub(out[i].NetAmount).Div(out[i].TotalAmount).Mul(hundred).InexactFloat64()
			out[i].DiffPercent = &pct
		}
	}
	sort.Slice(out, func(a, b int) bool { return fiscalLess(out[a].FiscalYear, out[b].FiscalYear) })
	return out
}

func fiscalLess(a, b string) bool {
	ta, errA := fiscal.StartOf(a)
	tb, errB := fiscal.StartOf(b)
	if errA != nil || errB != nil {
		return a < b
	}
	return ta.Before(tb)
}

// QuarterTotal 财年季度合计
type QuarterTotal struct {
	FiscalYear    string              `json:"fiscalYear"`
	FiscalQuarter model.FiscalQuarter `json:"fiscalQuarter"`
	Label         string              `json:"label"`
	TotalAmount   decimal.Decimal     `json:"totalAmount"`
	NetAmount     decimal.Decimal     `json:"netAmount"`
}

// ByQuarter 按 (财年, 季度) 汇总，季度按 Q1..Q4 排序
func ByQuarter(records []model.BillingRecord) []QuarterTotal {
	type key struct {
		fy string
		q  model.FiscalQuarter
	}
	index := make(map[key]int)
	var out []QuarterTotal
	for _, r := range records {
		k := key{r.FiscalYear, r.FiscalQuarter}
		i, ok := index[k]
		if !ok {
			out = append(out, QuarterTotal{FiscalYear: k.fy, FiscalQuarter: k.q, Label: fiscal.QuarterLabel(r.Date)})
			i = len(out) - 1
			index[k] = i
		}
		out[i].TotalAmount = out[i].TotalAmount.Add(r.TotalAmount)
		out[i].NetAmount = out[i].NetAmount.Add(r.NetAmount)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].FiscalYear != out[b].FiscalYear {
			return fiscalLess(out[a].FiscalYear, out[b].FiscalYear)
		}
		return out[a].FiscalQuarter.Index() < out[b].FiscalQuarter.Index()
	})
	return out
}

// ConsultantTotal 顾问合计
type ConsultantTotal struct {
	Consultant     string          `json:"consultant"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	NetAmount      decimal.Decimal `json:"netAmount"`
	BilledDays     decimal.Decimal `json:"billedDays"`
	Clients        int             `json:"clients"`
	Entries        int             `json:"entries"`
	AverageBilling decimal.Decimal `json:"averageBilling"` // TotalAmount / Entries
}

// ByConsultant 按顾问汇总，按总额降序（同额按姓名）
func ByConsultant(records []model.BillingRecord) []ConsultantTotal {
	index := make(map[string]int)
	clients := make(map[string]map[string]struct{})
	var out []ConsultantTotal
	for _, r := range records {
		i, ok := index[r.Consultant]
		if !ok {
			out = append(out, ConsultantTotal{Consultant: r.Consultant})
			i = len(out) - 1
			index[r.Consultant] = i
			clients[r.Consultant] = make(map[string]struct{})
		}
		out[i].TotalAmount = out[i].TotalAmount.Add(r.TotalAmount)
		out[i].NetAmount = out[i].NetAmount.Add(r.NetAmount)
		out[i].BilledDays = out[i].BilledDays.Add(r.BilledDays)
		out[i].Entries++
		clients[r.Consultant][r.Client] = struct{}{}
	}
	for i := range out {
		out[i].Clients = len(clients[out[i].Consultant])
		out[i].AverageBilling = out[i].TotalAmount.Div(decimal.NewFromInt(int64(out[i].Entries))).Round(2)
	}
	sort.Slice(out, func(a, b int) bool {
		if c := out[a].TotalAmount.Cmp(out[b].TotalAmount); c != 0 {
			return c > 0
		}
		return out[a].Consultant < out[b].Consultant
	})
	return out
}

// TopConsultants 总额前 n 名；n<=0 返回全部
func TopConsultants(records []model.BillingRecord, n int) []ConsultantTotal {
	all := ByConsultant(records)
	if n > 0 && len(all) > n {
		return all[:n]
	}
	return all
}

// BusinessHeadTotal 业务负责人合计
type BusinessHeadTotal struct {
	BusinessHead string          `json:"businessHead"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	NetAmount    decimal.Decimal `json:"netAmount"`
	Consultants  int             `json:"consultants"`
	Clients      int             `json:"clients"`
}

// ByBusinessHead 按业务负责人汇总，按名称排序
func ByBusinessHead(records []model.BillingRecord) []BusinessHeadTotal {
	index := make(map[string]int)
	consultants := make(map[string]map[string]struct{})
	clients := make(map[string]map[string]struct{})
	var out []BusinessHeadTotal
	for _, r := range records {
		i, ok := index[r.BusinessHead]
		if !ok {
			out = append(out, BusinessHeadTotal{BusinessHead: r.BusinessHead})
			i = len(out) - 1
			index[r.BusinessHead] = i
			consultants[r.BusinessHead] = make(map[string]struct{})
			clients[r.BusinessHead] = make(map[string]struct{})
		}
		out[i].TotalAmount = out[i].TotalAmount.Add(r.TotalAmount)
		out[i].NetAmount = out[i].NetAmount.Add(r.NetAmount)
		consultants[r.BusinessHead][r.Consultant] = struct{}{}
		clients[r.BusinessHead][r.Client] = struct{}{}
	}
	for i := range out {
		out[i].Consultants = len(consultants[out[i].BusinessHead])
		out[i].Clients = len(clients[out[i].BusinessHead])
	}
	sort.Slice(out, func(a, b int) bool { return out[a].BusinessHead < out[b].BusinessHead })
	return out
}
