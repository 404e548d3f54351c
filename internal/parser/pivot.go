package parser

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"billingcb/internal/model"
	"billingcb/internal/workbook"
)

// Metric 透视表指标列类型
type Metric int

const (
	MetricNone Metric = iota
	MetricAmount
	MetricNet
	MetricDays
)

// metricKeywords 按顺序匹配；"net amt" 含 "t amt"，故净额关键词在前
var metricKeywords = []struct {
	keyword string
	metric  Metric
}{
	{"n amt", MetricNet},
	{"net amt", MetricNet},
	{"net amount", MetricNet},
	{"t amt", MetricAmount},
	{"total amt", MetricAmount},
	{"total amount", MetricAmount},
	{"days", MetricDays},
	{"total", MetricAmount},
	{"net", MetricNet},
}

// PivotColumn 指标列
type PivotColumn struct {
	Index     int
	Label     string
	PeriodKey string // 指标关键词之前的部分，小写，如 "apr-22"
	Metric    Metric
}

// ClassifyColumns 识别组合列标签中的指标列；第 0 列为标签列，不参与
func ClassifyColumns(labels []string) []PivotColumn {
	var out []PivotColumn
	for i, label := range labels {
		if i == 0 {
			continue
		}
		lower := NormalizeColumnName(label)
		for _, mk := range metricKeywords {
			pos := strings.Index(lower, mk.keyword)
			if pos < 0 {
				continue
			}
			out = append(out, PivotColumn{
				Index:     i,
				Label:     label,
				PeriodKey: strings.TrimSpace(lower[:pos]),
				Metric:    mk.metric,
			})
			break
		}
	}
	return out
}

// PeriodGroup 同一月份下的指标列索引，缺失为 -1
type PeriodGroup struct {
	Key    string
	Date   time.Time
	Valid  bool // 月份键可解析
	Amount int
	Net    int
	Days   int
}

// GroupPeriods 按月份键分组（保持从左到右的首次出现顺序）
func GroupPeriods(cols []PivotColumn) []PeriodGroup {
	var groups []PeriodGroup
	index := make(map[string]int)
	for _, c := range cols {
		gi, ok := index[c.PeriodKey]
		if !ok {
			date, valid := ParsePeriodKey(c.PeriodKey)
			groups = append(groups, PeriodGroup{Key: c.PeriodKey, Date: date, Valid: valid, Amount: -1, Net: -1, Days: -1})
			gi = len(groups) - 1
			index[c.PeriodKey] = gi
		}
		g := &groups[gi]
		switch c.Metric {
		case MetricAmount:
			if g.Amount < 0 {
				g.Amount = c.Index
			}
		case MetricNet:
			if g.Net < 0 {
				g.Net = c.Index
			}
		case MetricDays:
			if g.Days < 0 {
				g.Days = c.Index
			}
		}
	}
	return groups
}

// PivotResult 透视表重建结果
type PivotResult struct {
	Records    []model.BillingRecord
	Columns    []PivotColumn
	Periods    int  // 可解析的月份数
	Degenerate bool // 未识别出层级，按行退化输出
	UsedIndent bool
}

// PivotReconstructor 透视表 → 规范账单记录
type PivotReconstructor struct {
	unknown string
}

// NewPivotReconstructor 创建重建器
func NewPivotReconstructor(unknown string) *PivotReconstructor {
	if unknown == "" {
		unknown = model.UnknownLabel
	}
	return &PivotReconstructor{unknown: unknown}
}

// Reconstruct 以 headerRow 为月份行重建记录；没有任何金额/净额列，或没有一列能解析出月份时返回 false
func (p *PivotReconstructor) Reconstruct(sheet *workbook.Sheet, headerRow int) (PivotResult, bool) {
	grid := sheet.Grid()
	labels, dataStart := p.headerLabels(grid, headerRow)

	cols := ClassifyColumns(labels)
	hasValue := false
	for _, c := range cols {
		if c.Metric == MetricAmount || c.Metric == MetricNet {
			hasValue = true
			break
		}
	}
	if !hasValue {
		return PivotResult{}, false
	}

	groups := GroupPeriods(cols)
	res := PivotResult{Columns: cols}
	for _, g := range groups {
		if g.Valid {
			res.Periods++
		}
	}
	if res.Periods == 0 {
		return PivotResult{}, false
	}

	rowLabels := make([]RowLabel, 0, len(sheet.Rows))
	for r := dataStart; r < len(sheet.Rows); r++ {
		c := sheet.Cell(r, 0)
		rowLabels = append(rowLabels, RowLabel{Text: c.Text, Indent: c.Indent})
	}
	walker := NewHierarchyWalker(rowLabels)
	res.UsedIndent = walker.UsesIndent()

	var (
		state     HierarchyState
		pending   []model.BillingRecord
		hasClient bool
	)
	flush := func() {
		if !hasClient {
			res.Records = append(res.Records, pending...)
		}
		pending = nil
		hasClient = false
	}

	for i, label := range rowLabels {
		row := dataStart + i
		var role RowRole
		state, role = walker.Step(state, label)
		switch role {
		case RoleHead:
			flush()
		case RoleConsultant:
			flush()
			pending = p.rowRecords(sheet, row, groups, state.Head, state.Consultant, state.Consultant)
		case RoleClient:
			hasClient = true
			client := strings.TrimSpace(label.Text)
			res.Records = append(res.Records, p.rowRecords(sheet, row, groups, state.Head, state.Consultant, client)...)
		}
	}
	flush()

	if len(res.Records) == 0 {
		res.Records = p.degenerate(sheet, dataStart, cols)
		res.Degenerate = true
	}
	return res, true
}

// headerLabels 指标行存在时合并两行表头，否则只用月份行
func (p *PivotReconstructor) headerLabels(grid [][]string, headerRow int) ([]string, int) {
	if headerRow+1 < len(grid) && rowHasMetric(grid[headerRow+1]) {
		return FlattenHeader(grid, headerRow), headerRow + 2
	}
	if headerRow < len(grid) {
		return append([]string(nil), grid[headerRow]...), headerRow + 1
	}
	return nil, len(grid)
}

func rowHasMetric(row []string) bool {
	for i, cell := range row {
		if i == 0 {
			continue
		}
		lower := NormalizeColumnName(cell)
		for _, mk := range metricKeywords {
			if strings.Contains(lower, mk.keyword) {
				return true
			}
		}
	}
	return false
}

// rowRecords 一行在各月份下的记录；金额与净额都为空的月份不输出
func (p *PivotReconstructor) rowRecords(sheet *workbook.Sheet, row int, groups []PeriodGroup, head, consultant, client string) []model.BillingRecord {
	var out []model.BillingRecord
	for _, g := range groups {
		if !g.Valid {
			continue
		}
		amount, hasAmount := cellDecimal(sheet, row, g.Amount)
		net, hasNet := cellDecimal(sheet, row, g.Net)
		if !hasAmount && !hasNet {
			continue
		}
		days, _ := cellDecimal(sheet, row, g.Days)
		out = append(out, model.BillingRecord{
			BusinessHead: head,
			Consultant:   consultant,
			Client:       client,
			Date:         g.Date,
			TotalAmount:  amount,
			NetAmount:    net,
			BilledDays:   days,
		})
	}
	return out
}

// degenerate 无法识别层级时每个非空数据行输出一条，层级为占位值，日期留空由清洗补齐
func (p *PivotReconstructor) degenerate(sheet *workbook.Sheet, dataStart int, cols []PivotColumn) []model.BillingRecord {
	amountCol, netCol := -1, -1
	for _, c := range cols {
		if c.Metric == MetricAmount && amountCol < 0 {
			amountCol = c.Index
		}
		if c.Metric == MetricNet && netCol < 0 {
			netCol = c.Index
		}
	}

	var out []model.BillingRecord
	for r := dataStart; r < len(sheet.Rows); r++ {
		if rowBlank(sheet.Rows[r]) {
			continue
		}
		amount, _ := cellDecimal(sheet, r, amountCol)
		net, _ := cellDecimal(sheet, r, netCol)
		out = append(out, model.BillingRecord{
			BusinessHead: p.unknown,
			Consultant:   p.unknown,
			Client:       p.unknown,
			TotalAmount:  amount,
			NetAmount:    net,
		})
	}
	return out
}

// cellDecimal 读取数值单元格；优先原始值。第二个返回值表示单元格非空
func cellDecimal(sheet *workbook.Sheet, row, col int) (decimal.Decimal, bool) {
	if col < 0 {
		return decimal.Zero, false
	}
	c := sheet.Cell(row, col)
	if strings.TrimSpace(c.Text) == "" && strings.TrimSpace(c.Raw) == "" {
		return decimal.Zero, false
	}
	if d, ok := ParseDecimal(c.Raw); ok {
		return d, true
	}
	return DecimalOrZero(c.Text), true
}

func rowBlank(row []workbook.Cell) bool {
	for _, c := range row {
		if strings.TrimSpace(c.Text) != "" {
			return false
		}
	}
	return true
}
