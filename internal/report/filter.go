// Package report 对规范化后的账单/合同表做只读筛选与汇总
package report

import (
	"sort"
	"strings"
	"time"

	"billingcb/internal/fiscal"
	"billingcb/internal/model"
)

// Filter 按条件筛选；各维度 AND，空维度不过滤。不修改输入
func Filter(records []model.BillingRecord, c model.FilterCriteria) []model.BillingRecord {
	if c.IsEmpty() {
		out := make([]model.BillingRecord, len(records))
		copy(out, records)
		return out
	}
	heads := toSet(c.BusinessHeads)
	consultants := toSet(c.Consultants)
	clients := toSet(c.Clients)

	out := make([]model.BillingRecord, 0, len(records))
	for _, r := range records {
		if heads != nil && !heads[r.BusinessHead] {
			continue
		}
		if consultants != nil && !consultants[r.Consultant] {
			continue
		}
		if clients != nil && !clients[r.Client] {
			continue
		}
		if c.FiscalYear != "" && r.FiscalYear != c.FiscalYear {
			continue
		}
		out = append(out, r)
	}
	return out
}

func toSet(values []string) map[string]bool {
	var set map[string]bool
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if set == nil {
			set = make(map[string]bool)
		}
		set[v] = true
	}
	return set
}

// Lists 筛选器可选值
type Lists struct {
	BusinessHeads []string `json:"businessHeads"`
	Consultants   []string `json:"consultants"`
	Clients       []string `json:"clients"`
	FiscalPeriods []string `json:"fiscalPeriods"`
}

// Distinct 去重排序后的层级取值与财年列表
func Distinct(records []model.BillingRecord) Lists {
	heads := make(map[string]struct{})
	consultants := make(map[string]struct{})
	clients := make(map[string]struct{})
	dates := make([]time.Time, 0, len(records))
	for _, r := range records {
		heads[r.BusinessHead] = struct{}{}
		consultants[r.Consultant] = struct{}{}
		clients[r.Client] = struct{}{}
		dates = append(dates, r.Date)
	}
	return Lists{
		BusinessHeads: sortedKeys(heads),
		Consultants:   sortedKeys(consultants),
		Clients:       sortedKeys(clients),
		FiscalPeriods: fiscal.Periods(dates),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
