package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"billingcb/internal/model"
)

// FilterContracts 按客户、业务负责人筛选合同（大小写不敏感，空值不过滤）
func FilterContracts(contracts []model.ContractRecord, client, businessHead string) []model.ContractRecord {
	client = strings.TrimSpace(client)
	businessHead = strings.TrimSpace(businessHead)
	out := make([]model.ContractRecord, 0, len(contracts))
	for _, c := range contracts {
		if client != "" && !strings.EqualFold(c.Client, client) {
			continue
		}
		if businessHead != "" && !strings.EqualFold(c.BusinessHead, businessHead) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ContractSummaryRow 按业务负责人汇总的 PO 使用情况
type ContractSummaryRow struct {
	BusinessHead   string          `json:"businessHead"`
	POCount        int             `json:"poCount"`
	TotalValue     decimal.Decimal `json:"totalValue"`
	Balance        decimal.Decimal `json:"balance"`
	UtilizationPct *float64        `json:"utilizationPct"`
}

// ContractSummary 按业务负责人汇总合同；使用率按汇总后的总额与余额计算
func ContractSummary(contracts []model.ContractRecord) []ContractSummaryRow {
	index := make(map[string]int)
	var out []ContractSummaryRow
	for _, c := range contracts {
		head := c.BusinessHead
		if head == "" {
			head = model.UnknownLabel
		}
		i, ok := index[head]
		if !ok {
			out = append(out, ContractSummaryRow{BusinessHead: head})
			i = len(out) - 1
			index[head] = i
		}
		out[i].POCount++
		out[i].TotalValue = out[i].TotalValue.Add(c.TotalValue)
		out[i].Balance = out[i].Balance.Add(c.Balance)
	}
	for i := range out {
		agg := model.ContractRecord{TotalValue: out[i].TotalValue, Balance: out[i].Balance}
		out[i].UtilizationPct = agg.WithUtilization().UtilizationPct
	}
	sort.Slice(out, func(a, b int) bool { return out[a].BusinessHead < out[b].BusinessHead })
	return out
}
