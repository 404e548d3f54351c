package model

import "github.com/shopspring/decimal"

// ContractRecord 合同（PO）记录，每个 PO 一行
type ContractRecord struct {
	Client       string          `json:"client"`
	WorkType     string          `json:"workType"`
	PONumber     string          `json:"poNumber"`
	BusinessHead string          `json:"businessHead"`
	TotalValue   decimal.Decimal `json:"totalValue"`
	Balance      decimal.Decimal `json:"balance"` // 剩余未开票金额
}

var hundred = decimal.NewFromInt(100)

// UtilizationPct PO 使用率 (总额-余额)/总额*100；总额为 0 时无定义
func (c ContractRecord) UtilizationPct() (float64, bool) {
	if c.TotalValue.IsZero() {
		return 0, false
	}
	used := c.TotalValue.Sub(c.Balance)
	return used.Div(c.TotalValue).Mul(hundred).InexactFloat64(), true
}

// Utilization 带使用率的合同视图（JSON 输出用，未定义时为 null）
type Utilization struct {
	ContractRecord
	UtilizationPct *float64 `json:"utilizationPct"`
}

// WithUtilization 附加使用率
func (c ContractRecord) WithUtilization() Utilization {
	u := Utilization{ContractRecord: c}
	if pct, ok := c.UtilizationPct(); ok {
		u.UtilizationPct = &pct
	}
	return u
}
