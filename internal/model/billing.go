package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnknownLabel 层级无法解析时的占位值
const UnknownLabel = "Unknown"

// FiscalQuarter 财年季度（4 月起算）
type FiscalQuarter string

const (
	Q1 FiscalQuarter = "Q1" // 4-6 月
	Q2 FiscalQuarter = "Q2" // 7-9 月
	Q3 FiscalQuarter = "Q3" // 10-12 月
	Q4 FiscalQuarter = "Q4" // 1-3 月
)

// Index 季度序号 0-3，用于排序
func (q FiscalQuarter) Index() int {
	switch q {
	case Q1:
		return 0
	case Q2:
		return 1
	case Q3:
		return 2
	case Q4:
		return 3
	}
	return 4
}

// BillingRecord 顾问开票记录，每个 (业务负责人, 顾问, 客户, 月份) 一行
type BillingRecord struct {
	BusinessHead string          `json:"businessHead"`
	Consultant   string          `json:"consultant"`
	Client       string          `json:"client"`
	Date         time.Time       `json:"date"` // 开票月份（透视表来源为当月 1 日）
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	NetAmount    decimal.Decimal `json:"netAmount"`
	BilledDays   decimal.Decimal `json:"billedDays"`

	// 由财年日历派生
	FiscalYear    string        `json:"fiscalYear"`
	FiscalQuarter FiscalQuarter `json:"fiscalQuarter"`
	YearMonth     string        `json:"yearMonth"`
}

// Equal 字段逐一比较（金额按数值比较）
func (r BillingRecord) Equal(o BillingRecord) bool {
	return r.BusinessHead == o.BusinessHead &&
		r.Consultant == o.Consultant &&
		r.Client == o.Client &&
		r.Date.Equal(o.Date) &&
		r.TotalAmount.Equal(o.TotalAmount) &&
		r.NetAmount.Equal(o.NetAmount) &&
		r.BilledDays.Equal(o.BilledDays) &&
		r.FiscalYear == o.FiscalYear &&
		r.FiscalQuarter == o.FiscalQuarter &&
		r.YearMonth == o.YearMonth
}
