package model

import "time"

// Snapshot 一次上传解析得到的只读快照；下次上传整体替换
type Snapshot struct {
	ID       string    `json:"id"`
	Filename string    `json:"filename"`
	LoadedAt time.Time `json:"loadedAt"`

	// 账单 sheet 的识别结果与最终采用的解析策略
	Layout   string `json:"layout"`
	Strategy string `json:"strategy"`

	Contracts []ContractRecord `json:"-"`
	Billing   []BillingRecord  `json:"-"`

	BusinessHeads []string `json:"businessHeads"`
	Consultants   []string `json:"consultants"`
	Clients       []string `json:"clients"`
	FiscalPeriods []string `json:"fiscalPeriods"`

	Warnings []string `json:"warnings,omitempty"`
}

// SnapshotSummary 快照概要（API 返回）
type SnapshotSummary struct {
	*Snapshot
	ContractCount int `json:"contractCount"`
	BillingCount  int `json:"billingCount"`
}

// Summary 生成概要
func (s *Snapshot) Summary() SnapshotSummary {
	return SnapshotSummary{
		Snapshot:      s,
		ContractCount: len(s.Contracts),
		BillingCount:  len(s.Billing),
	}
}

// FilterCriteria 筛选条件；各维度 AND 组合，空维度不过滤
type FilterCriteria struct {
	BusinessHeads []string `json:"businessHeads"`
	Consultants   []string `json:"consultants"`
	Clients       []string `json:"clients"`
	FiscalYear    string   `json:"fiscalYear"`
}

// IsEmpty 是否未设置任何筛选
func (c FilterCriteria) IsEmpty() bool {
	return len(c.BusinessHeads) == 0 && len(c.Consultants) == 0 && len(c.Clients) == 0 && c.FiscalYear == ""
}
