package parser

// Field 规范字段
type Field string

const (
	FieldClient       Field = "client"
	FieldWorkType     Field = "work_type"
	FieldPONumber     Field = "po_number"
	FieldBusinessHead Field = "business_head"
	FieldTotalValue   Field = "total_value"
	FieldBalance      Field = "balance"

	FieldConsultant Field = "consultant"
	FieldDate       Field = "date"
	FieldAmount     Field = "total_amount"
	FieldNet        Field = "net_amount"
	FieldDays       Field = "billed_days"
)

// ColumnRule 列别名规则；Aliases 为规范化后的全等匹配，Keywords 为包含匹配
type ColumnRule struct {
	Field    Field
	Aliases  []string
	Keywords []string
}

// ContractColumnRules 合同 sheet 列别名（有序）
var ContractColumnRules = []ColumnRule{
	{Field: FieldClient, Aliases: []string{"client", "client name", "customer", "customer name"}, Keywords: []string{"client"}},
	{Field: FieldWorkType, Aliases: []string{"work", "type of work", "work type"}, Keywords: []string{"work"}},
	{Field: FieldPONumber, Aliases: []string{"po no.", "po no", "po number", "po #", "po"}, Keywords: []string{"po no", "po number"}},
	{Field: FieldBusinessHead, Aliases: []string{"bh", "business head"}, Keywords: []string{"business head"}},
	{Field: FieldTotalValue, Aliases: []string{"total value (f+v)", "total po value", "total value"}, Keywords: []string{"total"}},
	{Field: FieldBalance, Aliases: []string{"fixed balance", "po balance", "balance"}, Keywords: []string{"balance"}},
}

// contractPositional 表头全为占位符时的位置映射（第 0 列为序号）
var contractPositional = map[Field]int{
	FieldClient:       1,
	FieldWorkType:     2,
	FieldPONumber:     3,
	FieldBusinessHead: 4,
	FieldTotalValue:   5,
	FieldBalance:      6,
}

// BillingColumnRules 平铺账单列别名（有序）
var BillingColumnRules = []ColumnRule{
	{Field: FieldAmount, Aliases: []string{"t amt", "total amt", "total amount"}, Keywords: []string{"t amt", "total amt", "total amount"}},
	{Field: FieldNet, Aliases: []string{"n amt", "net amt", "net amount"}, Keywords: []string{"n amt", "net amt", "net amount"}},
	{Field: FieldDays, Aliases: []string{"days", "billed days"}, Keywords: []string{"days"}},
	{Field: FieldDate, Aliases: []string{"date", "month", "period"}, Keywords: []string{"date", "month", "period"}},
	{Field: FieldBusinessHead, Aliases: []string{"business head", "bh"}, Keywords: []string{"business", "head", "bh"}},
	{Field: FieldConsultant, Aliases: []string{"consultant"}, Keywords: []string{"consultant", "cons", "resource"}},
	{Field: FieldClient, Aliases: []string{"client"}, Keywords: []string{"client", "customer", "account"}},
}

// ResolveColumns 按规则把表头解析为 字段→列索引
// 先对所有规则做全等匹配，再做包含匹配；每列最多归属一个字段
func ResolveColumns(headers []string, rules []ColumnRule) map[Field]int {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeColumnName(h)
	}

	out := make(map[Field]int)
	used := make(map[int]bool)

	for _, rule := range rules {
		for idx, h := range normalized {
			if used[idx] || h == "" {
				continue
			}
			if containsExact(rule.Aliases, h) {
				out[rule.Field] = idx
				used[idx] = true
				break
			}
		}
	}
	for _, rule := range rules {
		if _, ok := out[rule.Field]; ok {
			continue
		}
		for idx, h := range normalized {
			if used[idx] || h == "" {
				continue
			}
			if ContainsAny(h, rule.Keywords) {
				out[rule.Field] = idx
				used[idx] = true
				break
			}
		}
	}
	return out
}

func containsExact(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func allPlaceholders(headers []string) bool {
	for _, h := range headers {
		if !IsPlaceholderHeader(h) {
			return false
		}
	}
	return true
}
