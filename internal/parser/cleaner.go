package parser

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"billingcb/internal/fiscal"
	"billingcb/internal/logger"
	"billingcb/internal/model"
)

// SampleRows 回填列时采样的数据行数
const SampleRows = 10

// RequiredBillingColumns 规范账单列
var RequiredBillingColumns = []string{"Business Head", "Consultant", "Client", "Date", "T Amt", "N Amt"}

// Cleaner 账单记录清洗：列回填、缺省补齐、类型转换、财年字段
type Cleaner struct {
	now        func() time.Time
	sampleRows int
	unknown    string
	date1904   bool
}

// NewCleaner 创建清洗器；now 为 nil 时取 time.Now
func NewCleaner(now func() time.Time, sampleRows int, unknown string, date1904 bool) *Cleaner {
	if now == nil {
		now = time.Now
	}
	if sampleRows <= 0 {
		sampleRows = SampleRows
	}
	if unknown == "" {
		unknown = model.UnknownLabel
	}
	return &Cleaner{now: now, sampleRows: sampleRows, unknown: unknown, date1904: date1904}
}

// CleanStats 清洗统计
type CleanStats struct {
	Columns     map[Field]int
	Backfilled  []Field
	Synthesized []Field
	Dropped     int
}

// Clean 清洗按列名组织的平铺表
func (c *Cleaner) Clean(table *RawTable) ([]model.BillingRecord, CleanStats, error) {
	stats := CleanStats{}
	if table == nil || len(table.Headers) == 0 {
		return nil, stats, &MissingColumnError{Required: RequiredBillingColumns}
	}

	cols := ResolveColumns(table.Headers, BillingColumnRules)
	stats.Backfilled = c.backfill(table, cols)
	for _, f := range []Field{FieldDate, FieldAmount, FieldNet, FieldBusinessHead, FieldConsultant, FieldClient} {
		if _, ok := cols[f]; !ok {
			stats.Synthesized = append(stats.Synthesized, f)
		}
	}
	stats.Columns = cols

	text := func(row int, f Field) string {
		if idx, ok := cols[f]; ok {
			return table.Value(row, idx)
		}
		return ""
	}
	number := func(row int, f Field) decimal.Decimal {
		idx, ok := cols[f]
		if !ok {
			return decimal.Zero
		}
		if d, ok := ParseDecimal(table.RawValue(row, idx)); ok {
			return d
		}
		return DecimalOrZero(table.Value(row, idx))
	}

	records := make([]model.BillingRecord, 0, len(table.Rows))
	for i, row := range table.Rows {
		if isBlankRow(row) {
			continue
		}
		var date time.Time
		if idx, ok := cols[FieldDate]; ok {
			d, ok := ParseDate(table.Value(i, idx), table.RawValue(i, idx), c.date1904)
			if !ok {
				stats.Dropped++
				continue
			}
			date = d
		}
		records = append(records, model.BillingRecord{
			BusinessHead: text(i, FieldBusinessHead),
			Consultant:   text(i, FieldConsultant),
			Client:       text(i, FieldClient),
			Date:         date,
			TotalAmount:  number(i, FieldAmount),
			NetAmount:    number(i, FieldNet),
			BilledDays:   number(i, FieldDays),
		})
	}

	logger.L.Info("billing table cleaned",
		"columns", cols, "backfilled", stats.Backfilled, "synthesized", stats.Synthesized,
		"rows", len(records), "dropped", stats.Dropped)
	return c.CleanRecords(records), stats, nil
}

// CleanRecords 补齐并规范已是结构化的记录；幂等
func (c *Cleaner) CleanRecords(records []model.BillingRecord) []model.BillingRecord {
	processed := MonthStart(c.now())
	out := make([]model.BillingRecord, 0, len(records))
	for _, r := range records {
		r.BusinessHead = c.label(r.BusinessHead)
		r.Consultant = c.label(r.Consultant)
		r.Client = c.label(r.Client)
		if r.Date.IsZero() {
			r.Date = processed
		} else {
			r.Date = MonthStart(r.Date)
		}
		if r.BilledDays.IsNegative() {
			r.BilledDays = decimal.Zero
		}
		r.FiscalYear = fiscal.FiscalYear(r.Date)
		r.FiscalQuarter = fiscal.Quarter(r.Date)
		r.YearMonth = fiscal.YearMonth(r.Date)
		out = append(out, r)
	}
	return out
}

func (c *Cleaner) label(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return c.unknown
	}
	return s
}

// backfill 按采样值为未识别的列找替代：日期文本→日期，大写字符串→业务负责人，数值→金额
func (c *Cleaner) backfill(table *RawTable, cols map[Field]int) []Field {
	used := make(map[int]bool, len(cols))
	for _, idx := range cols {
		used[idx] = true
	}

	var filled []Field
	width := len(table.Headers)
	for idx := 0; idx < width; idx++ {
		if used[idx] {
			continue
		}
		samples := c.samples(table, idx)
		if len(samples) == 0 {
			continue
		}
		var field Field
		switch {
		case !has(cols, FieldDate) && mostly(samples, func(s string) bool { _, ok := ParseDateText(s); return ok }):
			field = FieldDate
		case !has(cols, FieldBusinessHead) && mostly(samples, func(s string) bool { return IsUpperLabel(s) && len([]rune(s)) > 3 }):
			field = FieldBusinessHead
		case !has(cols, FieldAmount) && mostly(samples, func(s string) bool { _, ok := ParseDecimal(s); return ok }):
			field = FieldAmount
		default:
			continue
		}
		cols[field] = idx
		used[idx] = true
		filled = append(filled, field)
	}
	return filled
}

func (c *Cleaner) samples(table *RawTable, col int) []string {
	var out []string
	for i := range table.Rows {
		if len(out) >= c.sampleRows {
			break
		}
		if v := table.Value(i, col); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func has(cols map[Field]int, f Field) bool {
	_, ok := cols[f]
	return ok
}

// mostly 超过半数样本满足条件
func mostly(samples []string, pred func(string) bool) bool {
	n := 0
	for _, s := range samples {
		if pred(s) {
			n++
		}
	}
	return n*2 > len(samples)
}
