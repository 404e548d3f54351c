package parser

import (
	"context"
	"fmt"

	"billingcb/internal/logger"
	"billingcb/internal/model"
	"billingcb/internal/workbook"
)

// BillingDraft 某个策略产出的账单记录
type BillingDraft struct {
	Strategy   string
	Layout     SheetLayout
	Records    []model.BillingRecord
	Degenerate bool
	Dropped    int
}

// BillingStrategy 账单解析策略；无法产出记录时返回 false，由下一个策略接手
type BillingStrategy interface {
	Name() string
	Attempt(ctx context.Context, sheet *workbook.Sheet) (BillingDraft, bool)
}

// PivotStrategy 透视表重建
type PivotStrategy struct {
	recognizer    *BillingRecognizer
	reconstructor *PivotReconstructor
	cleaner       *Cleaner
}

// NewPivotStrategy 创建透视表策略
func NewPivotStrategy(recognizer *BillingRecognizer, reconstructor *PivotReconstructor, cleaner *Cleaner) *PivotStrategy {
	return &PivotStrategy{recognizer: recognizer, reconstructor: reconstructor, cleaner: cleaner}
}

func (s *PivotStrategy) Name() string { return "pivot" }

func (s *PivotStrategy) Attempt(ctx context.Context, sheet *workbook.Sheet) (BillingDraft, bool) {
	grid := sheet.Grid()
	cls := s.recognizer.Classify(grid)
	if cls.Layout != LayoutPivot {
		return BillingDraft{}, false
	}
	res, ok := s.reconstructor.Reconstruct(sheet, cls.HeaderRow)
	if !ok {
		logger.FromContext(ctx).Info("month labels found but no dated metric columns", "headerRow", cls.HeaderRow)
		return BillingDraft{}, false
	}
	records := s.cleaner.CleanRecords(res.Records)
	if len(records) == 0 {
		return BillingDraft{}, false
	}
	logger.FromContext(ctx).Info("pivot reconstructed",
		"headerRow", cls.HeaderRow, "metricColumns", len(res.Columns), "periods", res.Periods,
		"indentCue", res.UsedIndent, "degenerate", res.Degenerate, "records", len(records))
	return BillingDraft{
		Strategy:   s.Name(),
		Layout:     LayoutPivot,
		Records:    records,
		Degenerate: res.Degenerate,
	}, true
}

// FlatStrategy 首行为表头的平铺表；金额、净额、日期至少一列可按名称识别
type FlatStrategy struct {
	cleaner *Cleaner
}

// NewFlatStrategy 创建平铺表策略
func NewFlatStrategy(cleaner *Cleaner) *FlatStrategy {
	return &FlatStrategy{cleaner: cleaner}
}

func (s *FlatStrategy) Name() string { return "flat" }

func (s *FlatStrategy) Attempt(ctx context.Context, sheet *workbook.Sheet) (BillingDraft, bool) {
	table := sheetTable(sheet, 0)
	if table == nil {
		return BillingDraft{}, false
	}
	cols := ResolveColumns(table.Headers, BillingColumnRules)
	if !has(cols, FieldAmount) && !has(cols, FieldNet) && !has(cols, FieldDate) {
		logger.FromContext(ctx).Info("flat header lacks expected columns", "headers", table.Headers)
		return BillingDraft{}, false
	}
	return cleanDraft(s.Name(), s.cleaner, table)
}

// LenientFlatStrategy 首个非空行为表头，其余全靠回填与补齐
type LenientFlatStrategy struct {
	cleaner *Cleaner
}

// NewLenientFlatStrategy 创建宽松平铺表策略
func NewLenientFlatStrategy(cleaner *Cleaner) *LenientFlatStrategy {
	return &LenientFlatStrategy{cleaner: cleaner}
}

func (s *LenientFlatStrategy) Name() string { return "lenient" }

func (s *LenientFlatStrategy) Attempt(_ context.Context, sheet *workbook.Sheet) (BillingDraft, bool) {
	start := 0
	for start < len(sheet.Rows) && rowBlank(sheet.Rows[start]) {
		start++
	}
	table := sheetTable(sheet, start)
	if table == nil {
		return BillingDraft{}, false
	}
	for i, h := range table.Headers {
		if IsPlaceholderHeader(h) {
			table.Headers[i] = fmt.Sprintf("Column_%d", i)
		}
	}
	return cleanDraft(s.Name(), s.cleaner, table)
}

func cleanDraft(name string, cleaner *Cleaner, table *RawTable) (BillingDraft, bool) {
	records, stats, err := cleaner.Clean(table)
	if err != nil || len(records) == 0 {
		return BillingDraft{}, false
	}
	return BillingDraft{
		Strategy: name,
		Layout:   LayoutFlat,
		Records:  records,
		Dropped:  stats.Dropped,
	}, true
}

// sheetTable 以 headerRow 为表头构建 RawTable；表头之后没有数据时返回 nil
func sheetTable(sheet *workbook.Sheet, headerRow int) *RawTable {
	if headerRow >= len(sheet.Rows)-1 {
		return nil
	}
	width := 0
	for _, row := range sheet.Rows[headerRow:] {
		if len(row) > width {
			width = len(row)
		}
	}
	table := &RawTable{Headers: make([]string, width)}
	for j := 0; j < width; j++ {
		table.Headers[j] = sheet.Cell(headerRow, j).Text
	}
	for _, row := range sheet.Rows[headerRow+1:] {
		text := make([]string, len(row))
		raw := make([]string, len(row))
		for j, c := range row {
			text[j] = c.Text
			raw[j] = c.Raw
		}
		table.Rows = append(table.Rows, text)
		table.Raw = append(table.Raw, raw)
	}
	return table
}

// DefaultStrategies 透视表 → 平铺表 → 宽松平铺表
func DefaultStrategies(recognizer *BillingRecognizer, reconstructor *PivotReconstructor, cleaner *Cleaner) []BillingStrategy {
	return []BillingStrategy{
		NewPivotStrategy(recognizer, reconstructor, cleaner),
		NewFlatStrategy(cleaner),
		NewLenientFlatStrategy(cleaner),
	}
}

// ParseBilling 依次尝试策略，采用第一个成功者；全部失败返回 *MalformedBillingSheetError
func ParseBilling(ctx context.Context, sheet *workbook.Sheet, strategies []BillingStrategy) (BillingDraft, error) {
	attempts := make([]string, 0, len(strategies))
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return BillingDraft{}, err
		}
		attempts = append(attempts, s.Name())
		if draft, ok := s.Attempt(ctx, sheet); ok {
			logger.FromContext(ctx).Info("billing strategy adopted", "strategy", s.Name(), "records", len(draft.Records))
			return draft, nil
		}
	}

	var headers []string
	for _, row := range sheet.Rows {
		if !rowBlank(row) {
			for _, c := range row {
				headers = append(headers, c.Text)
			}
			break
		}
	}
	return BillingDraft{}, &MalformedBillingSheetError{Headers: headers, Attempts: attempts}
}
