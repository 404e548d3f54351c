package parser

import (
	"fmt"
	"strings"
)

// SheetLayout 账单 sheet 布局
type SheetLayout string

const (
	LayoutFlat  SheetLayout = "FLAT"  // 单行表头，一行一条记录
	LayoutPivot SheetLayout = "PIVOT" // 两行表头（月份 × 指标），行为层级标签
)

// Classification 账单表头识别结果
type Classification struct {
	Layout    SheetLayout `json:"layout"`
	HeaderRow int         `json:"headerRow"` // PIVOT：月份行；指标行为 HeaderRow+1
}

// RawTable 按列名组织的原始字符串表
type RawTable struct {
	Headers []string
	Rows    [][]string
	Raw     [][]string // 与 Rows 对齐的未格式化值，可为空
}

// Value 取单元格文本，越界返回空串
func (t *RawTable) Value(row, col int) string {
	return cellAt(t.Rows, row, col)
}

// RawValue 取未格式化值；无原始值时退回文本
func (t *RawTable) RawValue(row, col int) string {
	if t.Raw != nil && row < len(t.Raw) {
		return cellAt(t.Raw, row, col)
	}
	return t.Value(row, col)
}

func cellAt(grid [][]string, row, col int) string {
	if row < 0 || row >= len(grid) || col < 0 || col >= len(grid[row]) {
		return ""
	}
	return strings.TrimSpace(grid[row][col])
}

// MalformedContractSheetError 合同 sheet 结构无法识别（可恢复：合同表置空）
type MalformedContractSheetError struct {
	Reason  string
	Headers []string
}

func (e *MalformedContractSheetError) Error() string {
	return fmt.Sprintf("malformed contract sheet: %s (headers: %s)", e.Reason, strings.Join(e.Headers, ", "))
}

// MalformedBillingSheetError 所有账单解析策略均未产出记录
type MalformedBillingSheetError struct {
	Headers  []string
	Attempts []string
}

func (e *MalformedBillingSheetError) Error() string {
	return fmt.Sprintf("malformed billing sheet: no strategy produced rows (tried %s; headers: %s)",
		strings.Join(e.Attempts, ", "), strings.Join(e.Headers, ", "))
}

// MissingColumnError 必需列缺失且无法回填
type MissingColumnError struct {
	Required []string
	Found    []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column(s): %s; found: %s",
		strings.Join(e.Required, ", "), strings.Join(e.Found, ", "))
}
