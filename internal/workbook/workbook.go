// Package workbook 把 xlsx/xls 工作簿读成与格式无关的单元格网格
package workbook

import "strings"

// Format 工作簿文件格式
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// Cell 单元格
type Cell struct {
	Text   string // 按单元格格式显示的文本
	Raw    string // 未格式化的原始值（日期为 Excel 序列号）
	Indent int    // 对齐缩进级别，未知为 -1
}

// Sheet 工作表
type Sheet struct {
	Name string
	Rows [][]Cell
}

// Grid 显示文本网格
func (s *Sheet) Grid() [][]string {
	out := make([][]string, len(s.Rows))
	for i, row := range s.Rows {
		out[i] = make([]string, len(row))
		for j, c := range row {
			out[i][j] = c.Text
		}
	}
	return out
}

// Cell 取单元格，越界返回空单元格
func (s *Sheet) Cell(row, col int) Cell {
	if row < 0 || row >= len(s.Rows) || col < 0 || col >= len(s.Rows[row]) {
		return Cell{Indent: -1}
	}
	return s.Rows[row][col]
}

// Workbook 已完整载入内存的工作簿
type Workbook struct {
	Name     string
	Format   Format
	Date1904 bool
	Sheets   []*Sheet
}

// SheetNames sheet 名列表（保持原顺序）
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		names[i] = s.Name
	}
	return names
}

// Sheet 按名称取 sheet（大小写不敏感）
func (w *Workbook) Sheet(name string) *Sheet {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s
		}
	}
	for _, s := range w.Sheets {
		if strings.EqualFold(s.Name, name) {
			return s
		}
	}
	return nil
}
