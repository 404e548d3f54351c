package workbook

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// OpenXLSX 读取 xlsx 工作簿的全部 sheet
func OpenXLSX(r io.Reader, name string) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()
	return FromExcelize(f, name)
}

// FromExcelize 从已打开的 excelize 文件构建工作簿
func FromExcelize(f *excelize.File, name string) (*Workbook, error) {
	wb := &Workbook{Name: name, Format: FormatXLSX}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		wb.Date1904 = *props.Date1904
	}

	for _, sheetName := range f.GetSheetList() {
		sheet, err := readXLSXSheet(f, sheetName)
		if err != nil {
			return nil, err
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb, nil
}

func readXLSXSheet(f *excelize.File, sheetName string) (*Sheet, error) {
	text, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	raw, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}

	sheet := &Sheet{Name: sheetName, Rows: make([][]Cell, len(text))}
	indents := make(map[int]int)
	for i, row := range text {
		cells := make([]Cell, len(row))
		for j, v := range row {
			cells[j] = Cell{Text: v, Raw: v, Indent: -1}
			if i < len(raw) && j < len(raw[i]) {
				cells[j].Raw = raw[i][j]
			}
		}
		// 仅首列的缩进有意义（层级标签列）
		if len(cells) > 0 && cells[0].Text != "" {
			cells[0].Indent = cellIndent(f, sheetName, i, indents)
		}
		sheet.Rows[i] = cells
	}
	return sheet, nil
}

// cellIndent 读取 A 列单元格的对齐缩进；按样式索引缓存
func cellIndent(f *excelize.File, sheetName string, row int, cache map[int]int) int {
	axis, err := excelize.CoordinatesToCellName(1, row+1)
	if err != nil {
		return -1
	}
	idx, err := f.GetCellStyle(sheetName, axis)
	if err != nil {
		return -1
	}
	if v, ok := cache[idx]; ok {
		return v
	}
	indent := 0
	if style, err := f.GetStyle(idx); err == nil && style != nil && style.Alignment != nil {
		indent = style.Alignment.Indent
	}
	cache[idx] = indent
	return indent
}
