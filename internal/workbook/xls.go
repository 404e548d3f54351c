package workbook

import (
	"bytes"
	"fmt"

	"github.com/shakinm/xlsReader/xls"
)

// OpenXLS 读取旧版 .xls（BIFF8）工作簿；该格式不提供缩进信息
func OpenXLS(data []byte, name string) (*Workbook, error) {
	book, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open xls: %w", err)
	}

	wb := &Workbook{Name: name, Format: FormatXLS}
	for i := 0; i < book.GetNumberSheets(); i++ {
		src, err := book.GetSheet(i)
		if err != nil || src == nil {
			continue
		}
		sheet := &Sheet{Name: src.GetName()}
		for r := 0; r <= int(src.GetNumberRows()); r++ {
			row, err := src.GetRow(r)
			if err != nil || row == nil {
				sheet.Rows = append(sheet.Rows, nil)
				continue
			}
			var cells []Cell
			for _, col := range row.GetCols() {
				v := ""
				if col != nil {
					v = col.GetString()
				}
				cells = append(cells, Cell{Text: v, Raw: v, Indent: -1})
			}
			sheet.Rows = append(sheet.Rows, trimTrailingEmpty(cells))
		}
		sheet.Rows = trimTrailingRows(sheet.Rows)
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb, nil
}

func trimTrailingEmpty(cells []Cell) []Cell {
	n := len(cells)
	for n > 0 && cells[n-1].Text == "" {
		n--
	}
	return cells[:n]
}

func trimTrailingRows(rows [][]Cell) [][]Cell {
	n := len(rows)
	for n > 0 && len(rows[n-1]) == 0 {
		n--
	}
	return rows[:n]
}
