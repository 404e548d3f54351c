package parser

import "strings"

// FlattenHeader 合并透视表两行表头为 "Apr-22 T Amt" 形式的列标签
// 月份行向右填充（合并单元格只在首格有值）；第 0 列保持原样作为标签列
func FlattenHeader(grid [][]string, headerRow int) []string {
	var top, sub []string
	if headerRow >= 0 && headerRow < len(grid) {
		top = grid[headerRow]
	}
	if headerRow+1 >= 0 && headerRow+1 < len(grid) {
		sub = grid[headerRow+1]
	}

	width := len(top)
	if len(sub) > width {
		width = len(sub)
	}
	out := make([]string, width)
	carry := ""
	for i := 0; i < width; i++ {
		t := cellOf(top, i)
		s := cellOf(sub, i)
		if i == 0 {
			out[0] = strings.TrimSpace(t + " " + s)
			continue
		}
		if t != "" {
			carry = t
		}
		switch {
		case carry == "":
			out[i] = s
		case s == "":
			out[i] = carry
		default:
			out[i] = carry + " " + s
		}
	}
	return out
}

func cellOf(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}
