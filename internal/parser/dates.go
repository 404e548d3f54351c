package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// dateLayouts 文本日期格式，按优先级排列（月/日 优先于 日-月）
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"01-02-06", // excelize 默认日期格式 mm-dd-yy
	"02-01-2006",
	"2-Jan-06",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan-06",
	"Jan-2006",
	"Jan 2006",
	"January 2006",
	"January-2006",
	"2006-01",
}

// ParseDateText 按文本格式解析日期
func ParseDateText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseExcelSerial 解析 Excel 日期序列号
func ParseExcelSerial(s string, date1904 bool) (time.Time, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 1 || v > 2958465 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(v, date1904)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseDate 先按文本格式，再按原始值的 Excel 序列号解析；结果归一为当月 1 日（UTC）
func ParseDate(text, raw string, date1904 bool) (time.Time, bool) {
	if t, ok := ParseDateText(text); ok {
		return MonthStart(t), true
	}
	if t, ok := ParseDateText(raw); ok {
		return MonthStart(t), true
	}
	if t, ok := ParseExcelSerial(raw, date1904); ok {
		return MonthStart(t), true
	}
	return time.Time{}, false
}

// MonthStart 当月 1 日 00:00 UTC
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
