// Package fiscal 实现 4 月起算的财年日历
package fiscal

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"billingcb/internal/model"
)

// StartMonth 财年起始月
const StartMonth = time.April

var labelRe = regexp.MustCompile(`^FY\s*(\d{4})-(\d{2})$`)

// startYear 财年起始年：4 月及以后为当年，1-3 月为上一年
func startYear(t time.Time) int {
	if t.Month() >= StartMonth {
		return t.Year()
	}
	return t.Year() - 1
}

// FiscalYear 财年标签，如 2023-03-15 → "FY 2022-23"
func FiscalYear(t time.Time) string {
	y := startYear(t)
	return fmt.Sprintf("FY %d-%02d", y, (y+1)%100)
}

// Quarter 财年季度：4-6 Q1，7-9 Q2，10-12 Q3，1-3 Q4
func Quarter(t time.Time) model.FiscalQuarter {
	switch m := t.Month(); {
	case m >= time.April && m <= time.June:
		return model.Q1
	case m >= time.July && m <= time.September:
		return model.Q2
	case m >= time.October:
		return model.Q3
	default:
		return model.Q4
	}
}

// YearMonth 日历年月 "2006-01"
func YearMonth(t time.Time) string {
	return t.Format("2006-01")
}

// QuarterLabel 财年+季度，如 "FY 2022-23 Q1"
func QuarterLabel(t time.Time) string {
	return FiscalYear(t) + " " + string(Quarter(t))
}

// StartOf 解析财年标签，返回该财年 4 月 1 日（UTC）
func StartOf(label string) (time.Time, error) {
	m := labelRe.FindStringSubmatch(label)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid fiscal year label %q", label)
	}
	y, _ := strconv.Atoi(m[1])
	if suffix, _ := strconv.Atoi(m[2]); suffix != (y+1)%100 {
		return time.Time{}, fmt.Errorf("invalid fiscal year label %q: end year mismatch", label)
	}
	return time.Date(y, StartMonth, 1, 0, 0, 0, 0, time.UTC), nil
}

// Periods 覆盖最早到最晚日期的全部财年标签（含首尾，升序）；空输入返回空
func Periods(dates []time.Time) []string {
	if len(dates) == 0 {
		return []string{}
	}
	lo, hi := startYear(dates[0]), startYear(dates[0])
	for _, d := range dates[1:] {
		y := startYear(d)
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	out := make([]string, 0, hi-lo+1)
	for y := lo; y <= hi; y++ {
		out = append(out, FiscalYear(time.Date(y, StartMonth, 1, 0, 0, 0, 0, time.UTC)))
	}
	return out
}
