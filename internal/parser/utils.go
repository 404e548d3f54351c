package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	placeholderRe = regexp.MustCompile(`^(unnamed:? ?\d+( level \d+)?|column ?\d+)$`)
	monthTokenRe  = regexp.MustCompile(`(?i)\b(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t|tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)(?:[^a-z]|$)`)
	periodSplitRe = regexp.MustCompile(`[-\s'/]+`)
)

var monthAbbr = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// NormalizeColumnName 规范化列名：NFKC、下划线视作空格、小写、压缩空白
func NormalizeColumnName(name string) string {
	name = norm.NFKC.String(name)
	name = strings.ReplaceAll(name, "_", " ")
	name = whitespaceRe.ReplaceAllString(strings.TrimSpace(name), " ")
	return strings.ToLower(name)
}

// IsPlaceholderHeader 空表头或 "Unnamed: N" / "Column_N" 之类的占位表头
func IsPlaceholderHeader(name string) bool {
	n := NormalizeColumnName(name)
	return n == "" || placeholderRe.MatchString(n)
}

// ContainsAny 检查字符串是否包含任意一个关键词
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// HasMonthToken 是否含完整的月份名或缩写（"Apr-22"、"April 2022" 命中，"Jane"、"Summary" 不命中）
func HasMonthToken(text string) bool {
	return monthTokenRe.MatchString(text)
}

// IsUpperLabel 业务负责人标签：长度 >2，含字母且所有字母均为大写
func IsUpperLabel(s string) bool {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= 2 {
		return false
	}
	cased := false
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// ParseDecimal 解析金额；支持千分位、货币符号、括号负数
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(norm.NFKC.String(s))
	if s == "" || s == "-" {
		return decimal.Zero, false
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '$', '₹', '€', '£':
			return -1
		}
		return r
	}, s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "Rs."), "Rs")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// DecimalOrZero 解析失败取 0
func DecimalOrZero(s string) decimal.Decimal {
	d, _ := ParseDecimal(s)
	return d
}

// ParsePeriodKey 解析透视表月份键（"apr-22"、"april 2022"、"apr'22"）为当月 1 日
// 无法识别月份或缺少年份时返回 false
func ParsePeriodKey(key string) (time.Time, bool) {
	parts := periodSplitRe.Split(strings.ToLower(strings.TrimSpace(key)), -1)
	if len(parts) < 2 || len(parts[0]) < 3 {
		return time.Time{}, false
	}
	month, ok := monthAbbr[parts[0][:3]]
	if !ok {
		return time.Time{}, false
	}
	yearStr := parts[1]
	if len(yearStr) != 2 && len(yearStr) != 4 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, false
	}
	if len(yearStr) == 2 {
		year += 2000
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
