package workbook

import (
	"fmt"
	"strings"

	"github.com/schollz/closestmatch"
)

// MissingSheetError 必需的逻辑 sheet 在工作簿中找不到
type MissingSheetError struct {
	Missing     []string
	Available   []string
	Suggestions map[string]string // 逻辑名 → 最接近的可用 sheet 名（仅提示，不参与解析）
}

func (e *MissingSheetError) Error() string {
	msg := fmt.Sprintf("missing required sheet(s): %s; available sheets: %s",
		strings.Join(e.Missing, ", "), strings.Join(e.Available, ", "))
	var hints []string
	for _, m := range e.Missing {
		if s, ok := e.Suggestions[m]; ok {
			hints = append(hints, fmt.Sprintf("%s → %s?", m, s))
		}
	}
	if len(hints) > 0 {
		msg += " (did you mean " + strings.Join(hints, ", ") + ")"
	}
	return msg
}

// LocateSheets 把逻辑 sheet 名解析为实际 sheet 名
// 先大小写不敏感全等，再大小写不敏感包含（逻辑名 ⊂ 实际名）；任一失败返回 *MissingSheetError
func LocateSheets(available, required []string) (map[string]string, error) {
	resolved := make(map[string]string, len(required))
	var missing []string

	for _, want := range required {
		if name, ok := matchSheet(available, want); ok {
			resolved[want] = name
			continue
		}
		missing = append(missing, want)
	}
	if len(missing) == 0 {
		return resolved, nil
	}

	return resolved, &MissingSheetError{
		Missing:     missing,
		Available:   append([]string(nil), available...),
		Suggestions: suggestSheets(available, missing),
	}
}

func matchSheet(available []string, want string) (string, bool) {
	w := strings.ToLower(strings.TrimSpace(want))
	if w == "" {
		return "", false
	}
	for _, name := range available {
		if strings.ToLower(strings.TrimSpace(name)) == w {
			return name, true
		}
	}
	for _, name := range available {
		if strings.Contains(strings.ToLower(name), w) {
			return name, true
		}
	}
	return "", false
}

func suggestSheets(available, missing []string) map[string]string {
	out := make(map[string]string)
	if len(available) == 0 {
		return out
	}
	lower := make([]string, len(available))
	byLower := make(map[string]string, len(available))
	for i, name := range available {
		lower[i] = strings.ToLower(name)
		byLower[lower[i]] = name
	}
	cm := closestmatch.New(lower, []int{2, 3})
	for _, m := range missing {
		if best := cm.Closest(strings.ToLower(m)); best != "" {
			out[m] = byLower[best]
		}
	}
	return out
}
