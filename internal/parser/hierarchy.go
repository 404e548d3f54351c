package parser

import (
	"strings"
	"unicode"
)

// WalkPhase 层级遍历阶段
type WalkPhase int

const (
	PhaseNoHead       WalkPhase = iota // 尚未遇到业务负责人
	PhaseInHead                        // 已有负责人，尚无顾问
	PhaseInConsultant                  // 已有负责人与顾问
)

// RowRole 行在层级中的角色
type RowRole int

const (
	RoleSkip RowRole = iota
	RoleHead
	RoleConsultant
	RoleClient
)

func (r RowRole) String() string {
	switch r {
	case RoleHead:
		return "head"
	case RoleConsultant:
		return "consultant"
	case RoleClient:
		return "client"
	}
	return "skip"
}

// RowLabel 透视表行首列标签
type RowLabel struct {
	Text   string // 未 trim 的文本，前导空格参与缩进判断
	Indent int    // 单元格对齐缩进，未知为 -1
}

// Level 有效缩进：样式缩进每级折合 4 个空格
func (l RowLabel) Level() int {
	level := 0
	if l.Indent > 0 {
		level = l.Indent * 4
	}
	for _, r := range l.Text {
		if r != ' ' && r != '\u00a0' && r != '\t' {
			break
		}
		level++
	}
	return level
}

// HierarchyState 遍历状态
type HierarchyState struct {
	Phase           WalkPhase
	Head            string
	Consultant      string
	ConsultantLevel int
}

// HierarchyWalker 业务负责人 → 顾问 → 客户 三级标签的状态机
type HierarchyWalker struct {
	useIndent bool
}

// NewHierarchyWalker 根据全部行标签决定是否可用缩进区分顾问与客户：
// 非大写标签中出现至少两种缩进级别才启用
func NewHierarchyWalker(labels []RowLabel) *HierarchyWalker {
	levels := make(map[int]struct{})
	for _, l := range labels {
		text := strings.TrimSpace(l.Text)
		if text == "" || IsUpperLabel(text) || isGrandTotal(text) {
			continue
		}
		levels[l.Level()] = struct{}{}
	}
	return &HierarchyWalker{useIndent: len(levels) >= 2}
}

// UsesIndent 是否启用缩进判断
func (w *HierarchyWalker) UsesIndent() bool {
	return w.useIndent
}

// Step 纯函数：给定当前状态与行标签，返回新状态与该行角色
func (w *HierarchyWalker) Step(s HierarchyState, label RowLabel) (HierarchyState, RowRole) {
	text := strings.TrimFunc(label.Text, unicode.IsSpace)
	if text == "" || isGrandTotal(text) {
		return s, RoleSkip
	}
	if IsUpperLabel(text) {
		return HierarchyState{Phase: PhaseInHead, Head: text}, RoleHead
	}

	switch s.Phase {
	case PhaseNoHead:
		return s, RoleSkip
	case PhaseInHead:
		return w.consultant(s, text, label), RoleConsultant
	}

	if w.useIndent && label.Level() <= s.ConsultantLevel {
		return w.consultant(s, text, label), RoleConsultant
	}
	return s, RoleClient
}

func (w *HierarchyWalker) consultant(s HierarchyState, text string, label RowLabel) HierarchyState {
	return HierarchyState{
		Phase:           PhaseInConsultant,
		Head:            s.Head,
		Consultant:      text,
		ConsultantLevel: label.Level(),
	}
}

func isGrandTotal(text string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(text)), "grand total")
}
