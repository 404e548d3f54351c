package parser

// PreviewRows 识别账单布局时扫描的行数
const PreviewRows = 5

// BillingRecognizer 账单 sheet 布局识别器
type BillingRecognizer struct {
	previewRows int
}

// NewBillingRecognizer 创建识别器；previewRows<=0 时取默认值
func NewBillingRecognizer(previewRows int) *BillingRecognizer {
	if previewRows <= 0 {
		previewRows = PreviewRows
	}
	return &BillingRecognizer{previewRows: previewRows}
}

// Classify 扫描前若干行，任一单元格出现月份缩写即判为 PIVOT，表头行为首个命中行
func (r *BillingRecognizer) Classify(preview [][]string) Classification {
	for i, row := range preview {
		if i >= r.previewRows {
			break
		}
		for _, cell := range row {
			if HasMonthToken(cell) {
				return Classification{Layout: LayoutPivot, HeaderRow: i}
			}
		}
	}
	return Classification{Layout: LayoutFlat, HeaderRow: 0}
}
