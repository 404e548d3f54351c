package parser

import (
	"errors"
	"strings"

	"billingcb/internal/logger"
	"billingcb/internal/model"
)

// ContractParser 合同 sheet 解析器
type ContractParser struct{}

// NewContractParser 创建合同解析器
func NewContractParser() *ContractParser {
	return &ContractParser{}
}

// Parse 解析合同网格；结构无法识别时返回空列表并记录日志，从不报错
func (p *ContractParser) Parse(grid [][]string) []model.ContractRecord {
	records, err := p.ParseWithDiagnostics(grid)
	if err != nil {
		logger.L.Warn("contract sheet degraded to empty", "error", err)
	}
	return records
}

// ParseWithDiagnostics 同 Parse，但返回可恢复的 *MalformedContractSheetError
func (p *ContractParser) ParseWithDiagnostics(grid [][]string) ([]model.ContractRecord, error) {
	records := []model.ContractRecord{}

	start := 0
	for start < len(grid) && isBlankRow(grid[start]) {
		start++
	}
	if start >= len(grid) {
		return records, &MalformedContractSheetError{Reason: "no header row"}
	}
	headers := grid[start]
	dataStart := start + 1

	cols := ResolveColumns(headers, ContractColumnRules)
	if allPlaceholders(headers) {
		cols = contractPositional
	}
	if !hasContractKeys(cols) && start > 0 {
		// 表头行为空：空行视为全占位表头，首个非空行起即为数据
		logger.L.Debug("blank contract header row, using positional columns", "headerRow", start-1)
		headers = grid[start-1]
		cols = contractPositional
		dataStart = start
	}
	if !hasContractKeys(cols) {
		return records, &MalformedContractSheetError{Reason: "no recognizable client/PO columns", Headers: headers}
	}
	logger.L.Debug("contract columns resolved", "columns", cols)

	table := &RawTable{Headers: headers, Rows: grid[dataStart:]}
	get := func(row int, f Field) string {
		idx, ok := cols[f]
		if !ok {
			return ""
		}
		return table.Value(row, idx)
	}

	dropped := 0
	for i := range table.Rows {
		client := get(i, FieldClient)
		po := get(i, FieldPONumber)
		if client == "" || po == "" {
			if !isBlankRow(table.Rows[i]) {
				dropped++
			}
			continue
		}
		records = append(records, model.ContractRecord{
			Client:       client,
			WorkType:     get(i, FieldWorkType),
			PONumber:     po,
			BusinessHead: strings.TrimSpace(get(i, FieldBusinessHead)),
			TotalValue:   DecimalOrZero(get(i, FieldTotalValue)),
			Balance:      DecimalOrZero(get(i, FieldBalance)),
		})
	}
	if dropped > 0 {
		logger.L.Info("contract rows without client or PO dropped", "dropped", dropped)
	}
	return records, nil
}

func hasContractKeys(cols map[Field]int) bool {
	return has(cols, FieldClient) && has(cols, FieldPONumber)
}

// IsMalformedContract 是否为合同 sheet 结构错误
func IsMalformedContract(err error) bool {
	var target *MalformedContractSheetError
	return errors.As(err, &target)
}
