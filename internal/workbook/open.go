package workbook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrUnsupportedFormat 既不是 xlsx(zip) 也不是 xls(OLE2)
var ErrUnsupportedFormat = errors.New("unsupported workbook format")

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DetectFormat 按文件头识别格式
func DetectFormat(data []byte) (Format, error) {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX, nil
	case bytes.HasPrefix(data, oleMagic):
		return FormatXLS, nil
	}
	return "", ErrUnsupportedFormat
}

// Open 完整读入工作簿；name 仅用于诊断
func Open(ctx context.Context, r io.Reader, name string) (*Workbook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := DetectFormat(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if format == FormatXLS {
		return OpenXLS(data, name)
	}
	return OpenXLSX(bytes.NewReader(data), name)
}
