package service

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"campus-scheduler/internal/importer"
)

// ── 工作簿解析错误 ──

var (
	ErrWorkbookUnreadable  = errors.New("无法解析 Excel 文件")
	ErrWorkbookNoData      = errors.New("Excel 文件无数据行（第一行为表头）")
	ErrWorkbookTooManyRows = errors.New("数据行数超过上限")
	ErrWorkbookNoHeader    = errors.New("Excel 表头为空")
)

// DecodeWorkbook 读取第一个工作表：首行为表头，其余每行转为 RawRow。
//
// 每个 RawRow 都包含全部表头（缺失单元格为空串），中间的空行同样保留，
// 以保证 "下标 + 2" 与表格行号一致，空行会在必填校验处报错。
// 末尾的空行被丢弃。
func DecodeWorkbook(reader io.Reader, maxRows int) ([]importer.RawRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkbookUnreadable, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(excelRows) == 0 {
		return nil, ErrWorkbookNoHeader
	}

	headers := make([]string, len(excelRows[0]))
	hasHeader := false
	for i, h := range excelRows[0] {
		headers[i] = strings.TrimSpace(h)
		if headers[i] != "" {
			hasHeader = true
		}
	}
	if !hasHeader {
		return nil, ErrWorkbookNoHeader
	}

	// 丢弃末尾空行
	data := excelRows[1:]
	for len(data) > 0 && isBlankRow(data[len(data)-1]) {
		data = data[:len(data)-1]
	}
	if len(data) == 0 {
		return nil, ErrWorkbookNoData
	}
	if maxRows > 0 && len(data) > maxRows {
		return nil, fmt.Errorf("%w: %d 行（上限 %d 行）", ErrWorkbookTooManyRows, len(data), maxRows)
	}

	rows := make([]importer.RawRow, 0, len(data))
	for _, cells := range data {
		raw := make(importer.RawRow, len(headers))
		for col, h := range headers {
			if h == "" {
				continue
			}
			if _, dup := raw[h]; dup {
				// 重复表头以第一列为准
				continue
			}
			val := ""
			if col < len(cells) {
				val = strings.TrimSpace(cells[col])
			}
			raw[h] = val
		}
		rows = append(rows, raw)
	}
	return rows, nil
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
