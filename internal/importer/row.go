package importer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"campus-scheduler/internal/model"
)

// RawRow 表头 → 单元格值，由外部解码器提供，规范化过程中只读
type RawRow map[string]any

// DisplayRow 数组下标转为表格显示行号（第 1 行为表头）
func DisplayRow(index int) int { return index + 2 }

// field 规范字段及其表头同义词（按优先级）
type field struct {
	name     string
	synonyms []string
}

// label 错误信息中展示的字段名
func (f field) label() string { return f.synonyms[0] }

// lookup 按同义词顺序查找首个存在的列；精确匹配优先，其次折叠匹配
func (r RawRow) lookup(f field) (string, bool) {
	for _, syn := range f.synonyms {
		if v, ok := r[syn]; ok {
			return cellString(v), true
		}
	}
	for _, syn := range f.synonyms {
		want := model.Fold(syn)
		for k, v := range r {
			if model.Fold(k) == want {
				return cellString(v), true
			}
		}
	}
	return "", false
}

// cellString 单元格值统一转为去空白的字符串
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		// 仅含时刻的单元格（Excel 纪元或零值日期）按 HH:MM 处理
		if x.Year() <= 1900 {
			return x.Format("15:04")
		}
		return x.Format("2006-01-02")
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseInt 解析整数，接受 "3" 与 "3.0"
func parseInt(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// required 读取必填字段
func (r RawRow) required(row int, f field) (string, *RowError) {
	v, ok := r.lookup(f)
	if !ok {
		return "", &RowError{Row: row, Field: f.label(), Message: "缺少必填列"}
	}
	if v == "" {
		return "", &RowError{Row: row, Field: f.label(), Message: "必填字段为空"}
	}
	return v, nil
}

// optional 读取可选字段，缺列与空值等价
func (r RawRow) optional(f field) string {
	v, _ := r.lookup(f)
	return v
}

// intField 可选的非负整数字段；空值返回 def
func (r RawRow) intField(row int, f field, def int) (int, *RowError) {
	v := r.optional(f)
	if v == "" {
		return def, nil
	}
	n, ok := parseInt(v)
	if !ok {
		return 0, &RowError{Row: row, Field: f.label(), Value: v, Message: "应为整数"}
	}
	if n < 0 {
		return 0, &RowError{Row: row, Field: f.label(), Value: v, Message: "不能为负数"}
	}
	return n, nil
}

func itoa(n int) string { return strconv.Itoa(n) }

func lowerKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
