package importer

import (
	"errors"
	"fmt"
	"strings"
)

// ════════════════════════════════════════════════════════════
// 导入错误分类
//
//   RowError:   单行校验失败（规范化阶段，整批作废）
//   BatchError: 整批引用校验失败（提交前闸门，不生成计划）
//   ApplyError: 写入协作方失败（应用阶段，携带已应用数量）
// ════════════════════════════════════════════════════════════

var (
	ErrUnknownPolicy  = errors.New("未知的冲突处理策略")
	ErrPlanNotUsable  = errors.New("导入计划包含校验错误，不能执行")
	ErrUnknownMergeBy = errors.New("未知的课程合并键")
)

// RowError 行级校验错误；Row 为表格中的显示行号（数组下标 + 2）
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("第 %d 行: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("第 %d 行 [%s] 值 %q: %s", e.Row, e.Field, e.Value, e.Message)
}

// BatchError 批次级引用错误，AffectedKeys 为受影响记录的自然键（按出现顺序）
type BatchError struct {
	Message      string   `json:"message"`
	AffectedKeys []string `json:"affected_keys"`
	Details      []string `json:"details,omitempty"`
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.AffectedKeys, ", "))
}

// ApplyStage 应用阶段
type ApplyStage string

const (
	StageCreate ApplyStage = "create"
	StageUpdate ApplyStage = "update"
)

// ApplyError 写入失败；Applied 之前的记录已落库，FailedKey 及之后的均未写入
type ApplyError struct {
	Applied   int
	Stage     ApplyStage
	FailedKey string
	Err       error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("导入在 %s 阶段于记录 %q 处失败（已应用 %d 条）: %v", e.Stage, e.FailedKey, e.Applied, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }
