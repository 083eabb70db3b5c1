package importer

import (
	"strings"

	"campus-scheduler/internal/model"
)

// Record 可参与冲突比对的规范记录
type Record interface {
	// NaturalKey 小写化的自然键，用于碰撞检测
	NaturalKey() string
	// DisplayKey 面向用户展示的键
	DisplayKey() string
	// MissingReferences 未解析的外部引用；非空时记录不完整
	MissingReferences() []string
}

// ExistingRecord 已存储记录的 ID 与自然键
type ExistingRecord = model.KeyRef

// variantRecord 同一自然键下可并存多条记录的类型（code|name 合并的课程）
type variantRecord interface {
	Variant() string
}

func variantOf[T Record](r T) string {
	if v, ok := any(r).(variantRecord); ok {
		return v.Variant()
	}
	return ""
}

// Warning 不阻断导入的提示
type Warning struct {
	Row     int    `json:"row"`
	Key     string `json:"key"`
	Message string `json:"message"`
}

// Batch 一次导入规范化后的完整记录集
type Batch[T Record] struct {
	Records  []T       `json:"records"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// ── 课程 ──

// DepartmentAllocation 院系选课人数，按 (Department, StudentCount) 去重
type DepartmentAllocation struct {
	Department   string `json:"department"`
	StudentCount int    `json:"student_count"`
}

// SessionSpec 课时构成，按 (Type, Hours) 去重
type SessionSpec struct {
	Type  model.CourseType `json:"type"`
	Hours int              `json:"hours"`
}

// CanonicalCourse 规范化后的课程
type CanonicalCourse struct {
	Code        string                 `json:"code"`
	Name        string                 `json:"name"`
	TeacherID   int64                  `json:"teacher_id"`
	TeacherName string                 `json:"teacher_name"`
	Faculty     string                 `json:"faculty,omitempty"`
	Level       string                 `json:"level,omitempty"`
	Type        model.CourseType       `json:"type"`
	Category    model.CourseCategory   `json:"category"`
	Semester    model.Semester         `json:"semester"`
	ECTS        int                    `json:"ects"`
	IsActive    bool                   `json:"is_active"`
	Departments []DepartmentAllocation `json:"departments"`
	Sessions    []SessionSpec          `json:"sessions"`
	Rows        []int                  `json:"rows"`
	// MergeKey 生成本记录时使用的合并键，决定与已有记录比对时是否区分名称
	MergeKey MergeKey `json:"merge_key"`
}

func (c CanonicalCourse) NaturalKey() string { return strings.ToLower(c.Code) }
func (c CanonicalCourse) DisplayKey() string { return c.Code }

// Variant code|name 合并键下同一代码可能对应多条记录，以名称区分
func (c CanonicalCourse) Variant() string {
	if c.MergeKey == MergeByCodeAndName {
		return c.Name
	}
	return ""
}

func (c CanonicalCourse) MissingReferences() []string {
	if c.TeacherID == 0 {
		return []string{"teacher: " + c.TeacherName}
	}
	return nil
}

// ── 教师 ──

// AvailabilityWindow 某个工作日的可授课区间
type AvailabilityWindow struct {
	Day   model.Day `json:"day"`
	Start string    `json:"start"`
	End   string    `json:"end"`
}

// CanonicalTeacher 规范化后的教师
type CanonicalTeacher struct {
	Name         string               `json:"name"`
	Email        string               `json:"email"`
	Faculty      string               `json:"faculty,omitempty"`
	Department   string               `json:"department,omitempty"`
	Availability []AvailabilityWindow `json:"availability,omitempty"`
	Row          int                  `json:"row"`
}

func (t CanonicalTeacher) NaturalKey() string          { return strings.ToLower(t.Email) }
func (t CanonicalTeacher) DisplayKey() string          { return t.Email }
func (t CanonicalTeacher) MissingReferences() []string { return nil }

// ── 教室 ──

// CanonicalClassroom 规范化后的教室
type CanonicalClassroom struct {
	Name       string           `json:"name"`
	Capacity   int              `json:"capacity"`
	Type       model.CourseType `json:"type"`
	Faculty    string           `json:"faculty,omitempty"`
	Department string           `json:"department,omitempty"`
	Row        int              `json:"row"`
}

func (c CanonicalClassroom) NaturalKey() string          { return strings.ToLower(c.Name) }
func (c CanonicalClassroom) DisplayKey() string          { return c.Name }
func (c CanonicalClassroom) MissingReferences() []string { return nil }
