package dto

import "campus-scheduler/internal/grid"

// ── 周课表网格 DTO ──

// GridQuery 网格查询参数，零值表示不过滤
type GridQuery struct {
	CourseID    int64 `form:"course_id"    binding:"omitempty,min=1"`
	ClassroomID int64 `form:"classroom_id" binding:"omitempty,min=1"`
	TeacherID   int64 `form:"teacher_id"   binding:"omitempty,min=1"`
}

// CalendarQuery ICS 导出参数
type CalendarQuery struct {
	GridQuery
	WeekStart string `form:"week_start"` // "2006-01-02"，须为周一；空值取本周一
}

// SlotResponse 时间格
type SlotResponse struct {
	Index int    `json:"index"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// DayColumn 某个工作日的所有时间格；Cells[i] 为第 i 格中的条目 ID（按输入顺序）
type DayColumn struct {
	Day   int       `json:"day"`
	Name  string    `json:"name"`
	Cells [][]int64 `json:"cells"`
}

// SkippedEntryResponse 未放入网格的条目
type SkippedEntryResponse struct {
	EntryID   int64  `json:"entry_id"`
	TimeRange string `json:"time_range"`
	Reason    string `json:"reason"`
}

// GridResponse 编译后的周课表
type GridResponse struct {
	Slots      []SlotResponse         `json:"slots"`
	Days       []DayColumn            `json:"days"`
	Placements []grid.Placement       `json:"placements"`
	Skipped    []SkippedEntryResponse `json:"skipped"`
}
