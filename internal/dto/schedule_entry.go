package dto

// ── 课表条目（人工编辑）DTO ──

// CreateScheduleEntryRequest 新增课表条目
type CreateScheduleEntryRequest struct {
	Day         string `json:"day"          binding:"required"` // "Pazartesi" / "Monday" / "1"
	TimeRange   string `json:"time_range"   binding:"required"` // "09:00-10:30"
	CourseID    int64  `json:"course_id"    binding:"required,min=1"`
	ClassroomID int64  `json:"classroom_id" binding:"required,min=1"`
}

// ScheduleEntryListRequest 条目列表查询参数
type ScheduleEntryListRequest struct {
	GridQuery
}

// ScheduleEntryResponse 课表条目响应
type ScheduleEntryResponse struct {
	ID            int64  `json:"id"`
	DayOfWeek     int    `json:"day_of_week"`
	DayName       string `json:"day_name"`
	TimeRange     string `json:"time_range"`
	CourseID      int64  `json:"course_id"`
	CourseCode    string `json:"course_code,omitempty"`
	CourseName    string `json:"course_name,omitempty"`
	ClassroomID   int64  `json:"classroom_id"`
	ClassroomName string `json:"classroom_name,omitempty"`
	CreatedAt     string `json:"created_at"`
}
