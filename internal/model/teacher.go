package model

// Teacher 教师表 — 对应 teachers
type Teacher struct {
	TeacherID  int64  `gorm:"primaryKey;autoIncrement"          json:"teacher_id"`
	Name       string `gorm:"type:varchar(100);not null"        json:"name"`
	Email      string `gorm:"type:varchar(255);not null;unique" json:"email"`
	Faculty    string `gorm:"type:varchar(100)"                 json:"faculty,omitempty"`
	Department string `gorm:"type:varchar(100)"                 json:"department,omitempty"`
	SoftDeleteModel

	// 关联
	Availability []TeacherAvailability `gorm:"foreignKey:TeacherID;references:TeacherID;constraint:OnDelete:CASCADE" json:"availability,omitempty"`
}

// TableName 指定表名
func (Teacher) TableName() string { return "teachers" }

// TeacherAvailability 教师可授课时间 — 对应 teacher_availabilities
type TeacherAvailability struct {
	TeacherAvailabilityID int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	TeacherID             int64  `gorm:"not null;index"           json:"teacher_id"`
	DayOfWeek             int    `gorm:"type:smallint;not null"   json:"day_of_week"` // 1-5
	StartTime             string `gorm:"type:time;not null"       json:"start_time"`
	EndTime               string `gorm:"type:time;not null"       json:"end_time"`
}

// TableName 指定表名
func (TeacherAvailability) TableName() string { return "teacher_availabilities" }
