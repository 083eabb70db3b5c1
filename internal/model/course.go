package model

// ── 课程枚举 ──

// CourseType 课程 / 课时类型
type CourseType string

const (
	CourseTypeTheory CourseType = "theory"
	CourseTypeLab    CourseType = "lab"
)

// CourseCategory 课程类别
type CourseCategory string

const (
	CategoryMandatory CourseCategory = "mandatory"
	CategoryElective  CourseCategory = "elective"
)

// Semester 开课学期
type Semester string

const (
	SemesterFall   Semester = "fall"
	SemesterSpring Semester = "spring"
	SemesterSummer Semester = "summer"
	SemesterWinter Semester = "winter"
)

// Course 课程表 — 对应 courses
type Course struct {
	CourseID  int64          `gorm:"primaryKey;autoIncrement"                  json:"course_id"`
	Code      string         `gorm:"type:varchar(30);not null;index"           json:"code"`
	Name      string         `gorm:"type:varchar(200);not null"                json:"name"`
	TeacherID int64          `gorm:"not null;index"                            json:"teacher_id"`
	Faculty   string         `gorm:"type:varchar(100)"                         json:"faculty,omitempty"`
	Level     string         `gorm:"type:varchar(50)"                          json:"level,omitempty"`
	Type      CourseType     `gorm:"type:varchar(20);not null;default:'theory'" json:"type"`
	Category  CourseCategory `gorm:"type:varchar(20);not null"                 json:"category"`
	Semester  Semester       `gorm:"type:varchar(20);not null"                 json:"semester"`
	ECTS      int            `gorm:"column:ects;not null;default:0"            json:"ects"`
	IsActive  bool           `gorm:"not null;default:true"                     json:"is_active"`
	SoftDeleteModel

	// 关联
	Teacher     *Teacher           `gorm:"foreignKey:TeacherID;references:TeacherID"                            json:"teacher,omitempty"`
	Departments []CourseDepartment `gorm:"foreignKey:CourseID;references:CourseID;constraint:OnDelete:CASCADE" json:"departments,omitempty"`
	Sessions    []CourseSession    `gorm:"foreignKey:CourseID;references:CourseID;constraint:OnDelete:CASCADE" json:"sessions,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// StudentCount 各院系选课人数之和
func (c *Course) StudentCount() int {
	total := 0
	for _, d := range c.Departments {
		total += d.StudentCount
	}
	return total
}

// CourseDepartment 课程-院系分配 — 对应 course_departments
type CourseDepartment struct {
	CourseDepartmentID int64  `gorm:"primaryKey;autoIncrement"   json:"id"`
	CourseID           int64  `gorm:"not null;index"             json:"course_id"`
	Department         string `gorm:"type:varchar(100);not null" json:"department"`
	StudentCount       int    `gorm:"not null;default:0"         json:"student_count"`
}

// TableName 指定表名
func (CourseDepartment) TableName() string { return "course_departments" }

// CourseSession 课程课时构成 — 对应 course_sessions
type CourseSession struct {
	CourseSessionID int64      `gorm:"primaryKey;autoIncrement"  json:"id"`
	CourseID        int64      `gorm:"not null;index"            json:"course_id"`
	Type            CourseType `gorm:"type:varchar(20);not null" json:"type"`
	Hours           int        `gorm:"not null"                  json:"hours"`
}

// TableName 指定表名
func (CourseSession) TableName() string { return "course_sessions" }
