package importer

import (
	"fmt"
	"strings"

	"campus-scheduler/internal/model"
)

// ── 课程表头 ──

var (
	courseName         = field{"name", []string{"Ders Adı", "name"}}
	courseCode         = field{"code", []string{"Ders Kodu", "code"}}
	courseTeacher      = field{"teacher", []string{"Öğretmen Adı", "teacher"}}
	courseFaculty      = field{"faculty", []string{"Fakülte", "faculty"}}
	courseLevel        = field{"level", []string{"Seviye", "level"}}
	courseType         = field{"type", []string{"Tür", "Oturum Türü", "type"}}
	courseCategory     = field{"category", []string{"Kategori", "category"}}
	courseSemester     = field{"semester", []string{"Dönem", "semester"}}
	courseECTS         = field{"ects", []string{"AKTS", "ects"}}
	courseActive       = field{"is_active", []string{"Durum", "is_active"}}
	courseSessionType  = field{"session_type", []string{"Oturum Türü", "session_type"}}
	courseSessionHours = field{"session_hours", []string{"Oturum Saati", "session_hours"}}
	courseDepartment   = field{"department", []string{"Bölüm", "department"}}
	courseStudents     = field{"student_count", []string{"Öğrenci Sayısı", "student_count"}}
)

// MergeKey 课程行合并键
type MergeKey int

const (
	// MergeByCodeAndName 按 code|name 精确合并（兼容旧数据）
	MergeByCodeAndName MergeKey = iota
	// MergeByCode 仅按代码合并（大小写不敏感），名称不一致时给出警告
	MergeByCode
)

// ParseMergeKey 解析配置值 code_name | code
func ParseMergeKey(s string) (MergeKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "code_name", "code|name":
		return MergeByCodeAndName, nil
	case "code":
		return MergeByCode, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMergeBy, s)
}

func (k MergeKey) String() string {
	if k == MergeByCode {
		return "code"
	}
	return "code_name"
}

// CourseOptions 课程规范化选项
type CourseOptions struct {
	MergeKey MergeKey
}

// courseFragment 单行解析结果：标量字段 + 至多一个院系分配 + 至多一个课时
type courseFragment struct {
	row        int
	course     CanonicalCourse
	department *DepartmentAllocation
	session    *SessionSpec
}

// NormalizeCourses 将原始行规范化为课程记录。
// 遇到首个非法行即整批失败（返回 *RowError），不暴露部分结果。
func NormalizeCourses(rows []RawRow, teachers TeacherResolver, opts CourseOptions) (*Batch[CanonicalCourse], error) {
	fragments := make([]courseFragment, 0, len(rows))
	for i, raw := range rows {
		frag, rerr := parseCourseRow(raw, DisplayRow(i), teachers)
		if rerr != nil {
			return nil, rerr
		}
		fragments = append(fragments, frag)
	}

	keyOf := func(f courseFragment) string { return f.course.Code + "|" + f.course.Name }
	if opts.MergeKey == MergeByCode {
		keyOf = func(f courseFragment) string { return strings.ToLower(f.course.Code) }
	}

	batch := &Batch[CanonicalCourse]{}
	for _, g := range groupOrdered(fragments, keyOf) {
		course, warnings := mergeCourse(g.values)
		course.MergeKey = opts.MergeKey
		batch.Records = append(batch.Records, course)
		batch.Warnings = append(batch.Warnings, warnings...)
	}
	batch.Warnings = append(batch.Warnings, sharedCodeWarnings(batch.Records)...)
	return batch, nil
}

func parseCourseRow(raw RawRow, row int, teachers TeacherResolver) (courseFragment, *RowError) {
	frag := courseFragment{row: row}
	c := &frag.course

	var rerr *RowError
	if c.Code, rerr = raw.required(row, courseCode); rerr != nil {
		return frag, rerr
	}
	if c.Name, rerr = raw.required(row, courseName); rerr != nil {
		return frag, rerr
	}
	if c.TeacherName, rerr = raw.required(row, courseTeacher); rerr != nil {
		return frag, rerr
	}
	// 教师未命中不在此处报错，由提交前闸门统一收集
	if teachers != nil {
		c.TeacherID, _ = teachers.ResolveTeacherID(c.TeacherName)
	}

	c.Faculty = raw.optional(courseFaculty)
	c.Level = raw.optional(courseLevel)

	if c.Type, rerr = mapVocab(courseTypeVocab, row, courseType, raw.optional(courseType), model.CourseTypeTheory); rerr != nil {
		return frag, rerr
	}
	if c.Category, rerr = mapVocab(categoryVocab, row, courseCategory, raw.optional(courseCategory), model.CategoryMandatory); rerr != nil {
		return frag, rerr
	}
	if c.Semester, rerr = mapVocab(semesterVocab, row, courseSemester, raw.optional(courseSemester), model.SemesterFall); rerr != nil {
		return frag, rerr
	}
	if c.IsActive, rerr = mapVocab(activeVocab, row, courseActive, raw.optional(courseActive), true); rerr != nil {
		return frag, rerr
	}
	if c.ECTS, rerr = raw.intField(row, courseECTS, 0); rerr != nil {
		return frag, rerr
	}

	// 院系分配
	if dept := raw.optional(courseDepartment); dept != "" {
		students, rerr := raw.intField(row, courseStudents, 0)
		if rerr != nil {
			return frag, rerr
		}
		frag.department = &DepartmentAllocation{Department: dept, StudentCount: students}
	}

	// 课时
	if hoursRaw := raw.optional(courseSessionHours); hoursRaw != "" {
		hours, ok := parseInt(hoursRaw)
		if !ok || hours <= 0 {
			return frag, &RowError{Row: row, Field: courseSessionHours.label(), Value: hoursRaw, Message: "应为正整数"}
		}
		st, rerr := mapVocab(courseTypeVocab, row, courseSessionType, raw.optional(courseSessionType), c.Type)
		if rerr != nil {
			return frag, rerr
		}
		frag.session = &SessionSpec{Type: st, Hours: hours}
	}

	return frag, nil
}

// mergeCourse 组内首行提供标量字段，子列表按首次出现顺序去重
func mergeCourse(frags []courseFragment) (CanonicalCourse, []Warning) {
	out := frags[0].course
	out.Departments = []DepartmentAllocation{}
	out.Sessions = []SessionSpec{}
	out.Rows = nil

	var warnings []Warning
	for _, f := range frags {
		out.Rows = append(out.Rows, f.row)
		if f.department != nil {
			out.Departments = appendUnique(out.Departments, *f.department)
		}
		if f.session != nil {
			out.Sessions = appendUnique(out.Sessions, *f.session)
		}
		if f.course.Name != out.Name {
			warnings = append(warnings, Warning{
				Row: f.row, Key: out.Code,
				Message: fmt.Sprintf("课程名称 %q 与首行 %q 不一致，已采用首行", f.course.Name, out.Name),
			})
		}
		if !strings.EqualFold(f.course.TeacherName, out.TeacherName) {
			warnings = append(warnings, Warning{
				Row: f.row, Key: out.Code,
				Message: fmt.Sprintf("授课教师 %q 与首行 %q 不一致，已采用首行", f.course.TeacherName, out.TeacherName),
			})
		}
	}
	return out, warnings
}

// sharedCodeWarnings 同一代码（忽略大小写）产生了多条记录
func sharedCodeWarnings(courses []CanonicalCourse) []Warning {
	var warnings []Warning
	for _, g := range groupOrdered(courses, CanonicalCourse.NaturalKey) {
		if len(g.values) < 2 {
			continue
		}
		names := make([]string, 0, len(g.values))
		for _, c := range g.values {
			names = append(names, fmt.Sprintf("%q", c.Name))
		}
		first := g.values[0]
		warnings = append(warnings, Warning{
			Row: first.Rows[0], Key: first.Code,
			Message: fmt.Sprintf("课程代码对应多个名称 %s，已生成 %d 条记录", strings.Join(names, ", "), len(g.values)),
		})
	}
	return warnings
}
