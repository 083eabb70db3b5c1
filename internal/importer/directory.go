package importer

import (
	"strings"

	"campus-scheduler/internal/model"
)

// TeacherResolver 教师姓名 → ID 查找
type TeacherResolver interface {
	ResolveTeacherID(name string) (int64, bool)
}

// TeacherDirectory 内存中的教师目录。姓名精确匹配，大小写（含土耳其语 I/ı）不敏感；重名时先出现者优先
type TeacherDirectory struct {
	byName map[string]int64
}

// NewTeacherDirectory 由 (ID, 姓名) 列表构建目录
func NewTeacherDirectory(entries []model.KeyRef) *TeacherDirectory {
	d := &TeacherDirectory{byName: make(map[string]int64, len(entries))}
	for _, e := range entries {
		key := directoryKey(e.Key)
		if _, exists := d.byName[key]; !exists {
			d.byName[key] = e.ID
		}
	}
	return d
}

func (d *TeacherDirectory) ResolveTeacherID(name string) (int64, bool) {
	if d == nil {
		return 0, false
	}
	id, ok := d.byName[directoryKey(name)]
	return id, ok
}

func directoryKey(name string) string {
	return strings.Join(strings.Fields(model.Fold(name)), " ")
}

// ResolveTeachers 按当前目录重新解析教师；未命中时 TeacherID 归零，由提交前闸门统一报告
func ResolveTeachers(courses []CanonicalCourse, teachers TeacherResolver) {
	for i := range courses {
		var id int64
		if teachers != nil {
			id, _ = teachers.ResolveTeacherID(courses[i].TeacherName)
		}
		courses[i].TeacherID = id
	}
}
