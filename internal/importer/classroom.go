package importer

import (
	"campus-scheduler/internal/model"
)

var (
	classroomName       = field{"name", []string{"Derslik Adı/Numarası", "Derslik Adı", "name"}}
	classroomCapacity   = field{"capacity", []string{"Kapasite", "capacity"}}
	classroomType       = field{"type", []string{"Tür", "type"}}
	classroomFaculty    = field{"faculty", []string{"Fakülte", "faculty"}}
	classroomDepartment = field{"department", []string{"Bölüm", "department"}}
)

// NormalizeClassrooms 一行即一间教室；同一批次内名称重复（忽略大小写）视为行错误
func NormalizeClassrooms(rows []RawRow) (*Batch[CanonicalClassroom], error) {
	batch := &Batch[CanonicalClassroom]{}
	seen := make(map[string]int)
	for i, raw := range rows {
		c, rerr := parseClassroomRow(raw, DisplayRow(i))
		if rerr != nil {
			return nil, rerr
		}
		if first, dup := seen[c.NaturalKey()]; dup {
			return nil, &RowError{
				Row: c.Row, Field: classroomName.label(), Value: c.Name,
				Message: "与第 " + itoa(first) + " 行教室重名",
			}
		}
		seen[c.NaturalKey()] = c.Row
		batch.Records = append(batch.Records, c)
	}
	return batch, nil
}

func parseClassroomRow(raw RawRow, row int) (CanonicalClassroom, *RowError) {
	c := CanonicalClassroom{Row: row}

	var rerr *RowError
	if c.Name, rerr = raw.required(row, classroomName); rerr != nil {
		return c, rerr
	}
	capRaw, rerr := raw.required(row, classroomCapacity)
	if rerr != nil {
		return c, rerr
	}
	n, ok := parseInt(capRaw)
	if !ok || n < 0 {
		return c, &RowError{Row: row, Field: classroomCapacity.label(), Value: capRaw, Message: "应为非负整数"}
	}
	c.Capacity = n
	if c.Type, rerr = mapVocab(courseTypeVocab, row, classroomType, raw.optional(classroomType), model.CourseTypeTheory); rerr != nil {
		return c, rerr
	}
	c.Faculty = raw.optional(classroomFaculty)
	c.Department = raw.optional(classroomDepartment)
	return c, nil
}
