package importer

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"campus-scheduler/internal/model"
)

var (
	teacherName       = field{"name", []string{"Ad", "Ad Soyad", "Name", "Adı Soyadı"}}
	teacherEmail      = field{"email", []string{"E-posta", "Eposta", "E-Mail", "Email"}}
	teacherFaculty    = field{"faculty", []string{"Fakülte", "faculty"}}
	teacherDepartment = field{"department", []string{"Bölüm", "department"}}
)

// dayFields 每个工作日一列，土耳其语名称优先
var dayFields = func() map[model.Day]field {
	m := make(map[model.Day]field, len(model.WorkingDays))
	for _, d := range model.WorkingDays {
		m[d] = field{name: d.EnglishName(), synonyms: d.Aliases()}
	}
	return m
}()

// NormalizeTeachers 一行即一名教师；同一批次内邮箱重复视为行错误
func NormalizeTeachers(rows []RawRow) (*Batch[CanonicalTeacher], error) {
	batch := &Batch[CanonicalTeacher]{}
	seen := make(map[string]int)
	for i, raw := range rows {
		t, rerr := parseTeacherRow(raw, DisplayRow(i))
		if rerr != nil {
			return nil, rerr
		}
		if first, dup := seen[t.NaturalKey()]; dup {
			return nil, &RowError{
				Row: t.Row, Field: teacherEmail.label(), Value: t.Email,
				Message: "与第 " + itoa(first) + " 行邮箱重复",
			}
		}
		seen[t.NaturalKey()] = t.Row
		batch.Records = append(batch.Records, t)
	}
	return batch, nil
}

func parseTeacherRow(raw RawRow, row int) (CanonicalTeacher, *RowError) {
	t := CanonicalTeacher{Row: row}

	var rerr *RowError
	if t.Name, rerr = raw.required(row, teacherName); rerr != nil {
		return t, rerr
	}
	email, rerr := raw.required(row, teacherEmail)
	if rerr != nil {
		return t, rerr
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return t, &RowError{Row: row, Field: teacherEmail.label(), Value: email, Message: "邮箱格式无效"}
	}
	t.Email = strings.ToLower(email)
	t.Faculty = raw.optional(teacherFaculty)
	t.Department = raw.optional(teacherDepartment)

	for _, d := range model.WorkingDays {
		windows, rerr := parseAvailability(raw, row, d)
		if rerr != nil {
			return t, rerr
		}
		t.Availability = append(t.Availability, windows...)
	}
	return t, nil
}

// parseAvailability 单元格为逗号分隔的 "HH:MM-HH:MM" 区间或 "HH:MM" 时间格起点（一个 30 分钟格）
func parseAvailability(raw RawRow, row int, day model.Day) ([]AvailabilityWindow, *RowError) {
	f := dayFields[day]
	cell := raw.optional(f)
	if cell == "" {
		return nil, nil
	}

	var out []AvailabilityWindow
	for _, token := range strings.Split(cell, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		iv, err := parseWindow(token)
		if err != nil {
			return nil, &RowError{Row: row, Field: f.label(), Value: token, Message: err.Error()}
		}
		out = appendUnique(out, AvailabilityWindow{Day: day, Start: iv.Start.String(), End: iv.End.String()})
	}
	return out, nil
}

func parseWindow(token string) (model.Interval, error) {
	if strings.ContainsAny(token, "-–") {
		return model.ParseInterval(token)
	}
	start, err := model.ParseClock(token)
	if err != nil {
		return model.Interval{}, err
	}
	end := start.Add(model.SlotMinutes * time.Minute)
	if end > model.EndOfDay {
		return model.Interval{}, fmt.Errorf("%w: 时间格 %s 起超出当天", model.ErrInvalidTimeRange, token)
	}
	return model.Interval{Start: start, End: end}, nil
}
