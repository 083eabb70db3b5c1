package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-scheduler/internal/model"
)

// ScheduleEntryFilter 课表条目查询条件，零值表示不过滤
type ScheduleEntryFilter struct {
	CourseID    int64
	ClassroomID int64
	TeacherID   int64
}

// ScheduleEntryRepository 周课表条目数据访问接口
type ScheduleEntryRepository interface {
	// List 预加载课程（含院系分配）与教室
	List(ctx context.Context, filter ScheduleEntryFilter) ([]model.ScheduleEntry, error)
	GetByID(ctx context.Context, id int64) (*model.ScheduleEntry, error)
	Create(ctx context.Context, entry *model.ScheduleEntry) error
	Delete(ctx context.Context, id int64) error
}

type scheduleEntryRepo struct {
	db *gorm.DB
}

// NewScheduleEntryRepo 创建 ScheduleEntryRepository 实例
func NewScheduleEntryRepo(db *gorm.DB) ScheduleEntryRepository {
	return &scheduleEntryRepo{db: db}
}

func (r *scheduleEntryRepo) List(ctx context.Context, filter ScheduleEntryFilter) ([]model.ScheduleEntry, error) {
	q := r.db.WithContext(ctx).
		Preload("Course.Departments").
		Preload("Classroom")
	if filter.CourseID > 0 {
		q = q.Where("schedule_entries.course_id = ?", filter.CourseID)
	}
	if filter.ClassroomID > 0 {
		q = q.Where("schedule_entries.classroom_id = ?", filter.ClassroomID)
	}
	if filter.TeacherID > 0 {
		q = q.Joins("JOIN courses ON courses.course_id = schedule_entries.course_id").
			Where("courses.teacher_id = ?", filter.TeacherID)
	}

	var entries []model.ScheduleEntry
	err := q.Order("day_of_week ASC, start_time ASC, schedule_entry_id ASC").Find(&entries).Error
	return entries, err
}

func (r *scheduleEntryRepo) GetByID(ctx context.Context, id int64) (*model.ScheduleEntry, error) {
	var entry model.ScheduleEntry
	err := r.db.WithContext(ctx).
		Preload("Course.Departments").
		Preload("Classroom").
		Where("schedule_entry_id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *scheduleEntryRepo) Create(ctx context.Context, entry *model.ScheduleEntry) error {
	return r.db.WithContext(ctx).Omit("Course", "Classroom").Create(entry).Error
}

func (r *scheduleEntryRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("schedule_entry_id = ?", id).Delete(&model.ScheduleEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
