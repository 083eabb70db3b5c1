package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-scheduler/internal/model"
)

// TeacherRepository 教师数据访问接口
type TeacherRepository interface {
	// ListKeys 返回 (ID, 邮箱)，用于导入冲突检测
	ListKeys(ctx context.Context) ([]model.KeyRef, error)
	// ListNames 返回 (ID, 姓名)，用于构建教师目录
	ListNames(ctx context.Context) ([]model.KeyRef, error)
	GetByID(ctx context.Context, id int64) (*model.Teacher, error)
	List(ctx context.Context) ([]model.Teacher, error)
	Create(ctx context.Context, teacher *model.Teacher) error
	// Update 更新标量字段并整体替换可授课时间
	Update(ctx context.Context, teacher *model.Teacher) error
}

type teacherRepo struct {
	db *gorm.DB
}

// NewTeacherRepo 创建 TeacherRepository 实例
func NewTeacherRepo(db *gorm.DB) TeacherRepository {
	return &teacherRepo{db: db}
}

func (r *teacherRepo) ListKeys(ctx context.Context) ([]model.KeyRef, error) {
	var keys []model.KeyRef
	err := r.db.WithContext(ctx).Model(&model.Teacher{}).
		Select("teacher_id AS id, email AS key").
		Order("teacher_id ASC").
		Scan(&keys).Error
	return keys, err
}

func (r *teacherRepo) ListNames(ctx context.Context) ([]model.KeyRef, error) {
	var keys []model.KeyRef
	err := r.db.WithContext(ctx).Model(&model.Teacher{}).
		Select("teacher_id AS id, name AS key").
		Order("teacher_id ASC").
		Scan(&keys).Error
	return keys, err
}

func (r *teacherRepo) GetByID(ctx context.Context, id int64) (*model.Teacher, error) {
	var teacher model.Teacher
	err := r.db.WithContext(ctx).
		Preload("Availability", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC, start_time ASC")
		}).
		Where("teacher_id = ?", id).
		First(&teacher).Error
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *teacherRepo) List(ctx context.Context) ([]model.Teacher, error) {
	var teachers []model.Teacher
	err := r.db.WithContext(ctx).
		Preload("Availability").
		Order("name ASC").
		Find(&teachers).Error
	return teachers, err
}

func (r *teacherRepo) Create(ctx context.Context, teacher *model.Teacher) error {
	return r.db.WithContext(ctx).Create(teacher).Error
}

func (r *teacherRepo) Update(ctx context.Context, teacher *model.Teacher) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Teacher{}).
			Where("teacher_id = ?", teacher.TeacherID).
			Updates(map[string]interface{}{
				"name":       teacher.Name,
				"email":      teacher.Email,
				"faculty":    teacher.Faculty,
				"department": teacher.Department,
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		// 硬删除旧时间段后重建，保证重复导入结果一致
		if err := tx.Where("teacher_id = ?", teacher.TeacherID).
			Delete(&model.TeacherAvailability{}).Error; err != nil {
			return err
		}
		if len(teacher.Availability) == 0 {
			return nil
		}
		for i := range teacher.Availability {
			teacher.Availability[i].TeacherAvailabilityID = 0
			teacher.Availability[i].TeacherID = teacher.TeacherID
		}
		return tx.Create(&teacher.Availability).Error
	})
}
