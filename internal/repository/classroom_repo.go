package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-scheduler/internal/model"
)

// ClassroomRepository 教室数据访问接口
type ClassroomRepository interface {
	// ListKeys 返回 (ID, 名称)，用于导入冲突检测
	ListKeys(ctx context.Context) ([]model.KeyRef, error)
	GetByID(ctx context.Context, id int64) (*model.Classroom, error)
	List(ctx context.Context) ([]model.Classroom, error)
	Create(ctx context.Context, classroom *model.Classroom) error
	Update(ctx context.Context, classroom *model.Classroom) error
}

type classroomRepo struct {
	db *gorm.DB
}

// NewClassroomRepo 创建 ClassroomRepository 实例
func NewClassroomRepo(db *gorm.DB) ClassroomRepository {
	return &classroomRepo{db: db}
}

func (r *classroomRepo) ListKeys(ctx context.Context) ([]model.KeyRef, error) {
	var keys []model.KeyRef
	err := r.db.WithContext(ctx).Model(&model.Classroom{}).
		Select("classroom_id AS id, name AS key").
		Order("classroom_id ASC").
		Scan(&keys).Error
	return keys, err
}

func (r *classroomRepo) GetByID(ctx context.Context, id int64) (*model.Classroom, error) {
	var classroom model.Classroom
	if err := r.db.WithContext(ctx).Where("classroom_id = ?", id).First(&classroom).Error; err != nil {
		return nil, err
	}
	return &classroom, nil
}

func (r *classroomRepo) List(ctx context.Context) ([]model.Classroom, error) {
	var classrooms []model.Classroom
	err := r.db.WithContext(ctx).Order("name ASC").Find(&classrooms).Error
	return classrooms, err
}

func (r *classroomRepo) Create(ctx context.Context, classroom *model.Classroom) error {
	return r.db.WithContext(ctx).Create(classroom).Error
}

func (r *classroomRepo) Update(ctx context.Context, classroom *model.Classroom) error {
	res := r.db.WithContext(ctx).Model(&model.Classroom{}).
		Where("classroom_id = ?", classroom.ClassroomID).
		Updates(map[string]interface{}{
			"name":       classroom.Name,
			"capacity":   classroom.Capacity,
			"type":       classroom.Type,
			"faculty":    classroom.Faculty,
			"department": classroom.Department,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
