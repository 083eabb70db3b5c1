package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-scheduler/internal/model"
)

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	// ListKeys 返回 (ID, 代码, 名称)，用于导入冲突检测
	ListKeys(ctx context.Context) ([]model.KeyRef, error)
	GetByID(ctx context.Context, id int64) (*model.Course, error)
	List(ctx context.Context) ([]model.Course, error)
	// Create 连同院系分配与课时一并创建
	Create(ctx context.Context, course *model.Course) error
	// Update 更新标量字段并整体替换院系分配与课时
	Update(ctx context.Context, course *model.Course) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) ListKeys(ctx context.Context) ([]model.KeyRef, error) {
	var keys []model.KeyRef
	err := r.db.WithContext(ctx).Model(&model.Course{}).
		Select("course_id AS id, code AS key, name AS variant").
		Order("course_id ASC").
		Scan(&keys).Error
	return keys, err
}

func (r *courseRepo) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Preload("Departments").
		Preload("Sessions").
		Where("course_id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) List(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Preload("Departments").
		Preload("Sessions").
		Order("code ASC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Omit("Teacher").Create(course).Error
}

func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Course{}).
			Where("course_id = ?", course.CourseID).
			Updates(map[string]interface{}{
				"code":       course.Code,
				"name":       course.Name,
				"teacher_id": course.TeacherID,
				"faculty":    course.Faculty,
				"level":      course.Level,
				"type":       course.Type,
				"category":   course.Category,
				"semester":   course.Semester,
				"ects":       course.ECTS,
				"is_active":  course.IsActive,
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		// 子集合整体替换：重复导入不会累积旧数据
		if err := tx.Where("course_id = ?", course.CourseID).Delete(&model.CourseDepartment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.CourseID).Delete(&model.CourseSession{}).Error; err != nil {
			return err
		}
		for i := range course.Departments {
			course.Departments[i].CourseDepartmentID = 0
			course.Departments[i].CourseID = course.CourseID
		}
		for i := range course.Sessions {
			course.Sessions[i].CourseSessionID = 0
			course.Sessions[i].CourseID = course.CourseID
		}
		if len(course.Departments) > 0 {
			if err := tx.Create(&course.Departments).Error; err != nil {
				return err
			}
		}
		if len(course.Sessions) > 0 {
			if err := tx.Create(&course.Sessions).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
