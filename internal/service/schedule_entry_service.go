package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-scheduler/internal/dto"
	"campus-scheduler/internal/model"
	"campus-scheduler/internal/repository"
)

// ── 课表条目模块业务错误 ──

var (
	ErrEntryNotFound          = errors.New("课表条目不存在")
	ErrEntryInvalidDay        = errors.New("星期无效，应为周一至周五")
	ErrEntryInvalidTimeRange  = errors.New("时间段格式无效，应为 HH:MM-HH:MM 且结束晚于开始")
	ErrEntryCourseNotFound    = errors.New("课程不存在")
	ErrEntryClassroomNotFound = errors.New("教室不存在")
)

// ScheduleEntryService 课表条目人工编辑接口
//
// 时间段使用与网格编译相同的解析规则，保证写入的条目都能被编译。
// 条目之间的冲突不做检测。
type ScheduleEntryService interface {
	List(ctx context.Context, req *dto.ScheduleEntryListRequest) ([]dto.ScheduleEntryResponse, error)
	Create(ctx context.Context, req *dto.CreateScheduleEntryRequest) (*dto.ScheduleEntryResponse, error)
	Delete(ctx context.Context, id int64) error
}

type scheduleEntryService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewScheduleEntryService 创建 ScheduleEntryService 实例
func NewScheduleEntryService(repo *repository.Repository, logger *zap.Logger) ScheduleEntryService {
	return &scheduleEntryService{repo: repo, logger: logger}
}

func (s *scheduleEntryService) List(ctx context.Context, req *dto.ScheduleEntryListRequest) ([]dto.ScheduleEntryResponse, error) {
	entries, err := s.repo.ScheduleEntry.List(ctx, repository.ScheduleEntryFilter{
		CourseID:    req.CourseID,
		ClassroomID: req.ClassroomID,
		TeacherID:   req.TeacherID,
	})
	if err != nil {
		s.logger.Error("查询课表条目失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.ScheduleEntryResponse, 0, len(entries))
	for i := range entries {
		list = append(list, toScheduleEntryResponse(&entries[i]))
	}
	return list, nil
}

func (s *scheduleEntryService) Create(ctx context.Context, req *dto.CreateScheduleEntryRequest) (*dto.ScheduleEntryResponse, error) {
	day, err := model.ParseDay(req.Day)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrEntryInvalidDay, req.Day)
	}
	iv, err := model.ParseInterval(req.TimeRange)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrEntryInvalidTimeRange, req.TimeRange)
	}

	course, err := s.repo.Course.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryCourseNotFound
		}
		return nil, err
	}
	classroom, err := s.repo.Classroom.GetByID(ctx, req.ClassroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryClassroomNotFound
		}
		return nil, err
	}

	entry := &model.ScheduleEntry{
		DayOfWeek:   int(day),
		StartTime:   iv.Start.String(),
		EndTime:     iv.End.String(),
		CourseID:    course.CourseID,
		ClassroomID: classroom.ClassroomID,
	}
	if err := s.repo.ScheduleEntry.Create(ctx, entry); err != nil {
		s.logger.Error("创建课表条目失败", zap.Error(err))
		return nil, err
	}
	entry.Course = course
	entry.Classroom = classroom

	s.logger.Info("课表条目已创建",
		zap.Int64("entry_id", entry.ScheduleEntryID),
		zap.String("course", course.Code),
		zap.String("classroom", classroom.Name),
		zap.String("slot", day.String()+" "+iv.String()),
	)
	resp := toScheduleEntryResponse(entry)
	return &resp, nil
}

func (s *scheduleEntryService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.ScheduleEntry.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEntryNotFound
		}
		s.logger.Error("删除课表条目失败", zap.Int64("entry_id", id), zap.Error(err))
		return err
	}
	return nil
}

func toScheduleEntryResponse(e *model.ScheduleEntry) dto.ScheduleEntryResponse {
	resp := dto.ScheduleEntryResponse{
		ID:          e.ScheduleEntryID,
		DayOfWeek:   e.DayOfWeek,
		DayName:     model.Day(e.DayOfWeek).String(),
		TimeRange:   e.TimeRange(),
		CourseID:    e.CourseID,
		ClassroomID: e.ClassroomID,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
	if e.Course != nil {
		resp.CourseCode = e.Course.Code
		resp.CourseName = e.Course.Name
	}
	if e.Classroom != nil {
		resp.ClassroomName = e.Classroom.Name
	}
	return resp
}
