package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"campus-scheduler/config"
	"campus-scheduler/internal/dto"
	"campus-scheduler/internal/grid"
	"campus-scheduler/internal/model"
	"campus-scheduler/internal/repository"
	"campus-scheduler/pkg/metrics"
)

// GridService 周课表网格业务接口
//
// 只读：从课表条目编译出 工作日 × 时间格 的网格。
// 时间段无效的条目不会使整次编译失败，而是出现在 Skipped 中。
type GridService interface {
	// Compile 按过滤条件加载条目并编译
	Compile(ctx context.Context, query dto.GridQuery) (*grid.WeekGrid, error)
	// GetGrid 编译并转为 API 响应
	GetGrid(ctx context.Context, query dto.GridQuery) (*dto.GridResponse, error)
	// Layout 当前使用的网格布局
	Layout() *grid.Layout
}

type gridService struct {
	compiler *grid.Compiler
	layout   *grid.Layout
	repo     *repository.Repository
	metrics  *metrics.Recorder
	logger   *zap.Logger
}

// NewGridService 创建 GridService 实例
func NewGridService(layout *grid.Layout, repo *repository.Repository, rec *metrics.Recorder, logger *zap.Logger) GridService {
	if layout == nil {
		layout = grid.DefaultLayout
	}
	return &gridService{
		compiler: grid.NewCompiler(layout),
		layout:   layout,
		repo:     repo,
		metrics:  rec,
		logger:   logger,
	}
}

// LayoutFromConfig 按 grid 配置构建布局（config.Validate 已保证参数合法）
func LayoutFromConfig(cfg config.GridConfig) (*grid.Layout, error) {
	start, err := model.ParseClock(cfg.DayStart)
	if err != nil {
		return nil, err
	}
	end, err := model.ParseClock(cfg.DayEnd)
	if err != nil {
		return nil, err
	}
	return grid.NewLayout(start, end, time.Duration(cfg.SlotMinutes)*time.Minute, model.WorkingDays)
}

func (s *gridService) Layout() *grid.Layout { return s.layout }

func (s *gridService) Compile(ctx context.Context, query dto.GridQuery) (*grid.WeekGrid, error) {
	entries, err := s.repo.ScheduleEntry.List(ctx, repository.ScheduleEntryFilter{
		CourseID:    query.CourseID,
		ClassroomID: query.ClassroomID,
		TeacherID:   query.TeacherID,
	})
	if err != nil {
		s.logger.Error("查询课表条目失败", zap.Error(err))
		return nil, err
	}

	g := s.compiler.Compile(toGridEntries(entries))
	if len(g.Skipped) > 0 {
		s.metrics.GridSkipped(len(g.Skipped))
		for _, sk := range g.Skipped {
			s.logger.Warn("课表条目未放入网格", zap.Int64("entry_id", sk.Entry.ID), zap.Error(sk.Err))
		}
	}
	return g, nil
}

func (s *gridService) GetGrid(ctx context.Context, query dto.GridQuery) (*dto.GridResponse, error) {
	g, err := s.Compile(ctx, query)
	if err != nil {
		return nil, err
	}
	return toGridResponse(g), nil
}

// ── 转换 ──

func toGridEntries(entries []model.ScheduleEntry) []grid.Entry {
	out := make([]grid.Entry, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		ge := grid.Entry{
			ID:        e.ScheduleEntryID,
			Day:       model.Day(e.DayOfWeek),
			TimeRange: e.TimeRange(),
			Course:    grid.CourseRef{ID: e.CourseID},
			Classroom: grid.ClassroomRef{ID: e.ClassroomID},
		}
		if e.Course != nil {
			ge.Course.Code = e.Course.Code
			ge.Course.Name = e.Course.Name
			ge.Course.StudentCount = e.Course.StudentCount()
		}
		if e.Classroom != nil {
			ge.Classroom.Name = e.Classroom.Name
			ge.Classroom.Capacity = e.Classroom.Capacity
		}
		out = append(out, ge)
	}
	return out
}

func toGridResponse(g *grid.WeekGrid) *dto.GridResponse {
	layout := g.Layout()
	slots := layout.Slots()

	resp := &dto.GridResponse{
		Slots:      make([]dto.SlotResponse, 0, len(slots)),
		Days:       make([]dto.DayColumn, 0, len(layout.Days())),
		Placements: g.Placements,
		Skipped:    make([]dto.SkippedEntryResponse, 0, len(g.Skipped)),
	}
	for _, slot := range slots {
		resp.Slots = append(resp.Slots, dto.SlotResponse{
			Index: slot.Index,
			Start: slot.Interval.Start.String(),
			End:   slot.Interval.End.String(),
		})
	}
	for _, day := range layout.Days() {
		col := dto.DayColumn{Day: int(day), Name: day.String(), Cells: make([][]int64, len(slots))}
		for i := range slots {
			ids := []int64{}
			for _, e := range g.Cell(day, i) {
				ids = append(ids, e.ID)
			}
			col.Cells[i] = ids
		}
		resp.Days = append(resp.Days, col)
	}
	for _, sk := range g.Skipped {
		resp.Skipped = append(resp.Skipped, dto.SkippedEntryResponse{
			EntryID:   sk.Entry.ID,
			TimeRange: sk.Entry.TimeRange,
			Reason:    sk.Err.Error(),
		})
	}
	return resp
}
