package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"campus-scheduler/config"
	"campus-scheduler/internal/dto"
	"campus-scheduler/internal/grid"
	"campus-scheduler/pkg/metrics"
)

func setupTestGridService(t *testing.T) (GridService, *mockRepos, *prometheus.Registry) {
	t.Helper()
	repo, mocks := newMockRepository()
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		t.Fatalf("创建指标记录器失败: %v", err)
	}
	return NewGridService(nil, repo, rec, zap.NewNop()), mocks, reg
}

func TestLayoutFromConfig(t *testing.T) {
	layout, err := LayoutFromConfig(config.GridConfig{DayStart: "09:00", DayEnd: "12:00", SlotMinutes: 60})
	if err != nil {
		t.Fatalf("LayoutFromConfig 应成功: %v", err)
	}
	if layout.SlotCount() != 3 {
		t.Errorf("期望 3 个时间格，实际: %d", layout.SlotCount())
	}

	if _, err := LayoutFromConfig(config.GridConfig{DayStart: "09:00", DayEnd: "12:00", SlotMinutes: 45}); !errors.Is(err, grid.ErrInvalidLayout) {
		t.Errorf("45 分钟不能整除 3 小时，期望 ErrInvalidLayout，实际: %v", err)
	}
}

func TestGridService_GetGrid_PlacesEntries(t *testing.T) {
	svc, mocks, _ := setupTestGridService(t)
	teacher := mocks.seedTeacher("Ayşe Yılmaz", "ayse@uni.edu.tr")
	course := mocks.seedCourse("CS101", "Intro", teacher.TeacherID, 30)
	room := mocks.seedClassroom("A101", 40)
	entry := mocks.entries.add(1, "09:00:00", "10:30:00", course.CourseID, room.ClassroomID)

	resp, err := svc.GetGrid(context.Background(), dto.GridQuery{})
	if err != nil {
		t.Fatalf("GetGrid 应成功: %v", err)
	}
	if len(resp.Slots) != 18 || len(resp.Days) != 5 {
		t.Fatalf("默认布局应为 5 天 × 18 格，实际: %d 天 × %d 格", len(resp.Days), len(resp.Slots))
	}
	if len(resp.Placements) != 1 {
		t.Fatalf("期望 1 个放置结果，实际: %d", len(resp.Placements))
	}

	p := resp.Placements[0]
	if p.Span != 1 || p.RepresentativeSlot != 2 {
		t.Errorf("90 分钟条目期望 span=1 且代表格=2，实际: span=%d slot=%d", p.Span, p.RepresentativeSlot)
	}
	if p.CapacityClass == nil || *p.CapacityClass != grid.CapacityMedium {
		t.Errorf("30/40 期望 medium，实际: %v", p.CapacityClass)
	}

	monday := resp.Days[0]
	for _, slot := range []int{2, 3, 4} {
		if len(monday.Cells[slot]) != 1 || monday.Cells[slot][0] != entry.ScheduleEntryID {
			t.Errorf("时间格 %d 应包含条目 %d，实际: %v", slot, entry.ScheduleEntryID, monday.Cells[slot])
		}
	}
	if len(monday.Cells[5]) != 0 {
		t.Errorf("10:30-11:00 不应包含该条目，实际: %v", monday.Cells[5])
	}
}

func TestGridService_Compile_SkipsMalformedEntries(t *testing.T) {
	svc, mocks, reg := setupTestGridService(t)
	course := mocks.seedCourse("CS101", "Intro", 1, 30)
	room := mocks.seedClassroom("A101", 40)
	mocks.entries.add(1, "09:00", "10:00", course.CourseID, room.ClassroomID)
	bad := mocks.entries.add(2, "11:00", "10:00", course.CourseID, room.ClassroomID)

	g, err := svc.Compile(context.Background(), dto.GridQuery{})
	if err != nil {
		t.Fatalf("Compile 应成功: %v", err)
	}
	if len(g.Placements) != 1 || len(g.Skipped) != 1 {
		t.Fatalf("期望放置 1 条、跳过 1 条，实际: %d / %d", len(g.Placements), len(g.Skipped))
	}
	if g.Skipped[0].Entry.ID != bad.ScheduleEntryID {
		t.Errorf("期望跳过条目 %d，实际: %d", bad.ScheduleEntryID, g.Skipped[0].Entry.ID)
	}
	expected := `
# HELP campus_grid_entries_skipped_total Schedule entries left out of a compiled grid because of an invalid time range or day
# TYPE campus_grid_entries_skipped_total counter
campus_grid_entries_skipped_total 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "campus_grid_entries_skipped_total"); err != nil {
		t.Errorf("跳过计数不符合预期: %v", err)
	}
}

func TestGridService_Compile_PassesFilter(t *testing.T) {
	svc, mocks, _ := setupTestGridService(t)

	_, err := svc.Compile(context.Background(), dto.GridQuery{ClassroomID: 7, TeacherID: 3})
	if err != nil {
		t.Fatalf("Compile 应成功: %v", err)
	}
	if mocks.entries.lastList.ClassroomID != 7 || mocks.entries.lastList.TeacherID != 3 {
		t.Errorf("过滤条件应透传给仓储，实际: %+v", mocks.entries.lastList)
	}
}

func TestGridService_Compile_RepoError(t *testing.T) {
	svc, mocks, _ := setupTestGridService(t)
	mocks.entries.listErr = errors.New("db down")

	if _, err := svc.Compile(context.Background(), dto.GridQuery{}); err == nil {
		t.Error("仓储失败时应返回错误")
	}
}
