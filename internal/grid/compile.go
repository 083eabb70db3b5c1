package grid

import (
	"fmt"

	"campus-scheduler/internal/model"
)

// CourseRef 课表条目引用的课程摘要
type CourseRef struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	StudentCount int    `json:"student_count"`
}

// ClassroomRef 课表条目引用的教室摘要
type ClassroomRef struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// Entry 待编译的课表条目，TimeRange 为 "HH:MM-HH:MM"
type Entry struct {
	ID        int64        `json:"id"`
	Day       model.Day    `json:"day"`
	TimeRange string       `json:"time_range"`
	Course    CourseRef    `json:"course"`
	Classroom ClassroomRef `json:"classroom"`
}

// Placement 单个条目的渲染提示
type Placement struct {
	Entry              Entry          `json:"entry"`
	Interval           model.Interval `json:"-"`
	Slots              []int          `json:"slots"`
	Span               int            `json:"span"`
	CapacityClass      *CapacityClass `json:"capacity_class"`
	RepresentativeSlot int            `json:"representative_slot"`
}

// SkippedEntry 因时间段或星期无效而未放入网格的条目
type SkippedEntry struct {
	Entry Entry `json:"entry"`
	Err   error `json:"-"`
}

// WeekGrid 一次编译的结果：cells[day][slot] 为落入该格的条目（按输入顺序）
type WeekGrid struct {
	layout     *Layout
	cells      [][][]Entry
	Placements []Placement
	Skipped    []SkippedEntry
}

// Layout 编译所用布局
func (g *WeekGrid) Layout() *Layout { return g.layout }

// Cell 返回某天某格的条目；越界返回 nil
func (g *WeekGrid) Cell(day model.Day, slot int) []Entry {
	di, ok := g.layout.dayIndex(day)
	if !ok || slot < 0 || slot >= len(g.layout.slots) {
		return nil
	}
	return g.cells[di][slot]
}

// Compiler 课表网格编译器
type Compiler struct {
	layout *Layout
}

// NewCompiler layout 为 nil 时使用 DefaultLayout
func NewCompiler(layout *Layout) *Compiler {
	if layout == nil {
		layout = DefaultLayout
	}
	return &Compiler{layout: layout}
}

// Compile 将每个条目放入其时间段完全包含的所有时间格。
// 重叠条目并列保留；时间段无效的条目记入 Skipped，不影响其他条目。
func (c *Compiler) Compile(entries []Entry) *WeekGrid {
	g := &WeekGrid{
		layout:     c.layout,
		cells:      make([][][]Entry, len(c.layout.days)),
		Placements: []Placement{},
		Skipped:    []SkippedEntry{},
	}
	for i := range g.cells {
		g.cells[i] = make([][]Entry, len(c.layout.slots))
	}

	for _, e := range entries {
		iv, err := model.ParseInterval(e.TimeRange)
		if err != nil {
			g.Skipped = append(g.Skipped, SkippedEntry{Entry: e, Err: fmt.Errorf("条目 %d: %w", e.ID, err)})
			continue
		}
		di, ok := c.layout.dayIndex(e.Day)
		if !ok {
			g.Skipped = append(g.Skipped, SkippedEntry{Entry: e, Err: fmt.Errorf("条目 %d: %w: %d", e.ID, model.ErrInvalidDay, int(e.Day))})
			continue
		}

		p := Placement{
			Entry:              e,
			Interval:           iv,
			Slots:              []int{},
			Span:               SpanFor(iv.Duration()),
			RepresentativeSlot: RepresentativeSlot(c.layout, iv),
		}
		if class, ok := ClassifyCapacity(e.Course.StudentCount, e.Classroom.Capacity); ok {
			p.CapacityClass = &class
		}
		for _, slot := range c.layout.slots {
			if iv.Contains(slot.Interval) {
				g.cells[di][slot.Index] = append(g.cells[di][slot.Index], e)
				p.Slots = append(p.Slots, slot.Index)
			}
		}
		g.Placements = append(g.Placements, p)
	}
	return g
}

// RepresentativeSlot 紧凑列表视图使用：首个被完全包含的时间格，否则当天第一格
func RepresentativeSlot(layout *Layout, iv model.Interval) int {
	for _, slot := range layout.slots {
		if iv.Contains(slot.Interval) {
			return slot.Index
		}
	}
	return 0
}
