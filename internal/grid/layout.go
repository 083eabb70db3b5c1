package grid

import (
	"errors"
	"fmt"
	"time"

	"campus-scheduler/internal/model"
)

var ErrInvalidLayout = errors.New("网格布局无效")

// TimeSlot 固定长度的时间格
type TimeSlot struct {
	Index    int            `json:"index"`
	Interval model.Interval `json:"-"`
}

// Label "HH:MM-HH:MM"
func (s TimeSlot) Label() string { return s.Interval.String() }

// Layout 周网格布局（工作日 × 时间格），创建后不可修改
type Layout struct {
	days  []model.Day
	slots []TimeSlot
}

// DefaultLayout 08:00–17:00，30 分钟一格（每天 18 格），周一至周五
var DefaultLayout = MustLayout(model.MustClock("08:00"), model.MustClock("17:00"), model.SlotMinutes*time.Minute, model.WorkingDays)

// NewLayout 将 [start, end) 按 step 切分；step 须整分钟且整除窗口
func NewLayout(start, end model.Clock, step time.Duration, days []model.Day) (*Layout, error) {
	if end <= start {
		return nil, fmt.Errorf("%w: 结束时间 %s 须晚于开始时间 %s", ErrInvalidLayout, end, start)
	}
	if step < time.Minute || step%time.Minute != 0 {
		return nil, fmt.Errorf("%w: 时间格长度 %s", ErrInvalidLayout, step)
	}
	stepMin := model.Clock(step / time.Minute)
	if (end-start)%stepMin != 0 {
		return nil, fmt.Errorf("%w: %s 不能整除 %s-%s", ErrInvalidLayout, step, start, end)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: 至少需要一个工作日", ErrInvalidLayout)
	}
	for _, d := range days {
		if !d.Valid() {
			return nil, fmt.Errorf("%w: %w", ErrInvalidLayout, model.ErrInvalidDay)
		}
	}

	l := &Layout{days: append([]model.Day(nil), days...)}
	for s := start; s < end; s = s.Add(step) {
		l.slots = append(l.slots, TimeSlot{Index: len(l.slots), Interval: model.Interval{Start: s, End: s.Add(step)}})
	}
	return l, nil
}

// MustLayout 用于包级变量初始化
func MustLayout(start, end model.Clock, step time.Duration, days []model.Day) *Layout {
	l, err := NewLayout(start, end, step, days)
	if err != nil {
		panic(err)
	}
	return l
}

// Days 布局中的工作日（副本）
func (l *Layout) Days() []model.Day { return append([]model.Day(nil), l.days...) }

// Slots 每天的时间格（副本）
func (l *Layout) Slots() []TimeSlot { return append([]TimeSlot(nil), l.slots...) }

// SlotCount 每天的时间格数
func (l *Layout) SlotCount() int { return len(l.slots) }

// Window 布局覆盖的时间窗口
func (l *Layout) Window() model.Interval {
	return model.Interval{Start: l.slots[0].Interval.Start, End: l.slots[len(l.slots)-1].Interval.End}
}

func (l *Layout) dayIndex(d model.Day) (int, bool) {
	for i, day := range l.days {
		if day == d {
			return i, true
		}
	}
	return 0, false
}
