package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ── 时间与星期值类型 ──────────────────────────────────────────
//
// 课表中的时间统一以 "HH:MM" 字符串落库（与 time 列兼容），
// 运算时转为当天分钟数 Clock，避免浮点误差。
// ─────────────────────────────────────────────────────────────

// SlotMinutes 单个时间格长度（分钟）
const SlotMinutes = 30

// EndOfDay 24:00，时间段结束的上限
const EndOfDay Clock = 24 * 60

var (
	ErrInvalidClock     = errors.New("时间格式无效，应为 HH:MM")
	ErrInvalidTimeRange = errors.New("时间段格式无效，应为 HH:MM-HH:MM")
	ErrInvalidDay       = errors.New("星期无效")
)

// Day 工作日（ISO 8601：1=周一 … 5=周五）
type Day int

const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
)

// WorkingDays 一周的工作日，按顺序
var WorkingDays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}

var dayNames = map[Day]string{
	Monday:    "Pazartesi",
	Tuesday:   "Salı",
	Wednesday: "Çarşamba",
	Thursday:  "Perşembe",
	Friday:    "Cuma",
}

var englishDayNames = map[Day]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
}

// dayLookup 折叠后的星期别名 → Day
var dayLookup = func() map[string]Day {
	m := make(map[string]Day)
	for d, name := range dayNames {
		m[Fold(name)] = d
	}
	for d, name := range englishDayNames {
		m[Fold(name)] = d
		m[Fold(name[:3])] = d
	}
	return m
}()

// Valid 是否为工作日
func (d Day) Valid() bool { return d >= Monday && d <= Friday }

// String 返回表头使用的土耳其语名称
func (d Day) String() string {
	if name, ok := dayNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Day(%d)", int(d))
}

// EnglishName 返回英文名称
func (d Day) EnglishName() string { return englishDayNames[d] }

// Weekday 转为 time.Weekday
func (d Day) Weekday() time.Weekday { return time.Weekday(int(d) % 7) }

// Aliases 返回可作为表头的全部名称（土耳其语优先）
func (d Day) Aliases() []string {
	return []string{dayNames[d], englishDayNames[d]}
}

// ParseDay 解析星期名称（土耳其语 / 英文 / 英文缩写 / 数字 1-5），大小写不敏感
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		d := Day(n)
		if d.Valid() {
			return d, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidDay, s)
	}
	if d, ok := dayLookup[Fold(s)]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDay, s)
}

// Clock 当天的分钟数（08:30 → 510）
type Clock int

// ParseClock 解析 "H:MM" / "HH:MM" / "HH:MM:SS"
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 || len(parts[0]) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec != 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
	}
	return Clock(h*60 + m), nil
}

// MustClock 用于常量初始化，格式错误直接 panic
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String 格式化为 "HH:MM"
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Add 增加时长（按分钟截断）
func (c Clock) Add(d time.Duration) Clock {
	return c + Clock(d/time.Minute)
}

// Interval 半开区间 [Start, End)
type Interval struct {
	Start Clock
	End   Clock
}

// ParseInterval 解析 "HH:MM-HH:MM"，要求 End > Start
func ParseInterval(s string) (Interval, error) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "–", "-")
	parts := strings.Split(raw, "-")
	if len(parts) != 2 {
		return Interval{}, fmt.Errorf("%w: %q", ErrInvalidTimeRange, s)
	}
	start, err := ParseClock(parts[0])
	if err != nil {
		return Interval{}, fmt.Errorf("%w: %q", ErrInvalidTimeRange, s)
	}
	end, err := ParseClock(parts[1])
	if err != nil {
		return Interval{}, fmt.Errorf("%w: %q", ErrInvalidTimeRange, s)
	}
	if end <= start {
		return Interval{}, fmt.Errorf("%w: 结束时间须晚于开始时间 %q", ErrInvalidTimeRange, s)
	}
	return Interval{Start: start, End: end}, nil
}

// Duration 区间时长
func (iv Interval) Duration() time.Duration {
	return time.Duration(iv.End-iv.Start) * time.Minute
}

// Contains other 是否完全落在 iv 内
func (iv Interval) Contains(other Interval) bool {
	return other.Start >= iv.Start && other.End <= iv.End
}

// Overlaps 两个区间是否有交集
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// String 格式化为 "HH:MM-HH:MM"
func (iv Interval) String() string {
	return iv.Start.String() + "-" + iv.End.String()
}

// ── 文本折叠 ──

var turkishFolder = strings.NewReplacer(
	"i\u0307", "i", "ı", "i", "ş", "s", "ç", "c", "ğ", "g", "ö", "o", "ü", "u",
)

// Fold 大小写与土耳其字符不敏感的比较键（"SEÇMELİ" 与 "secmeli" 等价）
func Fold(s string) string {
	return turkishFolder.Replace(strings.ToLower(strings.TrimSpace(s)))
}
