package grid

import "time"

// ── 跨度分级 ──

const (
	spanOneMax = 90 * time.Minute
	spanTwoMax = 150 * time.Minute
)

// SpanFor 时长 → 渲染跨度：≤1.5h 为 1，≤2.5h 为 2，其余为 3
func SpanFor(d time.Duration) int {
	switch {
	case d <= spanOneMax:
		return 1
	case d <= spanTwoMax:
		return 2
	default:
		return 3
	}
}

// ── 容量压力分级 ──

// CapacityClass 教室容量压力等级
type CapacityClass string

const (
	CapacityCritical CapacityClass = "critical"
	CapacityHigh     CapacityClass = "high"
	CapacityMedium   CapacityClass = "medium"
	CapacityGood     CapacityClass = "good"
)

// ClassifyCapacity 按 students/capacity*100 分级，严格大于比较，边界归入较低等级。
// capacity ≤ 0 时不分级。
func ClassifyCapacity(students, capacity int) (CapacityClass, bool) {
	if capacity <= 0 {
		return "", false
	}
	ratio := students * 100
	switch {
	case ratio > 90*capacity:
		return CapacityCritical, true
	case ratio > 75*capacity:
		return CapacityHigh, true
	case ratio > 50*capacity:
		return CapacityMedium, true
	default:
		return CapacityGood, true
	}
}
