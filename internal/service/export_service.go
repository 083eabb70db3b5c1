package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"campus-scheduler/internal/dto"
	"campus-scheduler/internal/grid"
	"campus-scheduler/internal/model"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoEntries    = errors.New("没有可导出的课表条目")
	ErrExportBadWeekStart = errors.New("week_start 必须是周一")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 两种导出共用 GridService 的编译结果，时间段无效的条目在两者中同样被跳过
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Excel：列为工作日、行为时间格，同一条目占用的连续时间格纵向合并
//   - ICS：每个条目一个每周重复的 VEVENT，锚定在 weekStart 所在周
type ExportService interface {
	// ExportGrid 导出周课表为 Excel
	ExportGrid(ctx context.Context, query dto.GridQuery) (*bytes.Buffer, string, error)
	// ExportCalendar 导出周课表为 iCalendar；weekStart 须为周一
	ExportCalendar(ctx context.Context, query dto.GridQuery, weekStart time.Time) (*bytes.Buffer, string, error)
}

type exportService struct {
	grid   GridService
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(gridSvc GridService, logger *zap.Logger) ExportService {
	return &exportService{grid: gridSvc, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportGrid 导出周课表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "周课表"
//   - 表头：时间 | Pazartesi | Salı | ...
//   - 单元格：每个条目一行 "代码 名称 (教室)"，多个条目换行并列
//   - 相邻时间格内容相同（同一组条目）时纵向合并
//   - 底色按容量等级（多个条目取最紧张的等级）

// capacityFills 容量等级 → 填充色
var capacityFills = map[grid.CapacityClass]string{
	grid.CapacityCritical: "#F8696B",
	grid.CapacityHigh:     "#FFB366",
	grid.CapacityMedium:   "#FFEB84",
	grid.CapacityGood:     "#63BE7B",
}

// capacitySeverity 数值越大越紧张
var capacitySeverity = map[grid.CapacityClass]int{
	grid.CapacityGood:     1,
	grid.CapacityMedium:   2,
	grid.CapacityHigh:     3,
	grid.CapacityCritical: 4,
}

func (s *exportService) ExportGrid(ctx context.Context, query dto.GridQuery) (*bytes.Buffer, string, error) {
	// 1. 编译网格
	g, err := s.grid.Compile(ctx, query)
	if err != nil {
		return nil, "", err
	}
	if len(g.Placements) == 0 {
		return nil, "", ErrExportNoEntries
	}

	layout := g.Layout()
	days := layout.Days()
	slots := layout.Slots()

	classByEntry := make(map[int64]*grid.CapacityClass, len(g.Placements))
	for _, p := range g.Placements {
		classByEntry[p.Entry.ID] = p.CapacityClass
	}

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "周课表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	// 设置列宽
	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, colName(1), colName(len(days)), 28)

	// 样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	plainStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	classStyles := make(map[grid.CapacityClass]int, len(capacityFills))
	for class, color := range capacityFills {
		style, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		})
		if err != nil {
			s.logger.Error("创建单元格样式失败", zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		classStyles[class] = style
	}

	// 表头
	f.SetCellValue(sheetName, cell("A", 1), "时间")
	for i, day := range days {
		f.SetCellValue(sheetName, cell(colName(1+i), 1), day.String())
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(days)), 1), headerStyle)

	// 时间列
	for i, slot := range slots {
		f.SetCellValue(sheetName, cell("A", i+2), slot.Label())
	}

	// 数据列：逐天扫描时间格，内容相同的连续格合并
	for di, day := range days {
		col := colName(1 + di)
		runStart, runKey := 0, ""
		flush := func(end int) {
			if runKey == "" {
				return
			}
			entries := g.Cell(day, runStart)
			top := cell(col, runStart+2)
			f.SetCellValue(sheetName, top, cellText(entries))
			style := plainStyle
			if class, ok := worstClass(entries, classByEntry); ok {
				style = classStyles[class]
			}
			bottom := cell(col, end+1)
			if end-1 > runStart {
				f.MergeCell(sheetName, top, bottom)
			}
			f.SetCellStyle(sheetName, top, bottom, style)
		}
		for si := range slots {
			key := cellKey(g.Cell(day, si))
			if key != runKey {
				flush(si)
				runStart, runKey = si, key
			}
		}
		flush(len(slots))
	}

	// 3. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, "周课表.xlsx", nil
}

// cellKey 单元格条目 ID 序列，空格为 ""
func cellKey(entries []grid.Entry) string {
	if len(entries) == 0 {
		return ""
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, fmt.Sprint(e.ID))
	}
	return strings.Join(ids, ",")
}

func cellText(entries []grid.Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		line := strings.TrimSpace(e.Course.Code + " " + e.Course.Name)
		if e.Classroom.Name != "" {
			line += " (" + e.Classroom.Name + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func worstClass(entries []grid.Entry, classes map[int64]*grid.CapacityClass) (grid.CapacityClass, bool) {
	var worst grid.CapacityClass
	found := false
	for _, e := range entries {
		c := classes[e.ID]
		if c == nil {
			continue
		}
		if !found || capacitySeverity[*c] > capacitySeverity[worst] {
			worst, found = *c, true
		}
	}
	return worst, found
}

// ═══════════════════════════════════════════════════════════
// ExportCalendar 导出周课表为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每个成功放入网格的条目生成一个 VEVENT：
//   - DTSTART/DTEND = weekStart 所在周的对应工作日 + 条目时间
//   - RRULE:FREQ=WEEKLY
//   - UID 由条目 ID 派生，重复导出时日历客户端会覆盖旧事件

const icsProductID = "-//campus-scheduler//weekly timetable//TR"

func (s *exportService) ExportCalendar(ctx context.Context, query dto.GridQuery, weekStart time.Time) (*bytes.Buffer, string, error) {
	if weekStart.Weekday() != time.Monday {
		return nil, "", fmt.Errorf("%w: %s", ErrExportBadWeekStart, weekStart.Format("2006-01-02"))
	}

	g, err := s.grid.Compile(ctx, query)
	if err != nil {
		return nil, "", err
	}
	if len(g.Placements) == 0 {
		return nil, "", ErrExportNoEntries
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName("周课表")

	stamp := time.Now()
	for _, p := range g.Placements {
		start, end := occurrence(weekStart, p.Entry.Day, p.Interval)

		event := cal.AddEvent(fmt.Sprintf("schedule-entry-%d@campus-scheduler", p.Entry.ID))
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(strings.TrimSpace(p.Entry.Course.Code + " " + p.Entry.Course.Name))
		if p.Entry.Classroom.Name != "" {
			event.SetLocation(p.Entry.Classroom.Name)
		}
		if p.CapacityClass != nil {
			event.SetDescription(fmt.Sprintf("学生 %d / 容量 %d (%s)",
				p.Entry.Course.StudentCount, p.Entry.Classroom.Capacity, *p.CapacityClass))
		}
		event.AddProperty(ics.ComponentPropertyRrule, "FREQ=WEEKLY")
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, fmt.Sprintf("周课表_%s.ics", weekStart.Format("20060102")), nil
}

// occurrence 条目在 weekStart 所在周的起止时间（沿用 weekStart 的时区）
func occurrence(weekStart time.Time, day model.Day, iv model.Interval) (time.Time, time.Time) {
	y, m, d := weekStart.Date()
	date := time.Date(y, m, d+int(day)-1, 0, 0, 0, 0, weekStart.Location())
	return date.Add(time.Duration(iv.Start) * time.Minute), date.Add(time.Duration(iv.End) * time.Minute)
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
