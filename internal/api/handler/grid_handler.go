package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"campus-scheduler/internal/dto"
	"campus-scheduler/internal/service"
	"campus-scheduler/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// GridHandler 周课表网格与导出 HTTP 处理器
type GridHandler struct {
	gridSvc   service.GridService
	exportSvc service.ExportService
	now       func() time.Time
}

// NewGridHandler 创建 GridHandler
func NewGridHandler(gridSvc service.GridService, exportSvc service.ExportService) *GridHandler {
	return &GridHandler{gridSvc: gridSvc, exportSvc: exportSvc, now: time.Now}
}

// GetGrid 获取编译后的周课表
// GET /api/v1/grid?course_id=&classroom_id=&teacher_id=
func (h *GridHandler) GetGrid(c *gin.Context) {
	var q dto.GridQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.gridSvc.GetGrid(c.Request.Context(), q)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, resp)
}

// ExportGrid 导出周课表 Excel
// GET /api/v1/grid/export
func (h *GridHandler) ExportGrid(c *gin.Context) {
	var q dto.GridQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportGrid(c.Request.Context(), q)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	attachment(c, filename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportCalendar 导出周课表 iCalendar
// GET /api/v1/grid/calendar.ics?week_start=2024-09-16
func (h *GridHandler) ExportCalendar(c *gin.Context) {
	var q dto.CalendarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	var weekStart time.Time
	if q.WeekStart == "" {
		weekStart = mondayOf(h.now())
	} else {
		t, err := time.ParseInLocation("2006-01-02", q.WeekStart, time.Local)
		if err != nil {
			response.BadRequest(c, 21002, "week_start 格式应为 YYYY-MM-DD")
			return
		}
		weekStart = t
	}

	buf, filename, err := h.exportSvc.ExportCalendar(c.Request.Context(), q.GridQuery, weekStart)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	attachment(c, filename)
	c.Data(http.StatusOK, icsContentType, buf.Bytes())
}

// mondayOf t 所在周的周一零点
func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// attachment 设置下载响应头
func attachment(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
}

func (h *GridHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoEntries):
		response.NotFound(c, 21001, "没有可导出的课表条目")
	case errors.Is(err, service.ErrExportBadWeekStart):
		response.BadRequest(c, 21002, err.Error())
	default:
		response.InternalError(c)
	}
}
