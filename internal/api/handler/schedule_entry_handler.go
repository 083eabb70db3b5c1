package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"campus-scheduler/internal/dto"
	"campus-scheduler/internal/service"
	"campus-scheduler/pkg/response"
)

// ScheduleEntryHandler 课表条目 HTTP 处理器
type ScheduleEntryHandler struct {
	entrySvc service.ScheduleEntryService
}

// NewScheduleEntryHandler 创建 ScheduleEntryHandler
func NewScheduleEntryHandler(entrySvc service.ScheduleEntryService) *ScheduleEntryHandler {
	return &ScheduleEntryHandler{entrySvc: entrySvc}
}

// ListEntries 课表条目列表
// GET /api/v1/schedule-entries
func (h *ScheduleEntryHandler) ListEntries(c *gin.Context) {
	var req dto.ScheduleEntryListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.entrySvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// CreateEntry 新增课表条目
// POST /api/v1/schedule-entries
func (h *ScheduleEntryHandler) CreateEntry(c *gin.Context) {
	var req dto.CreateScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	entry, err := h.entrySvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleEntryError(c, err)
		return
	}
	response.Created(c, entry)
}

// DeleteEntry 删除课表条目
// DELETE /api/v1/schedule-entries/:id
func (h *ScheduleEntryHandler) DeleteEntry(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, 10001, "条目ID无效")
		return
	}

	if err := h.entrySvc.Delete(c.Request.Context(), id); err != nil {
		h.handleEntryError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *ScheduleEntryHandler) handleEntryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEntryInvalidDay):
		response.BadRequest(c, 22001, err.Error())
	case errors.Is(err, service.ErrEntryInvalidTimeRange):
		response.BadRequest(c, 22002, err.Error())
	case errors.Is(err, service.ErrEntryCourseNotFound):
		response.NotFound(c, 22003, "课程不存在")
	case errors.Is(err, service.ErrEntryClassroomNotFound):
		response.NotFound(c, 22004, "教室不存在")
	case errors.Is(err, service.ErrEntryNotFound):
		response.NotFound(c, 22005, "课表条目不存在")
	default:
		response.InternalError(c)
	}
}
