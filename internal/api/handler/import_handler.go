package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campus-scheduler/internal/dto"
	"campus-scheduler/internal/importer"
	"campus-scheduler/internal/service"
	apperrors "campus-scheduler/pkg/errors"
	"campus-scheduler/pkg/response"
)

// ImportHandler 批量导入 HTTP 处理器
type ImportHandler struct {
	importSvc service.ImportService
	maxRows   int
}

// NewImportHandler 创建 ImportHandler；maxRows 为单个文件最大数据行数
func NewImportHandler(importSvc service.ImportService, maxRows int) *ImportHandler {
	return &ImportHandler{importSvc: importSvc, maxRows: maxRows}
}

// Preview 上传并预览（不写库）
// POST /api/v1/imports/:entity/preview  (multipart: file)
func (h *ImportHandler) Preview(c *gin.Context) {
	entity, rows, ok := h.readUpload(c)
	if !ok {
		return
	}

	resp, err := h.importSvc.Preview(c.Request.Context(), entity, rows)
	if err != nil {
		h.handleImportError(c, err)
		return
	}
	response.OK(c, resp)
}

// Commit 按暂存令牌提交
// POST /api/v1/imports/:entity/commit  {token, policy}
func (h *ImportHandler) Commit(c *gin.Context) {
	entity, err := service.ParseEntity(c.Param("entity"))
	if err != nil {
		response.BadRequest(c, 20001, err.Error())
		return
	}

	var req dto.ImportCommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	policy, ok := h.policy(c, req.Policy)
	if !ok {
		return
	}

	resp, err := h.importSvc.Commit(c.Request.Context(), entity, req.Token, policy)
	if err != nil {
		h.handleImportError(c, err)
		return
	}
	response.OK(c, resp)
}

// Import 一步导入；dry_run=true 时只返回计划
// POST /api/v1/imports/:entity?policy=override|skip|onlynew&dry_run=true  (multipart: file)
func (h *ImportHandler) Import(c *gin.Context) {
	policy, ok := h.policy(c, c.Query("policy"))
	if !ok {
		return
	}
	dryRun, _ := strconv.ParseBool(c.DefaultQuery("dry_run", "false"))

	entity, rows, ok := h.readUpload(c)
	if !ok {
		return
	}

	if dryRun {
		plan, err := h.importSvc.Plan(c.Request.Context(), entity, rows, policy)
		if err != nil {
			h.handleImportError(c, err)
			return
		}
		response.OK(c, plan)
		return
	}

	resp, err := h.importSvc.Import(c.Request.Context(), entity, rows, policy)
	if err != nil {
		h.handleImportError(c, err)
		return
	}
	response.Created(c, resp)
}

// ── 辅助 ──

// readUpload 解析路径中的导入类型与上传的工作簿；失败时已写入响应
func (h *ImportHandler) readUpload(c *gin.Context) (service.Entity, []importer.RawRow, bool) {
	entity, err := service.ParseEntity(c.Param("entity"))
	if err != nil {
		response.BadRequest(c, 20001, err.Error())
		return "", nil, false
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 20002, "请上传 Excel 文件（字段名 file）")
		return "", nil, false
	}
	defer file.Close()

	rows, err := service.DecodeWorkbook(file, h.maxRows)
	if err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 20002, "Excel 文件解析失败", err.Error())
		return "", nil, false
	}
	return entity, rows, true
}

// policy 空值取默认策略；失败时已写入响应
func (h *ImportHandler) policy(c *gin.Context, raw string) (importer.Policy, bool) {
	if raw == "" {
		return h.importSvc.DefaultPolicy(), true
	}
	p, err := importer.ParsePolicy(raw)
	if err != nil {
		response.BadRequest(c, 20003, "未知的冲突处理策略，可选 override / skip / onlynew")
		return 0, false
	}
	return p, true
}

func (h *ImportHandler) handleImportError(c *gin.Context, err error) {
	var (
		rowErr   *importer.RowError
		batchErr *importer.BatchError
		applyErr *importer.ApplyError
	)
	switch {
	case errors.As(err, &rowErr):
		response.ErrorWithData(c, http.StatusUnprocessableEntity, 20010, rowErr.Error(), dto.RowErrorResponse{
			Row:     rowErr.Row,
			Field:   rowErr.Field,
			Value:   rowErr.Value,
			Message: rowErr.Message,
		})
	case errors.As(err, &batchErr):
		response.ErrorWithData(c, http.StatusUnprocessableEntity, 20011, batchErr.Message, dto.BatchRejectedResponse{
			AffectedKeys: batchErr.AffectedKeys,
			Details:      batchErr.Details,
		})
	case errors.As(err, &applyErr):
		response.ErrorWithData(c, http.StatusInternalServerError, 20012, "导入写入失败", dto.ApplyFailedResponse{
			Applied:    applyErr.Applied,
			Stage:      string(applyErr.Stage),
			FailedKey:  applyErr.FailedKey,
			RolledBack: h.importSvc.Transactional(),
		})
	case errors.Is(err, service.ErrUnknownEntity):
		response.BadRequest(c, 20001, err.Error())
	case errors.Is(err, importer.ErrUnknownPolicy):
		response.BadRequest(c, 20003, err.Error())
	case errors.Is(err, apperrors.ErrStagedBatchNotFound):
		response.NotFound(c, 20004, apperrors.ErrStagedBatchNotFound.Error())
	case errors.Is(err, apperrors.ErrStagingUnavailable):
		response.ServiceUnavailable(c, 20005, apperrors.ErrStagingUnavailable.Error())
	case errors.Is(err, service.ErrStagedEntityMismatch):
		response.Conflict(c, 20006, err.Error())
	default:
		response.InternalError(c)
	}
}
