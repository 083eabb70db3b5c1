package dto

import (
	"time"

	"campus-scheduler/internal/importer"
)

// ── 批量导入模块 DTO ──

// ImportCommitRequest 按暂存令牌提交导入
type ImportCommitRequest struct {
	Token  string `json:"token"  binding:"required"`
	Policy string `json:"policy"` // override | skip | onlynew，空值取默认策略
}

// ImportPreviewResponse 导入预览：规范化结果与冲突分析，不写库
type ImportPreviewResponse struct {
	Entity     string               `json:"entity"`
	State      importer.BatchState  `json:"state"`
	Total      int                  `json:"total"`
	New        int                  `json:"new"`
	Collisions []importer.Collision `json:"collisions"`
	Warnings   []importer.Warning   `json:"warnings"`
	// MissingReferences 当前无法解析的引用（如教师姓名），提交时会重新解析
	MissingReferences []string   `json:"missing_references"`
	Token             string     `json:"token,omitempty"`      // Redis 不可用时为空
	ExpiresAt         *time.Time `json:"expires_at,omitempty"` // 令牌过期时间
}

// PlannedUpdate 计划中的覆盖更新
type PlannedUpdate struct {
	Key        string `json:"key"`
	ExistingID int64  `json:"existing_id"`
}

// ImportPlanResponse 按策略生成的计划（试运行，不写库）
type ImportPlanResponse struct {
	Entity   string             `json:"entity"`
	Policy   importer.Policy    `json:"policy"`
	ToCreate []string           `json:"to_create"`
	ToUpdate []PlannedUpdate    `json:"to_update"`
	Skipped  []string           `json:"skipped"`
	Warnings []importer.Warning `json:"warnings"`
	// ValidationErrors 非空时计划不可执行，其余列表为空
	ValidationErrors []importer.RowError `json:"validation_errors,omitempty"`
}

// ImportResultResponse 导入执行结果
type ImportResultResponse struct {
	Entity     string              `json:"entity"`
	Policy     importer.Policy     `json:"policy"`
	State      importer.BatchState `json:"state"`
	Created    int                 `json:"created"`
	Updated    int                 `json:"updated"`
	Skipped    int                 `json:"skipped"`
	CreatedIDs []int64             `json:"created_ids"`
	Warnings   []importer.Warning  `json:"warnings"`
}
