package errors

import "errors"

var (
	// ErrStagingUnavailable 批次暂存不可用（未配置 Redis 或连接失败）
	ErrStagingUnavailable = errors.New("导入暂存服务不可用，请直接指定策略导入")
	// ErrStagedBatchNotFound 暂存批次不存在或已过期
	ErrStagedBatchNotFound = errors.New("导入批次不存在或已过期，请重新预览")
)
