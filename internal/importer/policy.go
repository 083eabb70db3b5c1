package importer

import (
	"fmt"
	"strings"
)

// Policy 冲突处理策略，整批统一生效
type Policy int

const (
	// PolicyOverride 冲突记录更新已有记录，其余新建
	PolicyOverride Policy = iota + 1
	// PolicySkip 冲突记录丢弃，其余新建
	PolicySkip
	// PolicyOnlyNew 计划结果与 Skip 相同，表示"只导入新记录"的意图
	PolicyOnlyNew
)

// Policies 全部策略
var Policies = []Policy{PolicyOverride, PolicySkip, PolicyOnlyNew}

// ParsePolicy 解析策略字符串（大小写不敏感）
func ParsePolicy(s string) (Policy, error) {
	switch strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s))) {
	case "override":
		return PolicyOverride, nil
	case "skip":
		return PolicySkip, nil
	case "onlynew":
		return PolicyOnlyNew, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

func (p Policy) String() string {
	switch p {
	case PolicyOverride:
		return "override"
	case PolicySkip:
		return "skip"
	case PolicyOnlyNew:
		return "onlynew"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// Valid 是否为已知策略
func (p Policy) Valid() bool {
	return p >= PolicyOverride && p <= PolicyOnlyNew
}

func (p Policy) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPolicy, int(p))
	}
	return []byte(p.String()), nil
}

func (p *Policy) UnmarshalText(text []byte) error {
	v, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ── 批次状态机 ──
//
//   Normalized → NoConflict → Committed
//   Normalized → HasConflicts → AwaitingPolicy → Committed | Aborted

// BatchState 批次状态
type BatchState string

const (
	StateNormalized     BatchState = "normalized"
	StateNoConflict     BatchState = "no_conflict"
	StateHasConflicts   BatchState = "has_conflicts"
	StateAwaitingPolicy BatchState = "awaiting_policy"
	StateCommitted      BatchState = "committed"
	StateAborted        BatchState = "aborted"
)

var transitions = map[BatchState][]BatchState{
	StateNormalized:     {StateNoConflict, StateHasConflicts},
	StateNoConflict:     {StateCommitted, StateAborted},
	StateHasConflicts:   {StateAwaitingPolicy},
	StateAwaitingPolicy: {StateCommitted, StateAborted},
}

// CanTransitionTo 状态迁移是否合法
func (s BatchState) CanTransitionTo(next BatchState) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal 是否为终态
func (s BatchState) Terminal() bool {
	return s == StateCommitted || s == StateAborted
}
