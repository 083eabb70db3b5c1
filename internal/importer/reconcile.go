package importer

import (
	"errors"
	"fmt"
)

// Collision 与已有记录冲突的导入记录
type Collision struct {
	Key        string `json:"key"`
	ExistingID int64  `json:"existing_id"`
}

// Analysis 冲突分析结果，不依赖策略
type Analysis struct {
	State      BatchState  `json:"state"`
	Total      int         `json:"total"`
	New        int         `json:"new"`
	Collisions []Collision `json:"collisions"`
}

// Update 对已有记录的更新
type Update[T any] struct {
	ExistingID int64 `json:"existing_id"`
	Record     T     `json:"record"`
}

// ConflictPlan 冲突处理计划；ValidationErrors 非空时不可执行
type ConflictPlan[T any] struct {
	Policy           Policy      `json:"policy"`
	ToCreate         []T         `json:"to_create"`
	ToUpdate         []Update[T] `json:"to_update"`
	Skipped          []T         `json:"skipped"`
	ValidationErrors []RowError  `json:"validation_errors,omitempty"`
}

// Usable 计划是否可执行
func (p *ConflictPlan[T]) Usable() bool {
	return p != nil && len(p.ValidationErrors) == 0
}

// indexExisting 小写自然键 → 已有记录，保持原顺序
func indexExisting(existing []ExistingRecord) map[string][]ExistingRecord {
	idx := make(map[string][]ExistingRecord, len(existing))
	for _, e := range existing {
		key := lowerKey(e.Key)
		idx[key] = append(idx[key], e)
	}
	return idx
}

// matchExisting 为每条记录找出冲突的已有 ID，0 表示无冲突。
//
// 同一自然键下有多条已有记录时，先按 Variant 精确认领，剩余记录依次认领
// 未被占用的已有记录；全部被占用时回落到先出现者。
func matchExisting[T Record](records []T, existing []ExistingRecord) []int64 {
	idx := indexExisting(existing)
	ids := make([]int64, len(records))
	claimed := make(map[int64]bool, len(existing))

	for i, r := range records {
		v := variantOf(r)
		if v == "" {
			continue
		}
		for _, e := range idx[r.NaturalKey()] {
			if !claimed[e.ID] && e.Variant == v {
				ids[i] = e.ID
				claimed[e.ID] = true
				break
			}
		}
	}

	for i, r := range records {
		candidates := idx[r.NaturalKey()]
		if ids[i] != 0 || len(candidates) == 0 {
			continue
		}
		ids[i] = candidates[0].ID
		for _, e := range candidates {
			if !claimed[e.ID] {
				ids[i] = e.ID
				claimed[e.ID] = true
				break
			}
		}
	}
	return ids
}

// Analyze 统计新记录与冲突记录，决定 NoConflict / HasConflicts
func Analyze[T Record](records []T, existing []ExistingRecord) Analysis {
	ids := matchExisting(records, existing)
	a := Analysis{State: StateNoConflict, Total: len(records), Collisions: []Collision{}}
	for i, r := range records {
		if ids[i] != 0 {
			a.Collisions = append(a.Collisions, Collision{Key: r.DisplayKey(), ExistingID: ids[i]})
			continue
		}
		a.New++
	}
	if len(a.Collisions) > 0 {
		a.State = StateHasConflicts
	}
	return a
}

// CheckReferences 提交前闸门：收集所有缺少必需引用的记录
func CheckReferences[T Record](records []T) error {
	var be *BatchError
	for _, r := range records {
		missing := r.MissingReferences()
		if len(missing) == 0 {
			continue
		}
		if be == nil {
			be = &BatchError{Message: "存在无法解析的引用，整批拒绝导入"}
		}
		be.AffectedKeys = append(be.AffectedKeys, r.DisplayKey())
		for _, m := range missing {
			be.Details = append(be.Details, fmt.Sprintf("%s → %s", r.DisplayKey(), m))
		}
	}
	if be != nil {
		return be
	}
	return nil
}

// BuildPlan 按策略构建计划。引用闸门失败时返回 *BatchError 且不生成任何计划。
func BuildPlan[T Record](records []T, existing []ExistingRecord, policy Policy) (*ConflictPlan[T], error) {
	if !policy.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPolicy, int(policy))
	}
	if err := CheckReferences(records); err != nil {
		return nil, err
	}

	ids := matchExisting(records, existing)
	plan := &ConflictPlan[T]{
		Policy:   policy,
		ToCreate: []T{},
		ToUpdate: []Update[T]{},
		Skipped:  []T{},
	}
	for i, r := range records {
		id := ids[i]
		if id == 0 {
			plan.ToCreate = append(plan.ToCreate, r)
			continue
		}
		switch policy {
		case PolicyOverride:
			plan.ToUpdate = append(plan.ToUpdate, Update[T]{ExistingID: id, Record: r})
		case PolicySkip, PolicyOnlyNew:
			plan.Skipped = append(plan.Skipped, r)
		default:
			panic(fmt.Sprintf("importer: unhandled policy %v", policy))
		}
	}
	return plan, nil
}

// Reconcile 串联规范化结果与计划构建：规范化失败时返回仅含校验错误的计划
func Reconcile[T Record](batch *Batch[T], normErr error, existing []ExistingRecord, policy Policy) (*ConflictPlan[T], error) {
	if normErr != nil {
		plan := &ConflictPlan[T]{Policy: policy}
		var rowErr *RowError
		if errors.As(normErr, &rowErr) {
			plan.ValidationErrors = []RowError{*rowErr}
		} else {
			plan.ValidationErrors = []RowError{{Message: normErr.Error()}}
		}
		return plan, normErr
	}
	return BuildPlan(batch.Records, existing, policy)
}
