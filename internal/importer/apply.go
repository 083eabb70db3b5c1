package importer

import (
	"context"
)

// Committer 写入协作方，由存储层实现
type Committer[T any] interface {
	Create(ctx context.Context, record T) (int64, error)
	Update(ctx context.Context, id int64, record T) error
}

// CommitterFuncs 函数适配器
type CommitterFuncs[T any] struct {
	CreateFunc func(ctx context.Context, record T) (int64, error)
	UpdateFunc func(ctx context.Context, id int64, record T) error
}

func (c CommitterFuncs[T]) Create(ctx context.Context, record T) (int64, error) {
	return c.CreateFunc(ctx, record)
}

func (c CommitterFuncs[T]) Update(ctx context.Context, id int64, record T) error {
	return c.UpdateFunc(ctx, id, record)
}

// ApplyResult 应用结果
type ApplyResult struct {
	Created    int     `json:"created"`
	Updated    int     `json:"updated"`
	Skipped    int     `json:"skipped"`
	CreatedIDs []int64 `json:"created_ids"`
}

// Applied 已写入的记录数
func (r *ApplyResult) Applied() int { return r.Created + r.Updated }

// Apply 顺序执行计划：先新建后更新，一次只调用一次协作方。
// 首个失败即停止并返回 *ApplyError（以及截至失败时的部分结果）；
// 不在中途检查取消，ctx 原样传给协作方。
func Apply[T Record](ctx context.Context, plan *ConflictPlan[T], c Committer[T]) (*ApplyResult, error) {
	if !plan.Usable() {
		return nil, ErrPlanNotUsable
	}

	res := &ApplyResult{Skipped: len(plan.Skipped), CreatedIDs: []int64{}}
	for _, r := range plan.ToCreate {
		id, err := c.Create(ctx, r)
		if err != nil {
			return res, &ApplyError{Applied: res.Applied(), Stage: StageCreate, FailedKey: r.DisplayKey(), Err: err}
		}
		res.Created++
		res.CreatedIDs = append(res.CreatedIDs, id)
	}
	for _, u := range plan.ToUpdate {
		if err := c.Update(ctx, u.ExistingID, u.Record); err != nil {
			return res, &ApplyError{Applied: res.Applied(), Stage: StageUpdate, FailedKey: u.Record.DisplayKey(), Err: err}
		}
		res.Updated++
	}
	return res, nil
}
