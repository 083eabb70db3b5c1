package importer

import (
	"context"
	"errors"
	"testing"
)

// memoryStore 按调用顺序记录写入，模拟存储层
type memoryStore struct {
	nextID  int64
	byID    map[int64]CanonicalCourse
	calls   []string
	failOn  string
	failErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{nextID: 100, byID: map[int64]CanonicalCourse{}}
}

func (m *memoryStore) Create(_ context.Context, c CanonicalCourse) (int64, error) {
	m.calls = append(m.calls, "create:"+c.Code)
	if c.Code == m.failOn {
		return 0, m.failErr
	}
	m.nextID++
	m.byID[m.nextID] = c
	return m.nextID, nil
}

func (m *memoryStore) Update(_ context.Context, id int64, c CanonicalCourse) error {
	m.calls = append(m.calls, "update:"+c.Code)
	if c.Code == m.failOn {
		return m.failErr
	}
	m.byID[id] = c
	return nil
}

func (m *memoryStore) existing() []ExistingRecord {
	var out []ExistingRecord
	for id, c := range m.byID {
		out = append(out, ExistingRecord{ID: id, Key: c.Code, Variant: c.Name})
	}
	return out
}

func importOnce(t *testing.T, store *memoryStore, rows []RawRow, policy Policy, opts CourseOptions) *ApplyResult {
	t.Helper()
	batch, err := NormalizeCourses(rows, testDirectory(), opts)
	if err != nil {
		t.Fatalf("NormalizeCourses 应成功: %v", err)
	}
	plan, err := BuildPlan(batch.Records, store.existing(), policy)
	if err != nil {
		t.Fatalf("BuildPlan 应成功: %v", err)
	}
	res, err := Apply(context.Background(), plan, store)
	if err != nil {
		t.Fatalf("Apply 应成功: %v", err)
	}
	return res
}

func TestApply_CreatesBeforeUpdates(t *testing.T) {
	store := newMemoryStore()
	plan := &ConflictPlan[CanonicalCourse]{
		Policy:   PolicyOverride,
		ToCreate: []CanonicalCourse{course("B", 1), course("C", 1)},
		ToUpdate: []Update[CanonicalCourse]{{ExistingID: 1, Record: course("A", 1)}},
		Skipped:  []CanonicalCourse{course("D", 1)},
	}

	res, err := Apply(context.Background(), plan, store)
	if err != nil {
		t.Fatalf("Apply 应成功: %v", err)
	}
	want := []string{"create:B", "create:C", "update:A"}
	if len(store.calls) != len(want) {
		t.Fatalf("期望调用 %v，实际: %v", want, store.calls)
	}
	for i := range want {
		if store.calls[i] != want[i] {
			t.Errorf("第 %d 次调用期望 %s，实际 %s", i, want[i], store.calls[i])
		}
	}
	if res.Created != 2 || res.Updated != 1 || res.Skipped != 1 || len(res.CreatedIDs) != 2 {
		t.Errorf("结果统计不符合预期: %+v", res)
	}
}

func TestApply_StopsAtFirstFailure(t *testing.T) {
	boom := errors.New("unique violation")
	store := newMemoryStore()
	store.failOn, store.failErr = "C", boom
	plan := &ConflictPlan[CanonicalCourse]{
		ToCreate: []CanonicalCourse{course("A", 1), course("B", 1), course("C", 1), course("D", 1)},
		ToUpdate: []Update[CanonicalCourse]{{ExistingID: 1, Record: course("E", 1)}},
	}

	res, err := Apply(context.Background(), plan, store)
	var applyErr *ApplyError
	if !errors.As(err, &applyErr) {
		t.Fatalf("期望 *ApplyError，实际: %v", err)
	}
	if !errors.Is(err, boom) {
		t.Error("ApplyError 应包装协作方错误")
	}
	if applyErr.Applied != 2 || applyErr.FailedKey != "C" || applyErr.Stage != StageCreate {
		t.Errorf("失败边界不符合预期: %+v", applyErr)
	}
	if len(store.calls) != 3 {
		t.Errorf("失败后不应继续调用，实际: %v", store.calls)
	}
	if res == nil || res.Created != 2 {
		t.Errorf("应返回截至失败的部分结果，实际: %+v", res)
	}
}

func TestApply_RefusesPlanWithValidationErrors(t *testing.T) {
	store := newMemoryStore()
	plan := &ConflictPlan[CanonicalCourse]{
		ToCreate:         []CanonicalCourse{course("A", 1)},
		ValidationErrors: []RowError{{Row: 2, Message: "x"}},
	}
	if _, err := Apply(context.Background(), plan, store); !errors.Is(err, ErrPlanNotUsable) {
		t.Errorf("期望 ErrPlanNotUsable，实际: %v", err)
	}
	if len(store.calls) != 0 {
		t.Errorf("不应调用协作方，实际: %v", store.calls)
	}
}

func TestApply_ForwardsContextWithoutCheckingIt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var seen []error
	c := CommitterFuncs[CanonicalCourse]{
		CreateFunc: func(ctx context.Context, _ CanonicalCourse) (int64, error) {
			seen = append(seen, ctx.Err())
			return 1, nil
		},
		UpdateFunc: func(context.Context, int64, CanonicalCourse) error { return nil },
	}
	plan := &ConflictPlan[CanonicalCourse]{ToCreate: []CanonicalCourse{course("A", 1), course("B", 1)}}

	res, err := Apply(ctx, plan, c)
	if err != nil || res.Created != 2 {
		t.Fatalf("取消检查由协作方负责，实际: %+v / %v", res, err)
	}
	if len(seen) != 2 || !errors.Is(seen[0], context.Canceled) {
		t.Errorf("ctx 应原样传给协作方，实际: %v", seen)
	}
}

func TestImport_IdempotentOverride(t *testing.T) {
	rows := []RawRow{
		courseRow("CS101", "Intro", "Ayşe Yılmaz", "CS", 40, "theory", 3),
		courseRow("CS101", "Intro", "Ayşe Yılmaz", "EE", 30, "lab", 2),
		courseRow("CS202", "Algorithms", "Mehmet Demir", "CS", 35, "theory", 3),
	}
	store := newMemoryStore()

	first := importOnce(t, store, rows, PolicyOverride, CourseOptions{})
	snapshot := make(map[int64]CanonicalCourse, len(store.byID))
	for id, c := range store.byID {
		snapshot[id] = c
	}

	second := importOnce(t, store, rows, PolicyOverride, CourseOptions{})

	if first.Created != 2 || second.Created != 0 || second.Updated != 2 {
		t.Errorf("第二次导入应全部为更新，实际: %+v / %+v", first, second)
	}
	if len(store.byID) != len(snapshot) {
		t.Fatalf("不应产生重复记录，实际: %d vs %d", len(store.byID), len(snapshot))
	}
	for id, before := range snapshot {
		after := store.byID[id]
		if len(after.Departments) != len(before.Departments) || len(after.Sessions) != len(before.Sessions) {
			t.Errorf("记录 %d 子列表发生漂移: %+v → %+v", id, before, after)
		}
	}
}

func TestImport_IdempotentOverrideWithNameVariants(t *testing.T) {
	rows := []RawRow{
		courseRow("CS101", "Intro", "Ayşe Yılmaz", "CS", 40, "theory", 3),
		courseRow("CS101", "INTRO", "Ayşe Yılmaz", "EE", 30, "theory", 3),
	}
	opts := CourseOptions{MergeKey: MergeByCodeAndName}
	store := newMemoryStore()

	names := func() map[int64]string {
		out := make(map[int64]string, len(store.byID))
		for id, c := range store.byID {
			out[id] = c.Name + "/" + c.Departments[0].Department
		}
		return out
	}

	first := importOnce(t, store, rows, PolicyOverride, opts)
	before := names()
	second := importOnce(t, store, rows, PolicyOverride, opts)
	after := names()

	if first.Created != 2 || second.Created != 0 || second.Updated != 2 {
		t.Errorf("第二次导入应更新两条记录，实际: %+v / %+v", first, second)
	}
	if len(after) != len(before) {
		t.Fatalf("不应产生重复记录，实际: %v → %v", before, after)
	}
	for id, want := range before {
		if after[id] != want {
			t.Errorf("记录 %d 被其他名称变体覆盖: before=%v after=%v", id, before, after)
		}
	}
}

func TestImport_AtomicityLeavesStoreUntouched(t *testing.T) {
	var rows []RawRow
	for i := 0; i < 9; i++ {
		rows = append(rows, courseRow("C"+itoa(i), "Course", "Ayşe Yılmaz", "CS", 10, "theory", 2))
	}
	rows = append(rows, courseRow("C9", "Course", "Ayşe Yılmaz", "CS", "çok", "theory", 2))
	store := newMemoryStore()

	batch, normErr := NormalizeCourses(rows, testDirectory(), CourseOptions{})
	plan, err := Reconcile(batch, normErr, store.existing(), PolicyOverride)
	if err == nil {
		t.Fatal("期望校验失败")
	}
	if _, err := Apply(context.Background(), plan, store); err == nil {
		t.Error("校验失败的计划不应被执行")
	}
	if len(store.calls) != 0 || len(store.byID) != 0 {
		t.Errorf("存储应保持不变，实际调用: %v", store.calls)
	}
}
