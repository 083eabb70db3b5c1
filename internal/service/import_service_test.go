package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"campus-scheduler/config"
	"campus-scheduler/internal/importer"
	"campus-scheduler/internal/model"
	apperrors "campus-scheduler/pkg/errors"
)

// ── 测试辅助 ──

func testImportConfig() config.ImportConfig {
	return config.ImportConfig{
		DefaultPolicy:  "skip",
		MaxRows:        100,
		StagingTTL:     30 * time.Minute,
		CourseMergeKey: "code_name",
		Transactional:  false,
	}
}

func setupTestImportService(store BatchStore) (ImportService, *mockRepos) {
	repo, mocks := newMockRepository()
	svc := NewImportService(testImportConfig(), repo, store, nil, zap.NewNop())
	return svc, mocks
}

func courseImportRow(code, name, teacher, dept string, students int) importer.RawRow {
	return importer.RawRow{
		"Ders Kodu":      code,
		"Ders Adı":       name,
		"Öğretmen Adı":   teacher,
		"Bölüm":          dept,
		"Öğrenci Sayısı": students,
		"Oturum Türü":    "Teorik",
		"Oturum Saati":   3,
	}
}

func teacherImportRow(name, email, monday string) importer.RawRow {
	return importer.RawRow{"Ad Soyad": name, "E-posta": email, "Pazartesi": monday}
}

// ── ParseEntity ──

func TestParseEntity(t *testing.T) {
	tests := []struct {
		in      string
		want    Entity
		wantErr bool
	}{
		{"course", EntityCourse, false},
		{"Courses", EntityCourse, false},
		{" teachers ", EntityTeacher, false},
		{"classroom", EntityClassroom, false},
		{"students", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseEntity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEntity(%q) err=%v，期望出错=%v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEntity(%q)=%q，期望 %q", tt.in, got, tt.want)
		}
	}
}

// ── Import：课程 ──

func TestImportService_Import_CourseMergesAndResolvesTeacher(t *testing.T) {
	svc, mocks := setupTestImportService(nil)
	teacher := mocks.seedTeacher("Ayşe Yılmaz", "ayse@uni.edu.tr")

	rows := []importer.RawRow{
		courseImportRow("CS101", "Intro", "AYŞE YILMAZ", "CS", 40),
		courseImportRow("CS101", "Intro", "Ayşe Yılmaz", "EE", 30),
	}
	res, err := svc.Import(context.Background(), EntityCourse, rows, importer.PolicySkip)
	if err != nil {
		t.Fatalf("Import 应成功: %v", err)
	}
	if res.Created != 1 || res.Updated != 0 || res.State != importer.StateCommitted {
		t.Errorf("期望新建 1 条且状态 committed，实际: %+v", res)
	}

	course := mocks.courses.courses[res.CreatedIDs[0]]
	if course.TeacherID != teacher.TeacherID {
		t.Errorf("期望 TeacherID=%d，实际: %d", teacher.TeacherID, course.TeacherID)
	}
	if len(course.Departments) != 2 || course.StudentCount() != 70 {
		t.Errorf("期望 2 个院系共 70 人，实际: %+v", course.Departments)
	}
	if len(course.Sessions) != 1 || course.Sessions[0].Hours != 3 {
		t.Errorf("期望课时去重为 1 条，实际: %+v", course.Sessions)
	}
}

func TestImportService_Import_UnresolvedTeacherRejectsBatch(t *testing.T) {
	svc, mocks := setupTestImportService(nil)
	mocks.seedTeacher("Ayşe Yılmaz", "ayse@uni.edu.tr")

	rows := []importer.RawRow{
		courseImportRow("CS101", "Intro", "Ayşe Yılmaz", "CS", 40),
		courseImportRow("CS102", "Data", "Nobody", "CS", 40),
	}
	_, err := svc.Import(context.Background(), EntityCourse, rows, importer.PolicyOverride)

	var be *importer.BatchError
	if !errors.As(err, &be) {
		t.Fatalf("期望 *importer.BatchError，实际: %v", err)
	}
	if len(be.AffectedKeys) != 1 || be.AffectedKeys[0] != "CS102" {
		t.Errorf("期望受影响键 [CS102]，实际: %v", be.AffectedKeys)
	}
	if len(mocks.courses.courses) != 0 {
		t.Errorf("闸门失败时不应写入任何课程，实际: %d", len(mocks.courses.courses))
	}
}

func TestImportService_Import_OverrideKeepsNameVariantsApart(t *testing.T) {
	svc, mocks := setupTestImportService(nil)
	mocks.seedTeacher("Ayşe Yılmaz", "ayse@uni.edu.tr")

	rows := []importer.RawRow{
		courseImportRow("CS101", "Intro", "Ayşe Yılmaz", "CS", 40),
		courseImportRow("CS101", "INTRO", "Ayşe Yılmaz", "EE", 30),
	}
	snapshot := func() map[int64]string {
		out := make(map[int64]string)
		for id, c := range mocks.courses.courses {
			out[id] = c.Name + "/" + c.Departments[0].Department
		}
		return out
	}

	first, err := svc.Import(context.Background(), EntityCourse, rows, importer.PolicyOverride)
	if err != nil {
		t.Fatalf("首次导入应成功: %v", err)
	}
	before := snapshot()
	second, err := svc.Import(context.Background(), EntityCourse, rows, importer.PolicyOverride)
	if err != nil {
		t.Fatalf("再次导入应成功: %v", err)
	}
	after := snapshot()

	if first.Created != 2 || second.Created != 0 || second.Updated != 2 {
		t.Errorf("第二次 override 应更新两条记录，实际: first=%+v second=%+v", first, second)
	}
	for id, want := range before {
		if after[id] != want {
			t.Errorf("课程 %d 发生漂移: before=%v after=%v", id, before, after)
		}
	}
}

func TestImportService_Import_InvalidRowWritesNothing(t *testing.T) {
	svc, mocks := setupTestImportService(nil)
	mocks.seedTeacher("Ayşe Yılmaz", "ayse@uni.edu.tr")

	var rows []importer.RawRow
	for i := 0; i < 9; i++ {
		rows = append(rows, courseImportRow("CS10"+string(rune('0'+i)), "Course", "Ayşe Yılmaz", "CS", 10))
	}
	rows = append(rows, importer.RawRow{"Ders Kodu": "BAD1", "Ders Adı": "", "Öğretmen Adı": "Ayşe Yılmaz"})

	_, err := svc.Import(context.Background(), EntityCourse, rows, importer.PolicyOverride)

	var re *importer.RowError
	if !errors.As(err, &re) {
		t.Fatalf("期望 *importer.RowError，实际: %v", err)
	}
	if re.Row != 11 {
		t.Errorf("期望第 11 行报错，实际: %d", re.Row)
	}
	if len(mocks.courses.courses) != 0 {
		t.Errorf("存在非法行时不应写入任何记录，实际: %d", len(mocks.courses.courses))
	}
}

// ── Import：策略 ──

func TestImportService_Import_TeacherPolicies(t *testing.T) {
	tests := []struct {
		name        string
		policy      importer.Policy
		wantCreated int
		wantUpdated int
		wantSkipped int
	}{
		{"override", importer.PolicyOverride, 1, 1, 0},
		{"skip", importer.PolicySkip, 1, 0, 1},
		{"onlynew", importer.PolicyOnlyNew, 1, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mocks := setupTestImportService(nil)
			existing := mocks.seedTeacher("Old Name", "ayse@uni.edu.tr")

			rows := []importer.RawRow{
				teacherImportRow("Ayşe Yılmaz", "AYSE@uni.edu.tr", "09:00-12:00"),
				teacherImportRow("Mehmet Demir", "mehmet@uni.edu.tr", ""),
			}
			res, err := svc.Import(context.Background(), EntityTeacher, rows, tt.policy)
			if err != nil {
				t.Fatalf("Import 应成功: %v", err)
			}
			if res.Created != tt.wantCreated || res.Updated != tt.wantUpdated || res.Skipped != tt.wantSkipped {
				t.Errorf("期望 created=%d updated=%d skipped=%d，实际: %+v",
					tt.wantCreated, tt.wantUpdated, tt.wantSkipped, res)
			}

			got := mocks.teachers.teachers[existing.TeacherID]
			if tt.policy == importer.PolicyOverride {
				if got.Name != "Ayşe Yılmaz" || len(got.Availability) != 1 {
					t.Errorf("override 应更新已有教师，实际: %+v", got)
				}
			} else if got.Name != "Old Name" {
				t.Errorf("%s 不应修改已有教师，实际: %q", tt.policy, got.Name)
			}
		})
	}
}

func TestImportService_Import_OverrideIsIdempotent(t *testing.T) {
	svc, mocks := setupTestImportService(nil)
	rows := []importer.RawRow{
		{"Derslik Adı": "A101", "Kapasite": 40, "Tür": "Lab"},
	}

	first, err := svc.Import(context.Background(), EntityClassroom, rows, importer.PolicyOverride)
	if err != nil {
		t.Fatalf("首次导入应成功: %v", err)
	}
	second, err := svc.Import(context.Background(), EntityClassroom, rows, importer.PolicyOverride)
	if err != nil {
		t.Fatalf("再次导入应成功: %v", err)
	}
	if first.Created != 1 || second.Created != 0 || second.Updated != 1 {
		t.Errorf("第二次 override 应只更新，实际: first=%+v second=%+v", first, second)
	}
	if len(mocks.classrooms.classrooms) != 1 {
		t.Errorf("期望仍只有 1 间教室，实际: %d", len(mocks.classrooms.classrooms))
	}
	room := mocks.classrooms.classrooms[first.CreatedIDs[0]]
	if room.Capacity != 40 || room.Type != model.CourseTypeLab {
		t.Errorf("教室字段不符: %+v", room)
	}
}

func TestImportService_Import_ApplyErrorReportsAppliedCount(t *testing.T) {
	svc, mocks := setupTestImportService(nil)
	mocks.classrooms.failOn["C3"] = errors.New("disk full")

	rows := []importer.RawRow{
		{"Derslik Adı": "C1", "Kapasite": 10},
		{"Derslik Adı": "C2", "Kapasite": 10},
		{"Derslik Adı": "C3", "Kapasite": 10},
		{"Derslik Adı": "C4", "Kapasite": 10},
	}
	_, err := svc.Import(context.Background(), EntityClassroom, rows, importer.PolicySkip)

	var ae *importer.ApplyError
	if !errors.As(err, &ae) {
		t.Fatalf("期望 *importer.ApplyError，实际: %v", err)
	}
	if ae.Applied != 2 || ae.FailedKey != "C3" || ae.Stage != importer.StageCreate {
		t.Errorf("期望在 C3 失败且已应用 2 条，实际: %+v", ae)
	}
	if len(mocks.classrooms.classrooms) != 2 {
		t.Errorf("非事务模式应保留失败前的写入，实际: %d", len(mocks.classrooms.classrooms))
	}
}

func TestImportService_Import_UnknownEntity(t *testing.T) {
	svc, _ := setupTestImportService(nil)

	_, err := svc.Import(context.Background(), Entity("student"), nil, importer.PolicySkip)
	if !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("期望 ErrUnknownEntity，实际: %v", err)
	}
}

func TestImportService_Import_UnknownPolicy(t *testing.T) {
	svc, mocks := setupTestImportService(nil)
	rows := []importer.RawRow{{"Derslik Adı": "A101", "Kapasite": 40}}

	_, err := svc.Import(context.Background(), EntityClassroom, rows, importer.Policy(0))
	if !errors.Is(err, importer.ErrUnknownPolicy) {
		t.Errorf("期望 ErrUnknownPolicy，实际: %v", err)
	}
	if len(mocks.classrooms.classrooms) != 0 {
		t.Error("未知策略不应写入任何记录")
	}
}

// ── Preview / Commit ──

func TestImportService_Preview_NoStoreStillAnalyzes(t *testing.T) {
	svc, mocks := setupTestImportService(nil)
	mocks.seedClassroom("a101", 30)

	rows := []importer.RawRow{
		{"Derslik Adı": "A101", "Kapasite": 40},
		{"Derslik Adı": "B201", "Kapasite": 60},
	}
	resp, err := svc.Preview(context.Background(), EntityClassroom, rows)
	if err != nil {
		t.Fatalf("Preview 应成功: %v", err)
	}
	if resp.Token != "" || resp.ExpiresAt != nil {
		t.Errorf("无暂存时不应签发令牌，实际: %q", resp.Token)
	}
	if resp.State != importer.StateHasConflicts || resp.New != 1 || len(resp.Collisions) != 1 {
		t.Errorf("期望 1 条冲突（忽略大小写），实际: %+v", resp)
	}
	if len(mocks.classrooms.classrooms) != 1 {
		t.Error("Preview 不应写库")
	}
}

func TestImportService_PreviewThenCommit(t *testing.T) {
	store := newMockBatchStore()
	svc, mocks := setupTestImportService(store)
	existing := mocks.seedTeacher("Old Name", "ayse@uni.edu.tr")

	rows := []importer.RawRow{
		teacherImportRow("Ayşe Yılmaz", "ayse@uni.edu.tr", "09:00, 13:00-15:00"),
		teacherImportRow("Mehmet Demir", "mehmet@uni.edu.tr", ""),
	}
	preview, err := svc.Preview(context.Background(), EntityTeacher, rows)
	if err != nil {
		t.Fatalf("Preview 应成功: %v", err)
	}
	if preview.Token == "" {
		t.Fatal("期望签发暂存令牌")
	}
	if preview.State != importer.StateAwaitingPolicy {
		t.Errorf("存在冲突时期望 awaiting_policy，实际: %s", preview.State)
	}
	if store.ttls[preview.Token] != 30*time.Minute {
		t.Errorf("期望按配置 TTL 暂存，实际: %v", store.ttls[preview.Token])
	}

	res, err := svc.Commit(context.Background(), EntityTeacher, preview.Token, importer.PolicyOverride)
	if err != nil {
		t.Fatalf("Commit 应成功: %v", err)
	}
	if res.Created != 1 || res.Updated != 1 {
		t.Errorf("期望新建 1 更新 1，实际: %+v", res)
	}
	updated := mocks.teachers.teachers[existing.TeacherID]
	if len(updated.Availability) != 2 || updated.Availability[0].StartTime != "09:00" || updated.Availability[0].EndTime != "09:30" {
		t.Errorf("可授课时间应被替换为暂存内容，实际: %+v", updated.Availability)
	}
	if _, ok := store.batches[preview.Token]; ok {
		t.Error("提交成功后应删除暂存批次")
	}
}

func TestImportService_PreviewReportsMissingTeacher_CommitResolves(t *testing.T) {
	for _, transactional := range []bool{false, true} {
		store := newMockBatchStore()
		repo, mocks := newMockRepository()
		cfg := testImportConfig()
		cfg.Transactional = transactional
		svc := NewImportService(cfg, repo, store, nil, zap.NewNop())

		rows := []importer.RawRow{courseImportRow("CS101", "Intro", "Ayşe Yılmaz", "CS", 40)}
		preview, err := svc.Preview(context.Background(), EntityCourse, rows)
		if err != nil {
			t.Fatalf("教师未导入时 Preview 不应失败: %v", err)
		}
		if preview.Token == "" {
			t.Fatal("期望签发暂存令牌")
		}
		if len(preview.MissingReferences) != 1 || !strings.Contains(preview.MissingReferences[0], "Ayşe Yılmaz") {
			t.Errorf("预览应报告缺失的教师引用，实际: %v", preview.MissingReferences)
		}

		// 预览之后补录教师
		teacher := mocks.seedTeacher("Ayşe Yılmaz", "ayse@uni.edu.tr")

		res, err := svc.Commit(context.Background(), EntityCourse, preview.Token, importer.PolicySkip)
		if err != nil {
			t.Fatalf("transactional=%v: 补录教师后 Commit 应成功: %v", transactional, err)
		}
		if res.Created != 1 {
			t.Errorf("期望新建 1 门课程，实际: %+v", res)
		}
		if got := mocks.courses.courses[res.CreatedIDs[0]].TeacherID; got != teacher.TeacherID {
			t.Errorf("提交时应重新解析教师，期望 TeacherID=%d，实际: %d", teacher.TeacherID, got)
		}
	}
}

func TestImportService_Commit_TeacherRemovedAfterPreview(t *testing.T) {
	store := newMockBatchStore()
	svc, mocks := setupTestImportService(store)
	teacher := mocks.seedTeacher("Ayşe Yılmaz", "ayse@uni.edu.tr")

	rows := []importer.RawRow{courseImportRow("CS101", "Intro", "Ayşe Yılmaz", "CS", 40)}
	preview, err := svc.Preview(context.Background(), EntityCourse, rows)
	if err != nil {
		t.Fatalf("Preview 应成功: %v", err)
	}
	if len(preview.MissingReferences) != 0 {
		t.Errorf("教师存在时不应报告缺失引用，实际: %v", preview.MissingReferences)
	}

	delete(mocks.teachers.teachers, teacher.TeacherID)

	_, err = svc.Commit(context.Background(), EntityCourse, preview.Token, importer.PolicySkip)
	var be *importer.BatchError
	if !errors.As(err, &be) || len(be.AffectedKeys) != 1 || be.AffectedKeys[0] != "CS101" {
		t.Fatalf("暂存的教师 ID 不应直接使用，期望 *importer.BatchError，实际: %v", err)
	}
	if len(mocks.courses.courses) != 0 {
		t.Error("引用闸门失败时不应写入课程")
	}
	if _, ok := store.batches[preview.Token]; !ok {
		t.Error("提交失败时应保留暂存批次，便于补录后重试")
	}
}

func TestImportService_Commit_EntityMismatch(t *testing.T) {
	store := newMockBatchStore()
	svc, _ := setupTestImportService(store)

	preview, err := svc.Preview(context.Background(), EntityClassroom, []importer.RawRow{{"Derslik Adı": "A101", "Kapasite": 40}})
	if err != nil {
		t.Fatalf("Preview 应成功: %v", err)
	}

	_, err = svc.Commit(context.Background(), EntityTeacher, preview.Token, importer.PolicySkip)
	if !errors.Is(err, ErrStagedEntityMismatch) {
		t.Errorf("期望 ErrStagedEntityMismatch，实际: %v", err)
	}
}

func TestImportService_Commit_TokenNotFound(t *testing.T) {
	svc, _ := setupTestImportService(newMockBatchStore())

	_, err := svc.Commit(context.Background(), EntityClassroom, "missing", importer.PolicySkip)
	if !errors.Is(err, apperrors.ErrStagedBatchNotFound) {
		t.Errorf("期望 ErrStagedBatchNotFound，实际: %v", err)
	}
}

func TestImportService_Commit_NoStore(t *testing.T) {
	svc, _ := setupTestImportService(nil)

	_, err := svc.Commit(context.Background(), EntityClassroom, "any", importer.PolicySkip)
	if !errors.Is(err, apperrors.ErrStagingUnavailable) {
		t.Errorf("期望 ErrStagingUnavailable，实际: %v", err)
	}
}

func TestImportService_Preview_StoreFailureDegrades(t *testing.T) {
	store := newMockBatchStore()
	store.saveErr = errors.New("redis down")
	svc, _ := setupTestImportService(store)

	resp, err := svc.Preview(context.Background(), EntityClassroom, []importer.RawRow{{"Derslik Adı": "A101", "Kapasite": 40}})
	if err != nil {
		t.Fatalf("暂存失败时 Preview 仍应成功: %v", err)
	}
	if resp.Token != "" || resp.State != importer.StateNoConflict {
		t.Errorf("期望无令牌且状态 no_conflict，实际: %+v", resp)
	}
}

// ── Plan ──

func TestImportService_Plan_DoesNotWrite(t *testing.T) {
	svc, mocks := setupTestImportService(nil)
	mocks.seedClassroom("A101", 30)

	rows := []importer.RawRow{
		{"Derslik Adı": "A101", "Kapasite": 40},
		{"Derslik Adı": "B201", "Kapasite": 60},
	}
	plan, err := svc.Plan(context.Background(), EntityClassroom, rows, importer.PolicyOverride)
	if err != nil {
		t.Fatalf("Plan 应成功: %v", err)
	}
	if len(plan.ToCreate) != 1 || plan.ToCreate[0] != "B201" {
		t.Errorf("期望新建 [B201]，实际: %v", plan.ToCreate)
	}
	if len(plan.ToUpdate) != 1 || plan.ToUpdate[0].Key != "A101" {
		t.Errorf("期望更新 [A101]，实际: %v", plan.ToUpdate)
	}
	if len(mocks.classrooms.classrooms) != 1 || mocks.classrooms.classrooms[1].Capacity != 30 {
		t.Error("Plan 不应写库")
	}
}

func TestImportService_Plan_ReportsValidationErrors(t *testing.T) {
	svc, mocks := setupTestImportService(nil)

	rows := []importer.RawRow{
		{"Derslik Adı": "A101", "Kapasite": 40},
		{"Derslik Adı": "B201", "Kapasite": "çok"},
	}
	plan, err := svc.Plan(context.Background(), EntityClassroom, rows, importer.PolicySkip)
	if err != nil {
		t.Fatalf("试运行的行错误应放在计划中返回: %v", err)
	}
	if len(plan.ValidationErrors) != 1 || plan.ValidationErrors[0].Row != 3 {
		t.Errorf("期望第 3 行校验错误，实际: %+v", plan.ValidationErrors)
	}
	if len(plan.ToCreate) != 0 || len(plan.ToUpdate) != 0 {
		t.Errorf("含校验错误的计划不应列出写入项，实际: %+v", plan)
	}
	if len(mocks.classrooms.classrooms) != 0 {
		t.Error("Plan 不应写库")
	}
}

func TestImportService_DefaultPolicyFromConfig(t *testing.T) {
	repo, _ := newMockRepository()
	cfg := testImportConfig()
	cfg.DefaultPolicy = "override"

	svc := NewImportService(cfg, repo, nil, nil, zap.NewNop())
	if svc.DefaultPolicy() != importer.PolicyOverride {
		t.Errorf("期望默认策略 override，实际: %s", svc.DefaultPolicy())
	}
}
