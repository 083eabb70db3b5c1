package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"campus-scheduler/config"
	"campus-scheduler/internal/dto"
	"campus-scheduler/internal/importer"
	"campus-scheduler/internal/model"
	"campus-scheduler/internal/repository"
	apperrors "campus-scheduler/pkg/errors"
	"campus-scheduler/pkg/metrics"
)

// ── 导入模块业务错误 ──

var (
	ErrUnknownEntity        = errors.New("不支持的导入类型，可选 course / teacher / classroom")
	ErrStagedEntityMismatch = errors.New("暂存批次的导入类型与请求不一致")
)

// Entity 可导入的数据类型
type Entity string

const (
	EntityCourse    Entity = "course"
	EntityTeacher   Entity = "teacher"
	EntityClassroom Entity = "classroom"
)

// Entities 全部导入类型
var Entities = []Entity{EntityCourse, EntityTeacher, EntityClassroom}

// ParseEntity 解析导入类型，接受单复数形式（courses / course）
func ParseEntity(s string) (Entity, error) {
	e := Entity(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	for _, known := range Entities {
		if e == known {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntity, s)
}

// BatchStore 待定批次暂存（由 pkg/redis.Client 实现）
type BatchStore interface {
	SaveBatch(ctx context.Context, token string, payload []byte, ttl time.Duration) error
	LoadBatch(ctx context.Context, token string) ([]byte, error)
	DeleteBatch(ctx context.Context, token string) error
}

// ImportService 批量导入业务接口
//
// 流程：
//   - Preview：规范化 + 冲突分析，报告未解析的引用，批次暂存到 Redis，返回令牌
//   - Commit：按令牌取回批次，重新解析引用后以用户选择的策略生成计划并写库
//   - Import：一步完成（CLI 与带 policy 参数的上传）
//   - Plan：试运行，只返回计划
//
// 规范化失败返回 *importer.RowError，写库前引用不完整返回 *importer.BatchError，
// 写入失败返回 *importer.ApplyError。Plan 的行错误放在返回值的 ValidationErrors 中。
type ImportService interface {
	Preview(ctx context.Context, entity Entity, rows []importer.RawRow) (*dto.ImportPreviewResponse, error)
	Commit(ctx context.Context, entity Entity, token string, policy importer.Policy) (*dto.ImportResultResponse, error)
	Import(ctx context.Context, entity Entity, rows []importer.RawRow, policy importer.Policy) (*dto.ImportResultResponse, error)
	Plan(ctx context.Context, entity Entity, rows []importer.RawRow, policy importer.Policy) (*dto.ImportPlanResponse, error)
	// DefaultPolicy 配置中的默认策略
	DefaultPolicy() importer.Policy
	// Transactional 写入失败时是否已整体回滚
	Transactional() bool
}

type importService struct {
	cfg           config.ImportConfig
	defaultPolicy importer.Policy
	mergeKey      importer.MergeKey
	repo          *repository.Repository
	store         BatchStore
	metrics       *metrics.Recorder
	logger        *zap.Logger
}

// NewImportService 创建 ImportService 实例；store 为 nil 时预览不签发令牌
func NewImportService(cfg config.ImportConfig, repo *repository.Repository, store BatchStore, rec *metrics.Recorder, logger *zap.Logger) ImportService {
	policy, err := importer.ParsePolicy(cfg.DefaultPolicy)
	if err != nil {
		policy = importer.PolicySkip
	}
	mergeKey, err := importer.ParseMergeKey(cfg.CourseMergeKey)
	if err != nil {
		mergeKey = importer.MergeByCodeAndName
	}
	return &importService{
		cfg:           cfg,
		defaultPolicy: policy,
		mergeKey:      mergeKey,
		repo:          repo,
		store:         store,
		metrics:       rec,
		logger:        logger,
	}
}

func (s *importService) DefaultPolicy() importer.Policy { return s.defaultPolicy }

// ════════════════════════════════════════════════════════════
// 按类型分派
//
// Go 方法不能带类型参数，因此每种记录类型的流程由一组
// 泛型函数完成，importService 只负责选择 pipeline。
// ════════════════════════════════════════════════════════════

// pipeline 单一记录类型的导入协作方
type pipeline[T importer.Record] struct {
	entity    Entity
	normalize func(ctx context.Context, rows []importer.RawRow) (*importer.Batch[T], error)
	// resolve 写库前按 repo 的当前数据重新解析外部引用；无引用的类型为 nil
	resolve   func(ctx context.Context, repo *repository.Repository, batch *importer.Batch[T]) error
	existing  func(ctx context.Context, repo *repository.Repository) ([]importer.ExistingRecord, error)
	committer func(repo *repository.Repository) importer.Committer[T]
}

func (s *importService) Preview(ctx context.Context, entity Entity, rows []importer.RawRow) (*dto.ImportPreviewResponse, error) {
	switch entity {
	case EntityCourse:
		return preview(ctx, s, s.coursePipeline(), rows)
	case EntityTeacher:
		return preview(ctx, s, teacherPipeline, rows)
	case EntityClassroom:
		return preview(ctx, s, classroomPipeline, rows)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
}

func (s *importService) Commit(ctx context.Context, entity Entity, token string, policy importer.Policy) (*dto.ImportResultResponse, error) {
	switch entity {
	case EntityCourse:
		return commit(ctx, s, s.coursePipeline(), token, policy)
	case EntityTeacher:
		return commit(ctx, s, teacherPipeline, token, policy)
	case EntityClassroom:
		return commit(ctx, s, classroomPipeline, token, policy)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
}

func (s *importService) Import(ctx context.Context, entity Entity, rows []importer.RawRow, policy importer.Policy) (*dto.ImportResultResponse, error) {
	switch entity {
	case EntityCourse:
		return importRows(ctx, s, s.coursePipeline(), rows, policy)
	case EntityTeacher:
		return importRows(ctx, s, teacherPipeline, rows, policy)
	case EntityClassroom:
		return importRows(ctx, s, classroomPipeline, rows, policy)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
}

func (s *importService) Plan(ctx context.Context, entity Entity, rows []importer.RawRow, policy importer.Policy) (*dto.ImportPlanResponse, error) {
	switch entity {
	case EntityCourse:
		return planRows(ctx, s, s.coursePipeline(), rows, policy)
	case EntityTeacher:
		return planRows(ctx, s, teacherPipeline, rows, policy)
	case EntityClassroom:
		return planRows(ctx, s, classroomPipeline, rows, policy)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
}

// ────────────────────── Preview ──────────────────────

// stagedBatch Redis 中暂存的批次
type stagedBatch struct {
	Entity Entity          `json:"entity"`
	Batch  json.RawMessage `json:"batch"`
}

func preview[T importer.Record](ctx context.Context, s *importService, p pipeline[T], rows []importer.RawRow) (*dto.ImportPreviewResponse, error) {
	batch, err := p.normalize(ctx, rows)
	if err != nil {
		s.metrics.Batch(string(p.entity), "", "invalid")
		return nil, err
	}
	existing, err := p.existing(ctx, s.repo)
	if err != nil {
		s.logger.Error("查询已有记录失败", zap.String("entity", string(p.entity)), zap.Error(err))
		return nil, err
	}

	analysis := importer.Analyze(batch.Records, existing)
	resp := &dto.ImportPreviewResponse{
		Entity:     string(p.entity),
		State:      analysis.State,
		Total:      analysis.Total,
		New:        analysis.New,
		Collisions: analysis.Collisions,
		Warnings:   nonNilWarnings(batch.Warnings),

		MissingReferences: []string{},
	}
	// 引用在提交时重新解析，此处只报告，不拒绝
	var be *importer.BatchError
	if errors.As(importer.CheckReferences(batch.Records), &be) {
		resp.MissingReferences = be.Details
	}

	token, expiresAt, err := s.stage(ctx, p.entity, batch)
	switch {
	case err == nil:
		resp.Token = token
		resp.ExpiresAt = &expiresAt
		if analysis.State == importer.StateHasConflicts {
			resp.State = importer.StateAwaitingPolicy
		}
	case errors.Is(err, apperrors.ErrStagingUnavailable):
		// 无暂存时仍返回分析结果，调用方改用一步导入
	default:
		s.logger.Warn("暂存导入批次失败", zap.String("entity", string(p.entity)), zap.Error(err))
	}
	s.metrics.Batch(string(p.entity), "", "previewed")
	return resp, nil
}

func (s *importService) stage(ctx context.Context, entity Entity, batch any) (string, time.Time, error) {
	if s.store == nil {
		return "", time.Time{}, apperrors.ErrStagingUnavailable
	}
	body, err := json.Marshal(batch)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("序列化导入批次失败: %w", err)
	}
	payload, err := json.Marshal(stagedBatch{Entity: entity, Batch: body})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("序列化导入批次失败: %w", err)
	}

	token := uuid.NewString()
	if err := s.store.SaveBatch(ctx, token, payload, s.cfg.StagingTTL); err != nil {
		return "", time.Time{}, err
	}
	return token, time.Now().Add(s.cfg.StagingTTL), nil
}

// ────────────────────── Commit ──────────────────────

func commit[T importer.Record](ctx context.Context, s *importService, p pipeline[T], token string, policy importer.Policy) (*dto.ImportResultResponse, error) {
	if s.store == nil {
		return nil, apperrors.ErrStagingUnavailable
	}
	payload, err := s.store.LoadBatch(ctx, token)
	if err != nil {
		return nil, err
	}

	var staged stagedBatch
	if err := json.Unmarshal(payload, &staged); err != nil {
		return nil, fmt.Errorf("解析暂存批次失败: %w", err)
	}
	if staged.Entity != p.entity {
		return nil, fmt.Errorf("%w: 暂存为 %s", ErrStagedEntityMismatch, staged.Entity)
	}
	var batch importer.Batch[T]
	if err := json.Unmarshal(staged.Batch, &batch); err != nil {
		return nil, fmt.Errorf("解析暂存批次失败: %w", err)
	}

	resp, err := apply(ctx, s, p, &batch, policy)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteBatch(ctx, token); err != nil {
		s.logger.Warn("删除已提交的暂存批次失败", zap.String("token", token), zap.Error(err))
	}
	return resp, nil
}

// ────────────────────── Import / Plan ──────────────────────

func importRows[T importer.Record](ctx context.Context, s *importService, p pipeline[T], rows []importer.RawRow, policy importer.Policy) (*dto.ImportResultResponse, error) {
	batch, err := p.normalize(ctx, rows)
	if err != nil {
		s.metrics.Batch(string(p.entity), policy.String(), "invalid")
		return nil, err
	}
	return apply(ctx, s, p, batch, policy)
}

func planRows[T importer.Record](ctx context.Context, s *importService, p pipeline[T], rows []importer.RawRow, policy importer.Policy) (*dto.ImportPlanResponse, error) {
	batch, normErr := p.normalize(ctx, rows)
	var rowErr *importer.RowError
	if normErr != nil && !errors.As(normErr, &rowErr) {
		return nil, normErr
	}
	existing, err := p.existing(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	plan, err := importer.Reconcile(batch, normErr, existing, policy)
	if plan != nil && !plan.Usable() {
		// 试运行把行错误作为计划内容返回
		return &dto.ImportPlanResponse{
			Entity:           string(p.entity),
			Policy:           policy,
			ToCreate:         []string{},
			ToUpdate:         []dto.PlannedUpdate{},
			Skipped:          []string{},
			Warnings:         []importer.Warning{},
			ValidationErrors: plan.ValidationErrors,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	resp := &dto.ImportPlanResponse{
		Entity:   string(p.entity),
		Policy:   policy,
		ToCreate: make([]string, 0, len(plan.ToCreate)),
		ToUpdate: make([]dto.PlannedUpdate, 0, len(plan.ToUpdate)),
		Skipped:  make([]string, 0, len(plan.Skipped)),
		Warnings: nonNilWarnings(batch.Warnings),
	}
	for _, r := range plan.ToCreate {
		resp.ToCreate = append(resp.ToCreate, r.DisplayKey())
	}
	for _, u := range plan.ToUpdate {
		resp.ToUpdate = append(resp.ToUpdate, dto.PlannedUpdate{Key: u.Record.DisplayKey(), ExistingID: u.ExistingID})
	}
	for _, r := range plan.Skipped {
		resp.Skipped = append(resp.Skipped, r.DisplayKey())
	}
	return resp, nil
}

// ════════════════════════════════════════════════════════════
// apply 生成计划并写库
//
// 外部引用与已有记录在写库前重新读取（预览与提交之间数据可能变化），
// 引用闸门随后在 BuildPlan 中执行。
// import.transactional 为 true 时读取、计划与写入在同一个事务中执行，
// 任一写入失败则全部回滚；否则保留失败前已写入的记录。
// ════════════════════════════════════════════════════════════

func apply[T importer.Record](ctx context.Context, s *importService, p pipeline[T], batch *importer.Batch[T], policy importer.Policy) (*dto.ImportResultResponse, error) {
	entity := string(p.entity)

	start := time.Now()
	var (
		plan   *importer.ConflictPlan[T]
		result *importer.ApplyResult
	)
	run := func(repo *repository.Repository) error {
		if p.resolve != nil {
			if err := p.resolve(ctx, repo, batch); err != nil {
				return err
			}
		}
		existing, err := p.existing(ctx, repo)
		if err != nil {
			return fmt.Errorf("查询已有记录失败: %w", err)
		}
		if plan, err = importer.BuildPlan(batch.Records, existing, policy); err != nil {
			return err
		}
		var applyErr error
		result, applyErr = importer.Apply(ctx, plan, p.committer(repo))
		return applyErr
	}
	var err error
	if s.cfg.Transactional {
		err = s.repo.Transaction(ctx, run)
	} else {
		err = run(s.repo)
	}
	if plan == nil {
		// 计划未生成，没有任何写入
		switch {
		case errors.Is(err, importer.ErrUnknownPolicy):
		case errors.As(err, new(*importer.BatchError)):
			s.metrics.Batch(entity, policy.String(), "rejected")
		default:
			s.logger.Error("生成导入计划失败", zap.String("entity", entity), zap.Error(err))
		}
		return nil, err
	}
	s.metrics.ApplyDuration(entity, time.Since(start))

	if err != nil {
		s.metrics.Batch(entity, policy.String(), "aborted")
		fields := []zap.Field{
			zap.String("entity", entity),
			zap.String("policy", policy.String()),
			zap.Bool("transactional", s.cfg.Transactional),
			zap.Error(err),
		}
		if result != nil && !s.cfg.Transactional {
			s.metrics.Records(entity, result.Created, result.Updated, 0)
			fields = append(fields, zap.Int("applied", result.Applied()))
		}
		s.logger.Error("导入写入失败", fields...)
		return nil, err
	}

	s.metrics.Batch(entity, policy.String(), "committed")
	s.metrics.Records(entity, result.Created, result.Updated, result.Skipped)
	s.logger.Info("导入完成",
		zap.String("entity", entity),
		zap.String("policy", policy.String()),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)

	return &dto.ImportResultResponse{
		Entity:     entity,
		Policy:     policy,
		State:      importer.StateCommitted,
		Created:    result.Created,
		Updated:    result.Updated,
		Skipped:    result.Skipped,
		CreatedIDs: result.CreatedIDs,
		Warnings:   nonNilWarnings(batch.Warnings),
	}, nil
}

func (s *importService) Transactional() bool { return s.cfg.Transactional }

func nonNilWarnings(w []importer.Warning) []importer.Warning {
	if w == nil {
		return []importer.Warning{}
	}
	return w
}

// ════════════════════════════════════════════════════════════
// 各记录类型的 pipeline
// ════════════════════════════════════════════════════════════

// ── 课程 ──

func (s *importService) coursePipeline() pipeline[importer.CanonicalCourse] {
	return pipeline[importer.CanonicalCourse]{
		entity: EntityCourse,
		normalize: func(ctx context.Context, rows []importer.RawRow) (*importer.Batch[importer.CanonicalCourse], error) {
			names, err := s.repo.Teacher.ListNames(ctx)
			if err != nil {
				return nil, fmt.Errorf("加载教师名录失败: %w", err)
			}
			return importer.NormalizeCourses(rows, importer.NewTeacherDirectory(names), importer.CourseOptions{MergeKey: s.mergeKey})
		},
		resolve: func(ctx context.Context, repo *repository.Repository, batch *importer.Batch[importer.CanonicalCourse]) error {
			names, err := repo.Teacher.ListNames(ctx)
			if err != nil {
				return fmt.Errorf("加载教师名录失败: %w", err)
			}
			importer.ResolveTeachers(batch.Records, importer.NewTeacherDirectory(names))
			return nil
		},
		existing: func(ctx context.Context, repo *repository.Repository) ([]importer.ExistingRecord, error) {
			return repo.Course.ListKeys(ctx)
		},
		committer: func(repo *repository.Repository) importer.Committer[importer.CanonicalCourse] {
			return importer.CommitterFuncs[importer.CanonicalCourse]{
				CreateFunc: func(ctx context.Context, c importer.CanonicalCourse) (int64, error) {
					course := courseModel(c)
					if err := repo.Course.Create(ctx, course); err != nil {
						return 0, err
					}
					return course.CourseID, nil
				},
				UpdateFunc: func(ctx context.Context, id int64, c importer.CanonicalCourse) error {
					course := courseModel(c)
					course.CourseID = id
					return repo.Course.Update(ctx, course)
				},
			}
		},
	}
}

func courseModel(c importer.CanonicalCourse) *model.Course {
	course := &model.Course{
		Code:        c.Code,
		Name:        c.Name,
		TeacherID:   c.TeacherID,
		Faculty:     c.Faculty,
		Level:       c.Level,
		Type:        c.Type,
		Category:    c.Category,
		Semester:    c.Semester,
		ECTS:        c.ECTS,
		IsActive:    c.IsActive,
		Departments: make([]model.CourseDepartment, 0, len(c.Departments)),
		Sessions:    make([]model.CourseSession, 0, len(c.Sessions)),
	}
	for _, d := range c.Departments {
		course.Departments = append(course.Departments, model.CourseDepartment{Department: d.Department, StudentCount: d.StudentCount})
	}
	for _, sess := range c.Sessions {
		course.Sessions = append(course.Sessions, model.CourseSession{Type: sess.Type, Hours: sess.Hours})
	}
	return course
}

// ── 教师 ──

var teacherPipeline = pipeline[importer.CanonicalTeacher]{
	entity: EntityTeacher,
	normalize: func(_ context.Context, rows []importer.RawRow) (*importer.Batch[importer.CanonicalTeacher], error) {
		return importer.NormalizeTeachers(rows)
	},
	existing: func(ctx context.Context, repo *repository.Repository) ([]importer.ExistingRecord, error) {
		return repo.Teacher.ListKeys(ctx)
	},
	committer: func(repo *repository.Repository) importer.Committer[importer.CanonicalTeacher] {
		return importer.CommitterFuncs[importer.CanonicalTeacher]{
			CreateFunc: func(ctx context.Context, t importer.CanonicalTeacher) (int64, error) {
				teacher := teacherModel(t)
				if err := repo.Teacher.Create(ctx, teacher); err != nil {
					return 0, err
				}
				return teacher.TeacherID, nil
			},
			UpdateFunc: func(ctx context.Context, id int64, t importer.CanonicalTeacher) error {
				teacher := teacherModel(t)
				teacher.TeacherID = id
				return repo.Teacher.Update(ctx, teacher)
			},
		}
	},
}

func teacherModel(t importer.CanonicalTeacher) *model.Teacher {
	teacher := &model.Teacher{
		Name:         t.Name,
		Email:        t.Email,
		Faculty:      t.Faculty,
		Department:   t.Department,
		Availability: make([]model.TeacherAvailability, 0, len(t.Availability)),
	}
	for _, w := range t.Availability {
		teacher.Availability = append(teacher.Availability, model.TeacherAvailability{
			DayOfWeek: int(w.Day),
			StartTime: w.Start,
			EndTime:   w.End,
		})
	}
	return teacher
}

// ── 教室 ──

var classroomPipeline = pipeline[importer.CanonicalClassroom]{
	entity: EntityClassroom,
	normalize: func(_ context.Context, rows []importer.RawRow) (*importer.Batch[importer.CanonicalClassroom], error) {
		return importer.NormalizeClassrooms(rows)
	},
	existing: func(ctx context.Context, repo *repository.Repository) ([]importer.ExistingRecord, error) {
		return repo.Classroom.ListKeys(ctx)
	},
	committer: func(repo *repository.Repository) importer.Committer[importer.CanonicalClassroom] {
		return importer.CommitterFuncs[importer.CanonicalClassroom]{
			CreateFunc: func(ctx context.Context, c importer.CanonicalClassroom) (int64, error) {
				classroom := classroomModel(c)
				if err := repo.Classroom.Create(ctx, classroom); err != nil {
					return 0, err
				}
				return classroom.ClassroomID, nil
			},
			UpdateFunc: func(ctx context.Context, id int64, c importer.CanonicalClassroom) error {
				classroom := classroomModel(c)
				classroom.ClassroomID = id
				return repo.Classroom.Update(ctx, classroom)
			},
		}
	},
}

func classroomModel(c importer.CanonicalClassroom) *model.Classroom {
	return &model.Classroom{
		Name:       c.Name,
		Capacity:   c.Capacity,
		Type:       c.Type,
		Faculty:    c.Faculty,
		Department: c.Department,
	}
}
