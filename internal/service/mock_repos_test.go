package service

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"campus-scheduler/internal/model"
	"campus-scheduler/internal/repository"
	apperrors "campus-scheduler/pkg/errors"
)

// ── Mock TeacherRepository ──

type mockTeacherRepo struct {
	teachers map[int64]*model.Teacher
	nextID   int64
	failOn   map[string]error // email → Create/Update 返回的错误
	listErr  error
}

func newMockTeacherRepo() *mockTeacherRepo {
	return &mockTeacherRepo{teachers: make(map[int64]*model.Teacher), nextID: 1, failOn: map[string]error{}}
}

func (m *mockTeacherRepo) sorted() []*model.Teacher {
	list := make([]*model.Teacher, 0, len(m.teachers))
	for _, t := range m.teachers {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].TeacherID < list[j].TeacherID })
	return list
}

func (m *mockTeacherRepo) ListKeys(_ context.Context) ([]model.KeyRef, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var keys []model.KeyRef
	for _, t := range m.sorted() {
		keys = append(keys, model.KeyRef{ID: t.TeacherID, Key: t.Email})
	}
	return keys, nil
}

func (m *mockTeacherRepo) ListNames(_ context.Context) ([]model.KeyRef, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var keys []model.KeyRef
	for _, t := range m.sorted() {
		keys = append(keys, model.KeyRef{ID: t.TeacherID, Key: t.Name})
	}
	return keys, nil
}

func (m *mockTeacherRepo) GetByID(_ context.Context, id int64) (*model.Teacher, error) {
	if t, ok := m.teachers[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) List(_ context.Context) ([]model.Teacher, error) {
	var list []model.Teacher
	for _, t := range m.sorted() {
		list = append(list, *t)
	}
	return list, nil
}

func (m *mockTeacherRepo) Create(_ context.Context, teacher *model.Teacher) error {
	if err := m.failOn[teacher.Email]; err != nil {
		return err
	}
	teacher.TeacherID = m.nextID
	m.nextID++
	m.teachers[teacher.TeacherID] = teacher
	return nil
}

func (m *mockTeacherRepo) Update(_ context.Context, teacher *model.Teacher) error {
	if err := m.failOn[teacher.Email]; err != nil {
		return err
	}
	if _, ok := m.teachers[teacher.TeacherID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.teachers[teacher.TeacherID] = teacher
	return nil
}

// ── Mock ClassroomRepository ──

type mockClassroomRepo struct {
	classrooms map[int64]*model.Classroom
	nextID     int64
	failOn     map[string]error // name → 错误
}

func newMockClassroomRepo() *mockClassroomRepo {
	return &mockClassroomRepo{classrooms: make(map[int64]*model.Classroom), nextID: 1, failOn: map[string]error{}}
}

func (m *mockClassroomRepo) ListKeys(_ context.Context) ([]model.KeyRef, error) {
	var keys []model.KeyRef
	for _, c := range m.classrooms {
		keys = append(keys, model.KeyRef{ID: c.ClassroomID, Key: c.Name})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].ID < keys[j].ID })
	return keys, nil
}

func (m *mockClassroomRepo) GetByID(_ context.Context, id int64) (*model.Classroom, error) {
	if c, ok := m.classrooms[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassroomRepo) List(_ context.Context) ([]model.Classroom, error) {
	var list []model.Classroom
	for _, c := range m.classrooms {
		list = append(list, *c)
	}
	return list, nil
}

func (m *mockClassroomRepo) Create(_ context.Context, classroom *model.Classroom) error {
	if err := m.failOn[classroom.Name]; err != nil {
		return err
	}
	classroom.ClassroomID = m.nextID
	m.nextID++
	m.classrooms[classroom.ClassroomID] = classroom
	return nil
}

func (m *mockClassroomRepo) Update(_ context.Context, classroom *model.Classroom) error {
	if err := m.failOn[classroom.Name]; err != nil {
		return err
	}
	if _, ok := m.classrooms[classroom.ClassroomID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.classrooms[classroom.ClassroomID] = classroom
	return nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[int64]*model.Course
	nextID  int64
	failOn  map[string]error // code → 错误
	updates int
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[int64]*model.Course), nextID: 1, failOn: map[string]error{}}
}

func (m *mockCourseRepo) ListKeys(_ context.Context) ([]model.KeyRef, error) {
	var keys []model.KeyRef
	for _, c := range m.courses {
		keys = append(keys, model.KeyRef{ID: c.CourseID, Key: c.Code, Variant: c.Name})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].ID < keys[j].ID })
	return keys, nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id int64) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) List(_ context.Context) ([]model.Course, error) {
	var list []model.Course
	for _, c := range m.courses {
		list = append(list, *c)
	}
	return list, nil
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	if err := m.failOn[course.Code]; err != nil {
		return err
	}
	course.CourseID = m.nextID
	m.nextID++
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	if err := m.failOn[course.Code]; err != nil {
		return err
	}
	if _, ok := m.courses[course.CourseID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.courses[course.CourseID] = course
	m.updates++
	return nil
}

// ── Mock ScheduleEntryRepository ──

type mockScheduleEntryRepo struct {
	entries  []*model.ScheduleEntry
	nextID   int64
	courses  *mockCourseRepo
	rooms    *mockClassroomRepo
	listErr  error
	lastList repository.ScheduleEntryFilter
}

func newMockScheduleEntryRepo(courses *mockCourseRepo, rooms *mockClassroomRepo) *mockScheduleEntryRepo {
	return &mockScheduleEntryRepo{nextID: 1, courses: courses, rooms: rooms}
}

// List 模拟预加载：从课程与教室 mock 中回填关联
func (m *mockScheduleEntryRepo) List(_ context.Context, filter repository.ScheduleEntryFilter) ([]model.ScheduleEntry, error) {
	m.lastList = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	var list []model.ScheduleEntry
	for _, e := range m.entries {
		if filter.CourseID > 0 && e.CourseID != filter.CourseID {
			continue
		}
		if filter.ClassroomID > 0 && e.ClassroomID != filter.ClassroomID {
			continue
		}
		item := *e
		item.Course = m.courses.courses[e.CourseID]
		item.Classroom = m.rooms.classrooms[e.ClassroomID]
		if filter.TeacherID > 0 && (item.Course == nil || item.Course.TeacherID != filter.TeacherID) {
			continue
		}
		list = append(list, item)
	}
	return list, nil
}

func (m *mockScheduleEntryRepo) GetByID(_ context.Context, id int64) (*model.ScheduleEntry, error) {
	for _, e := range m.entries {
		if e.ScheduleEntryID == id {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleEntryRepo) Create(_ context.Context, entry *model.ScheduleEntry) error {
	entry.ScheduleEntryID = m.nextID
	entry.CreatedAt = time.Date(2024, 9, 16, 8, 0, 0, 0, time.UTC)
	m.nextID++
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockScheduleEntryRepo) Delete(_ context.Context, id int64) error {
	for i, e := range m.entries {
		if e.ScheduleEntryID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// add 直接插入条目（测试准备数据）
func (m *mockScheduleEntryRepo) add(day int, start, end string, courseID, classroomID int64) *model.ScheduleEntry {
	e := &model.ScheduleEntry{DayOfWeek: day, StartTime: start, EndTime: end, CourseID: courseID, ClassroomID: classroomID}
	_ = m.Create(context.Background(), e)
	return e
}

// ── Mock BatchStore ──

type mockBatchStore struct {
	batches map[string][]byte
	ttls    map[string]time.Duration
	saveErr error
	deleted []string
}

func newMockBatchStore() *mockBatchStore {
	return &mockBatchStore{batches: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockBatchStore) SaveBatch(_ context.Context, token string, payload []byte, ttl time.Duration) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.batches[token] = payload
	m.ttls[token] = ttl
	return nil
}

func (m *mockBatchStore) LoadBatch(_ context.Context, token string) ([]byte, error) {
	if p, ok := m.batches[token]; ok {
		return p, nil
	}
	return nil, apperrors.ErrStagedBatchNotFound
}

func (m *mockBatchStore) DeleteBatch(_ context.Context, token string) error {
	delete(m.batches, token)
	m.deleted = append(m.deleted, token)
	return nil
}

// ── 测试夹具 ──

type mockRepos struct {
	teachers   *mockTeacherRepo
	classrooms *mockClassroomRepo
	courses    *mockCourseRepo
	entries    *mockScheduleEntryRepo
}

func newMockRepository() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		teachers:   newMockTeacherRepo(),
		classrooms: newMockClassroomRepo(),
		courses:    newMockCourseRepo(),
	}
	m.entries = newMockScheduleEntryRepo(m.courses, m.classrooms)
	repo := &repository.Repository{
		Teacher:       m.teachers,
		Classroom:     m.classrooms,
		Course:        m.courses,
		ScheduleEntry: m.entries,
	}
	return repo, m
}

// seedTeacher 预置教师
func (m *mockRepos) seedTeacher(name, email string) *model.Teacher {
	t := &model.Teacher{Name: name, Email: email}
	_ = m.teachers.Create(context.Background(), t)
	return t
}

// seedCourse 预置课程，students 为单一院系人数
func (m *mockRepos) seedCourse(code, name string, teacherID int64, students int) *model.Course {
	c := &model.Course{
		Code:        code,
		Name:        name,
		TeacherID:   teacherID,
		Departments: []model.CourseDepartment{{Department: "Bilgisayar Mühendisliği", StudentCount: students}},
	}
	_ = m.courses.Create(context.Background(), c)
	return c
}

// seedClassroom 预置教室
func (m *mockRepos) seedClassroom(name string, capacity int) *model.Classroom {
	c := &model.Classroom{Name: name, Capacity: capacity, Type: model.CourseTypeTheory}
	_ = m.classrooms.Create(context.Background(), c)
	return c
}
