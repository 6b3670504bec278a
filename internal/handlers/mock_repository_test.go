package handlers

import (
	"context"
	"sync"

	"github.com/chepyr/task-manager/internal/db"
	"github.com/chepyr/task-manager/internal/models"
)

// MockTaskRepository is an in-memory TaskRepositoryInterface with
// injectable failures.
type MockTaskRepository struct {
	tasks  map[int64]models.Task
	nextID int64
	mutex  sync.Mutex

	listErr   error
	insertErr error
	fetchErr  error
	updateErr error
	deleteErr error
	pingErr   error

	writes int
}

func NewMockTaskRepository() *MockTaskRepository {
	return &MockTaskRepository{tasks: make(map[int64]models.Task), nextID: 1}
}

func (m *MockTaskRepository) Init(ctx context.Context) error { return nil }

func (m *MockTaskRepository) Ping(ctx context.Context) error { return m.pingErr }

func (m *MockTaskRepository) ListAll(ctx context.Context) ([]models.Task, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}
	tasks := make([]models.Task, 0, len(m.tasks))
	for id := int64(1); id < m.nextID; id++ {
		if task, ok := m.tasks[id]; ok {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (m *MockTaskRepository) Insert(ctx context.Context, title, description string, status models.TaskStatus) (models.Task, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.insertErr != nil {
		return models.Task{}, m.insertErr
	}
	task := models.Task{ID: m.nextID, Title: title, Description: description, Status: status}
	m.tasks[task.ID] = task
	m.nextID++
	m.writes++
	return task, nil
}

func (m *MockTaskRepository) FetchByID(ctx context.Context, id int64) (models.Task, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.fetchErr != nil {
		return models.Task{}, m.fetchErr
	}
	task, ok := m.tasks[id]
	if !ok {
		return models.Task{}, db.ErrNotFound
	}
	return task, nil
}

func (m *MockTaskRepository) UpdateByID(ctx context.Context, id int64, title, description string, status models.TaskStatus) (models.Task, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.updateErr != nil {
		return models.Task{}, m.updateErr
	}
	if _, ok := m.tasks[id]; !ok {
		return models.Task{}, db.ErrNotFound
	}
	task := models.Task{ID: id, Title: title, Description: description, Status: status}
	m.tasks[id] = task
	m.writes++
	return task, nil
}

func (m *MockTaskRepository) DeleteByID(ctx context.Context, id int64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.tasks[id]; !ok {
		return db.ErrNotFound
	}
	delete(m.tasks, id)
	m.writes++
	return nil
}

func SetupMockTask(title string, status models.TaskStatus) *MockTaskRepository {
	repo := NewMockTaskRepository()
	repo.tasks[1] = models.Task{ID: 1, Title: title, Status: status}
	repo.nextID = 2
	return repo
}
