package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/chepyr/task-manager/internal/models"
	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

var (
	ErrNotFound            = errors.New("task not found")
	ErrConstraintViolation = errors.New("task violates a table constraint")
)

var schemas = map[Dialect]string{
	DialectSQLite: `CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL CHECK (status IN ('pending', 'done'))
	)`,
	DialectPostgres: `CREATE TABLE IF NOT EXISTS tasks (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL CHECK (status IN ('pending', 'done'))
	)`,
}

// columns read back for every task; description may be NULL in tables
// created by older deployments
const taskColumns = `id, title, COALESCE(description, ''), status`

// defines methods for task db operations
type TaskRepositoryInterface interface {
	Init(ctx context.Context) error
	Ping(ctx context.Context) error
	ListAll(ctx context.Context) ([]models.Task, error)
	Insert(ctx context.Context, title, description string, status models.TaskStatus) (models.Task, error)
	FetchByID(ctx context.Context, id int64) (models.Task, error)
	UpdateByID(ctx context.Context, id int64, title, description string, status models.TaskStatus) (models.Task, error)
	DeleteByID(ctx context.Context, id int64) error
}

// TaskRepository runs every operation on its own pooled connection, which is
// released before the call returns. Calls are not grouped into transactions,
// so a caller's read followed by a write is not isolated.
type TaskRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewTaskRepository(db *sql.DB, dialect Dialect) *TaskRepository {
	return &TaskRepository{db: db, dialect: dialect}
}

// Init creates the tasks table if it does not exist. Existing rows are untouched.
func (r *TaskRepository) Init(ctx context.Context) error {
	schema, ok := schemas[r.dialect]
	if !ok {
		return fmt.Errorf("no schema for dialect %q", r.dialect)
	}
	return r.withConn(ctx, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("failed to create tasks table: %w", err)
		}
		return nil
	})
}

func (r *TaskRepository) Ping(ctx context.Context) error {
	return r.withConn(ctx, func(conn *sql.Conn) error {
		return conn.PingContext(ctx)
	})
}

// ListAll returns every task ordered by ascending id.
func (r *TaskRepository) ListAll(ctx context.Context) ([]models.Task, error) {
	tasks := make([]models.Task, 0)
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id ASC`)
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			task, err := scanTask(rows)
			if err != nil {
				return fmt.Errorf("failed to scan task: %w", err)
			}
			tasks = append(tasks, task)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) Insert(ctx context.Context, title, description string, status models.TaskStatus) (models.Task, error) {
	query := `INSERT INTO tasks (title, description, status) VALUES ($1, $2, $3)
	 RETURNING ` + taskColumns

	var task models.Task
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		task, err = scanTask(conn.QueryRowContext(ctx, query, title, description, string(status)))
		return classifyError("insert task", err)
	})
	return task, err
}

func (r *TaskRepository) FetchByID(ctx context.Context, id int64) (models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	var task models.Task
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		task, err = scanTask(conn.QueryRowContext(ctx, query, id))
		return classifyError("fetch task", err)
	})
	return task, err
}

// UpdateByID overwrites all mutable columns of the task.
func (r *TaskRepository) UpdateByID(ctx context.Context, id int64, title, description string, status models.TaskStatus) (models.Task, error) {
	query := `UPDATE tasks SET title = $1, description = $2, status = $3 WHERE id = $4
	 RETURNING ` + taskColumns

	var task models.Task
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		task, err = scanTask(conn.QueryRowContext(ctx, query, title, description, string(status), id))
		return classifyError("update task", err)
	})
	return task, err
}

func (r *TaskRepository) DeleteByID(ctx context.Context, id int64) error {
	return r.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
		if err != nil {
			return classifyError("delete task", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *TaskRepository) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("Error releasing database connection: %v", err)
		}
	}()
	return fn(conn)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var task models.Task
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Status)
	return task, err
}

func classifyError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case isConstraintViolation(err):
		return fmt.Errorf("failed to %s: %w: %v", op, ErrConstraintViolation, err)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

func isConstraintViolation(err error) bool {
	var mattnErr sqlite3.Error
	if errors.As(err, &mattnErr) {
		return mattnErr.Code == sqlite3.ErrConstraint
	}
	var moderncErr *sqlite.Error
	if errors.As(err, &moderncErr) {
		return moderncErr.Code()&0xff == sqlitelib.SQLITE_CONSTRAINT
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// class 23: integrity_constraint_violation
		return pqErr.Code.Class() == "23"
	}
	return false
}
