package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Jonathon-AR/resollectAssignment/internal/models"
)

// sqliteTimeLayout is fixed width so stored timestamps sort lexically
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

var taskColumns = []string{
	"id", "title", "description", "status", "deadline",
	"completed", "completed_at", "created_at", "updated_at",
}

// SQLiteStore implements TaskStore on a local SQLite database
type SQLiteStore struct {
	db      *sqlx.DB
	builder squirrel.StatementBuilderType
}

// taskRow mirrors the tasks table
type taskRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Status      string         `db:"status"`
	Deadline    string         `db:"deadline"`
	Completed   bool           `db:"completed"`
	CompletedAt sql.NullString `db:"completed_at"`
	CreatedAt   string         `db:"created_at"`
	UpdatedAt   string         `db:"updated_at"`
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// One connection serialises writers and keeps ":memory:" databases
	// from being recreated per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks that the database is usable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// ListTasks returns matching tasks, newest first
func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	query := s.builder.
		Select(taskColumns...).
		From("tasks").
		OrderBy("created_at DESC", "id DESC")
	if conditions := taskConditions(filter); len(conditions) > 0 {
		query = query.Where(conditions)
	}

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building task query: %w", err)
	}

	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, sqlQuery, args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}

	tasks := make([]models.Task, 0, len(rows))
	for _, row := range rows {
		task, err := row.toTask()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

// GetTask retrieves a single task by its ID
func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return s.getTask(ctx, s.db, id)
}

func (s *SQLiteStore) getTask(ctx context.Context, q sqlx.QueryerContext, id string) (*models.Task, error) {
	sqlQuery, args, err := s.builder.
		Select(taskColumns...).
		From("tasks").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building task query: %w", err)
	}

	var row taskRow
	if err := sqlx.GetContext(ctx, q, &row, sqlQuery, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}

	task, err := row.toTask()
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// InsertTask inserts a new task row
func (s *SQLiteStore) InsertTask(ctx context.Context, task *models.Task) error {
	sqlQuery, args, err := s.builder.
		Insert("tasks").
		Columns(taskColumns...).
		Values(
			task.ID, task.Title, task.Description, string(task.Status), formatTime(task.Deadline),
			boolToInt(task.Completed), formatNullTime(task.CompletedAt),
			formatTime(task.CreatedAt), formatTime(task.UpdatedAt),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, sqlQuery, args...); err != nil {
		return fmt.Errorf("inserting task %s: %w", task.ID, err)
	}

	return nil
}

// UpdateTask applies a partial update and returns the stored row
func (s *SQLiteStore) UpdateTask(ctx context.Context, id string, update TaskUpdate) (*models.Task, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	sqlQuery, args, err := s.builder.
		Update("tasks").
		SetMap(updateColumns(update)).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update: %w", err)
	}

	result, err := tx.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("reading affected rows: %w", err)
	}
	if affected == 0 {
		return nil, ErrTaskNotFound
	}

	task, err := s.getTask(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing update of task %s: %w", id, err)
	}
	return task, nil
}

// UpdateMany applies update to every matching row in one UPDATE statement
func (s *SQLiteStore) UpdateMany(ctx context.Context, filter TaskFilter, update TaskUpdate) (int64, error) {
	query := s.builder.
		Update("tasks").
		SetMap(updateColumns(update))
	if conditions := taskConditions(filter); len(conditions) > 0 {
		query = query.Where(conditions)
	}

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("building update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, fmt.Errorf("updating tasks: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}

	return affected, nil
}

// DeleteTask removes a task by ID
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	sqlQuery, args, err := s.builder.
		Delete("tasks").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if affected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// taskConditions translates a TaskFilter into WHERE clauses
func taskConditions(filter TaskFilter) squirrel.And {
	var conditions squirrel.And
	if filter.ID != nil {
		conditions = append(conditions, squirrel.Eq{"id": *filter.ID})
	}
	if filter.Status != nil {
		conditions = append(conditions, squirrel.Eq{"status": string(*filter.Status)})
	}
	if filter.DeadlineBefore != nil {
		conditions = append(conditions, squirrel.Lt{"deadline": formatTime(*filter.DeadlineBefore)})
	}
	return conditions
}

// updateColumns translates a TaskUpdate into column assignments
func updateColumns(update TaskUpdate) map[string]interface{} {
	columns := map[string]interface{}{"updated_at": formatTime(update.UpdatedAt)}
	if update.Title != nil {
		columns["title"] = *update.Title
	}
	if update.Description != nil {
		columns["description"] = *update.Description
	}
	if update.Status != nil {
		columns["status"] = string(*update.Status)
	}
	if update.Deadline != nil {
		columns["deadline"] = formatTime(*update.Deadline)
	}
	if update.Completed != nil {
		columns["completed"] = boolToInt(*update.Completed)
	}
	if update.SetCompletedAt {
		columns["completed_at"] = formatNullTime(update.CompletedAt)
	}
	return columns
}

// toTask converts a scanned row into a models.Task
func (r taskRow) toTask() (models.Task, error) {
	task := models.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      models.TaskStatus(r.Status),
		Completed:   r.Completed,
	}

	var err error
	if task.Deadline, err = parseTime(r.Deadline); err != nil {
		return models.Task{}, fmt.Errorf("parsing deadline of task %s: %w", r.ID, err)
	}
	if task.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return models.Task{}, fmt.Errorf("parsing created_at of task %s: %w", r.ID, err)
	}
	if task.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return models.Task{}, fmt.Errorf("parsing updated_at of task %s: %w", r.ID, err)
	}
	if r.CompletedAt.Valid {
		completedAt, err := parseTime(r.CompletedAt.String)
		if err != nil {
			return models.Task{}, fmt.Errorf("parsing completed_at of task %s: %w", r.ID, err)
		}
		task.CompletedAt = &completedAt
	}

	return task, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, value)
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
