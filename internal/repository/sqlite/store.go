// Package sqlite implements repository.Store on SQLite via sqlx and the
// pure-Go modernc driver. It backs single-node deployments and tests.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/stemsi/exstem-online/internal/model"
	"github.com/stemsi/exstem-online/internal/repository"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store is a sqlx-backed repository.Store.
type Store struct {
	db *sqlx.DB
}

var _ repository.Store = (*Store)(nil)

// New wraps an open database and brings its schema up to date.
func New(db *sqlx.DB) (*Store, error) {
	if err := migrateUp(db.DB); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	defer src.Close()

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	// m.Close would close the shared *sql.DB; the source is closed above.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// DB exposes the underlying handle for tests and tooling.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

// ─── Users ──────────────────────────────────────────────────────────────

const userColumns = `id, username, email, password_hash, full_name, is_admin, created_at`

// CreateUser inserts a user; the first account becomes an administrator.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	u.CreatedAt = time.Now().UTC()
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO users (username, email, password_hash, full_name, is_admin, created_at)
		 VALUES (?, ?, ?, ?, ? OR NOT EXISTS (SELECT 1 FROM users), ?)
		 RETURNING id, is_admin`,
		u.Username, u.Email, u.PasswordHash, u.FullName, u.IsAdmin, u.CreatedAt,
	).Scan(&u.ID, &u.IsAdmin)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateUser
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by primary key.
func (s *Store) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	var u model.User
	if err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetUserByUsername retrieves a user for login.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE username = ?`, username); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// CountStudents counts non-administrator accounts.
func (s *Store) CountStudents(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE is_admin = 0`)
	return n, err
}

// ─── Exams ──────────────────────────────────────────────────────────────

const examColumns = `id, title, description, start_time, end_time, duration_minutes,
	total_marks, passing_marks, created_by, created_at`

// CreateExam inserts an exam with zero total marks.
func (s *Store) CreateExam(ctx context.Context, e *model.Exam) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.TotalMarks = 0
	e.CreatedAt = time.Now().UTC()
	e.StartTime = e.StartTime.UTC()
	e.EndTime = e.EndTime.UTC()

	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO exams (`+examColumns+`)
		 VALUES (:id, :title, :description, :start_time, :end_time, :duration_minutes,
		         :total_marks, :passing_marks, :created_by, :created_at)`, e)
	if err != nil {
		return fmt.Errorf("insert exam: %w", err)
	}
	return nil
}

// GetExam retrieves an exam by its UUID.
func (s *Store) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return getExam(ctx, s.db, id)
}

func getExam(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*model.Exam, error) {
	var e model.Exam
	if err := sqlx.GetContext(ctx, q, &e, `SELECT `+examColumns+` FROM exams WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// ListExams returns all exams ordered by start time.
func (s *Store) ListExams(ctx context.Context) ([]model.Exam, error) {
	var exams []model.Exam
	if err := s.db.SelectContext(ctx, &exams, `SELECT `+examColumns+` FROM exams ORDER BY start_time, created_at`); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return exams, nil
}

// CountExams counts all exams.
func (s *Store) CountExams(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM exams`)
	return n, err
}

// ─── Questions ──────────────────────────────────────────────────────────

type questionRow struct {
	ID            uuid.UUID     `db:"id"`
	ExamID        uuid.UUID     `db:"exam_id"`
	QuestionType  string        `db:"question_type"`
	QuestionText  string        `db:"question_text"`
	Options       model.Options `db:"options"`
	CorrectAnswer string        `db:"correct_answer"`
	Marks         int           `db:"marks"`
	OrderNum      int           `db:"order_num"`
}

func (r questionRow) toModel() model.Question {
	return model.Question{
		ID:       r.ID,
		ExamID:   r.ExamID,
		Text:     r.QuestionText,
		Options:  r.Options,
		Key:      model.AnswerKey{Kind: model.QuestionType(r.QuestionType), Value: r.CorrectAnswer},
		Marks:    r.Marks,
		OrderNum: r.OrderNum,
	}
}

func listQuestions(ctx context.Context, q sqlx.QueryerContext, examID uuid.UUID) ([]model.Question, error) {
	var rows []questionRow
	err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT id, exam_id, question_type, question_text, options, correct_answer, marks, order_num
		 FROM questions WHERE exam_id = ? ORDER BY order_num`, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	questions := make([]model.Question, 0, len(rows))
	for _, r := range rows {
		questions = append(questions, r.toModel())
	}
	return questions, nil
}

// AddQuestion appends a question and bumps the exam total in one transaction.
func (s *Store) AddQuestion(ctx context.Context, q *model.Question) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := getExam(ctx, tx, q.ExamID); err != nil {
		return err
	}

	if err := tx.GetContext(ctx, &q.OrderNum,
		`SELECT COALESCE(MAX(order_num), 0) + 1 FROM questions WHERE exam_id = ?`, q.ExamID); err != nil {
		return fmt.Errorf("next order_num: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO questions (id, exam_id, question_type, question_text, options, correct_answer, marks, order_num)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.ExamID, string(q.Key.Kind), q.Text, q.Options, q.Key.Value, q.Marks, q.OrderNum,
	); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE exams SET total_marks = total_marks + ? WHERE id = ?`, q.Marks, q.ExamID,
	); err != nil {
		return fmt.Errorf("bump total marks: %w", err)
	}

	return tx.Commit()
}

// ListQuestions returns an exam's questions in order.
func (s *Store) ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	return listQuestions(ctx, s.db, examID)
}

// GetExamSnapshot reads the exam and its questions in one transaction.
func (s *Store) GetExamSnapshot(ctx context.Context, examID uuid.UUID) (*model.ExamSnapshot, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	exam, err := getExam(ctx, tx, examID)
	if err != nil {
		return nil, err
	}
	questions, err := listQuestions(ctx, tx, examID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &model.ExamSnapshot{Exam: *exam, Questions: questions}, nil
}

// ─── Results ────────────────────────────────────────────────────────────

const resultColumns = `id, user_id, exam_id, total_marks, marks_obtained, percentage, status, submitted_at, email_sent`

// GetResultByUserAndExam finds a user's attempt at an exam.
func (s *Store) GetResultByUserAndExam(ctx context.Context, userID int, examID uuid.UUID) (*model.Result, error) {
	var r model.Result
	err := s.db.GetContext(ctx, &r,
		`SELECT `+resultColumns+` FROM results WHERE user_id = ? AND exam_id = ?`, userID, examID)
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// CreateResult inserts the result and its answers in one transaction.
func (s *Store) CreateResult(ctx context.Context, r *model.Result) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.SubmittedAt = r.SubmittedAt.UTC()
	r.EmailSent = false

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO results (`+resultColumns+`)
		 VALUES (:id, :user_id, :exam_id, :total_marks, :marks_obtained, :percentage, :status, :submitted_at, :email_sent)`,
		r,
	); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateResult
		}
		return fmt.Errorf("insert result: %w", err)
	}

	for i := range r.Answers {
		a := &r.Answers[i]
		a.ResultID = r.ID
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO answers (id, result_id, question_id, answer_text, is_correct, marks_obtained)
			 VALUES (:id, :result_id, :question_id, :answer_text, :is_correct, :marks_obtained)`,
			a,
		); err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit result: %w", err)
	}
	return nil
}

// SetEmailSent records the notification outcome.
func (s *Store) SetEmailSent(ctx context.Context, id uuid.UUID, sent bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE results SET email_sent = ? WHERE id = ?`, sent, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetResult returns a result with its answers in question order.
func (s *Store) GetResult(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	var r model.Result
	if err := s.db.GetContext(ctx, &r, `SELECT `+resultColumns+` FROM results WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	err := s.db.SelectContext(ctx, &r.Answers,
		`SELECT a.id, a.result_id, a.question_id, a.answer_text, a.is_correct, a.marks_obtained
		 FROM answers a JOIN questions q ON q.id = a.question_id
		 WHERE a.result_id = ? ORDER BY q.order_num`, id)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return &r, nil
}

// ListResults lists results joined with exam and student, newest first.
func (s *Store) ListResults(ctx context.Context, f model.ResultFilter) ([]model.ResultRow, error) {
	query := `SELECT r.id, r.user_id, r.exam_id, r.total_marks, r.marks_obtained, r.percentage,
	                 r.status, r.submitted_at, r.email_sent,
	                 e.title AS exam_title, u.username, u.full_name, u.email
	          FROM results r
	          JOIN exams e ON e.id = r.exam_id
	          JOIN users u ON u.id = r.user_id
	          WHERE 1 = 1`
	var args []any
	if f.UserID != nil {
		query += ` AND r.user_id = ?`
		args = append(args, *f.UserID)
	}
	if f.ExamID != nil {
		query += ` AND r.exam_id = ?`
		args = append(args, *f.ExamID)
	}
	query += ` ORDER BY r.submitted_at DESC`

	var rows []model.ResultRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return rows, nil
}
