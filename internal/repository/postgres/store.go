// Package postgres implements repository.Store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-online/internal/model"
	"github.com/stemsi/exstem-online/internal/repository"
)

const uniqueViolation = "23505"

// Store is a pgxpool-backed repository.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

// New wraps an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

// ─── Users ──────────────────────────────────────────────────────────────

const userColumns = `id, username, email, password_hash, full_name, is_admin, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.IsAdmin, &u.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// CreateUser inserts a user; the first account becomes an administrator.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, full_name, is_admin)
		 VALUES ($1, $2, $3, $4, $5 OR NOT EXISTS (SELECT 1 FROM users))
		 RETURNING id, is_admin, created_at`,
		u.Username, u.Email, u.PasswordHash, u.FullName, u.IsAdmin,
	).Scan(&u.ID, &u.IsAdmin, &u.CreatedAt)
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
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByUsername retrieves a user for login.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// CountStudents counts non-administrator accounts.
func (s *Store) CountStudents(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE NOT is_admin`).Scan(&n)
	return n, err
}

// ─── Exams ──────────────────────────────────────────────────────────────

const examColumns = `id, title, description, start_time, end_time, duration_minutes,
	total_marks, passing_marks, created_by, created_at`

func scanExam(row pgx.Row) (*model.Exam, error) {
	e := &model.Exam{}
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.StartTime, &e.EndTime, &e.DurationMinutes,
		&e.TotalMarks, &e.PassingMarks, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// CreateExam inserts an exam with zero total marks.
func (s *Store) CreateExam(ctx context.Context, e *model.Exam) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return s.pool.QueryRow(ctx,
		`INSERT INTO exams (id, title, description, start_time, end_time, duration_minutes,
		                    total_marks, passing_marks, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)
		 RETURNING total_marks, created_at`,
		e.ID, e.Title, e.Description, e.StartTime, e.EndTime, e.DurationMinutes, e.PassingMarks, e.CreatedBy,
	).Scan(&e.TotalMarks, &e.CreatedAt)
}

// GetExam retrieves an exam by its UUID.
func (s *Store) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return scanExam(s.pool.QueryRow(ctx, `SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
}

// ListExams returns all exams ordered by start time.
func (s *Store) ListExams(ctx context.Context) ([]model.Exam, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+examColumns+` FROM exams ORDER BY start_time, created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// CountExams counts all exams.
func (s *Store) CountExams(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exams`).Scan(&n)
	return n, err
}

// ─── Questions ──────────────────────────────────────────────────────────

const questionColumns = `id, exam_id, question_type, question_text, options, correct_answer, marks, order_num`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listQuestions(ctx context.Context, q querier, examID uuid.UUID) ([]model.Question, error) {
	rows, err := q.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE exam_id = $1 ORDER BY order_num`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var (
			qu   model.Question
			opts *string
		)
		if err := rows.Scan(&qu.ID, &qu.ExamID, &qu.Key.Kind, &qu.Text, &opts, &qu.Key.Value, &qu.Marks, &qu.OrderNum); err != nil {
			return nil, err
		}
		if opts != nil {
			if err := qu.Options.Scan(*opts); err != nil {
				return nil, fmt.Errorf("question %s options: %w", qu.ID, err)
			}
		}
		questions = append(questions, qu)
	}
	return questions, rows.Err()
}

// AddQuestion appends a question under a row lock on its exam.
func (s *Store) AddQuestion(ctx context.Context, q *model.Question) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	opts, err := q.Options.Value()
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM exams WHERE id = $1 FOR UPDATE`, q.ExamID).Scan(&locked); err != nil {
		return notFound(err)
	}

	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(order_num), 0) + 1 FROM questions WHERE exam_id = $1`, q.ExamID,
	).Scan(&q.OrderNum); err != nil {
		return fmt.Errorf("next order_num: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO questions (id, exam_id, question_type, question_text, options, correct_answer, marks, order_num)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		q.ID, q.ExamID, string(q.Key.Kind), q.Text, opts, q.Key.Value, q.Marks, q.OrderNum,
	); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE exams SET total_marks = total_marks + $1 WHERE id = $2`, q.Marks, q.ExamID,
	); err != nil {
		return fmt.Errorf("bump total marks: %w", err)
	}

	return tx.Commit(ctx)
}

// ListQuestions returns an exam's questions in order.
func (s *Store) ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	return listQuestions(ctx, s.pool, examID)
}

// GetExamSnapshot reads exam and questions under REPEATABLE READ so that
// total_marks agrees with the question set.
func (s *Store) GetExamSnapshot(ctx context.Context, examID uuid.UUID) (*model.ExamSnapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	exam, err := scanExam(tx.QueryRow(ctx, `SELECT `+examColumns+` FROM exams WHERE id = $1`, examID))
	if err != nil {
		return nil, err
	}
	questions, err := listQuestions(ctx, tx, examID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &model.ExamSnapshot{Exam: *exam, Questions: questions}, nil
}

// ─── Results ────────────────────────────────────────────────────────────

const resultColumns = `id, user_id, exam_id, total_marks, marks_obtained, percentage, status, submitted_at, email_sent`

func scanResult(row pgx.Row) (*model.Result, error) {
	r := &model.Result{}
	err := row.Scan(&r.ID, &r.UserID, &r.ExamID, &r.TotalMarks, &r.MarksObtained, &r.Percentage,
		&r.Status, &r.SubmittedAt, &r.EmailSent)
	if err != nil {
		return nil, notFound(err)
	}
	return r, nil
}

// GetResultByUserAndExam finds a user's attempt at an exam.
func (s *Store) GetResultByUserAndExam(ctx context.Context, userID int, examID uuid.UUID) (*model.Result, error) {
	return scanResult(s.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM results WHERE user_id = $1 AND exam_id = $2`, userID, examID))
}

// CreateResult inserts the result and its answers in one transaction.
func (s *Store) CreateResult(ctx context.Context, r *model.Result) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO results (id, user_id, exam_id, total_marks, marks_obtained, percentage, status, submitted_at, email_sent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)`,
		r.ID, r.UserID, r.ExamID, r.TotalMarks, r.MarksObtained, r.Percentage, string(r.Status), r.SubmittedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateResult
		}
		return fmt.Errorf("insert result: %w", err)
	}

	for i := range r.Answers {
		r.Answers[i].ResultID = r.ID
		if r.Answers[i].ID == uuid.Nil {
			r.Answers[i].ID = uuid.New()
		}
	}

	if len(r.Answers) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"answers"},
			[]string{"id", "result_id", "question_id", "answer_text", "is_correct", "marks_obtained"},
			pgx.CopyFromSlice(len(r.Answers), func(i int) ([]any, error) {
				a := r.Answers[i]
				return []any{a.ID, a.ResultID, a.QuestionID, a.AnswerText, a.IsCorrect, a.MarksObtained}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy answers: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit result: %w", err)
	}
	r.EmailSent = false
	return nil
}

// SetEmailSent records the notification outcome.
func (s *Store) SetEmailSent(ctx context.Context, id uuid.UUID, sent bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE results SET email_sent = $1 WHERE id = $2`, sent, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetResult returns a result with its answers in question order.
func (s *Store) GetResult(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	r, err := scanResult(s.pool.QueryRow(ctx, `SELECT `+resultColumns+` FROM results WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT a.id, a.result_id, a.question_id, a.answer_text, a.is_correct, a.marks_obtained
		 FROM answers a JOIN questions q ON q.id = a.question_id
		 WHERE a.result_id = $1 ORDER BY q.order_num`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.ResultID, &a.QuestionID, &a.AnswerText, &a.IsCorrect, &a.MarksObtained); err != nil {
			return nil, err
		}
		r.Answers = append(r.Answers, a)
	}
	return r, rows.Err()
}

// ListResults lists results joined with exam and student, newest first.
func (s *Store) ListResults(ctx context.Context, f model.ResultFilter) ([]model.ResultRow, error) {
	query := `SELECT r.id, r.user_id, r.exam_id, r.total_marks, r.marks_obtained, r.percentage,
	                 r.status, r.submitted_at, r.email_sent, e.title, u.username, u.full_name, u.email
	          FROM results r
	          JOIN exams e ON e.id = r.exam_id
	          JOIN users u ON u.id = r.user_id
	          WHERE TRUE`
	var args []any
	if f.UserID != nil {
		args = append(args, *f.UserID)
		query += fmt.Sprintf(` AND r.user_id = $%d`, len(args))
	}
	if f.ExamID != nil {
		args = append(args, *f.ExamID)
		query += fmt.Sprintf(` AND r.exam_id = $%d`, len(args))
	}
	query += ` ORDER BY r.submitted_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ResultRow
	for rows.Next() {
		var row model.ResultRow
		if err := rows.Scan(&row.ID, &row.UserID, &row.ExamID, &row.TotalMarks, &row.MarksObtained,
			&row.Percentage, &row.Status, &row.SubmittedAt, &row.EmailSent,
			&row.ExamTitle, &row.Username, &row.FullName, &row.Email); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
