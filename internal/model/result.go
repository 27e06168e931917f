package model

import (
	"time"

	"github.com/google/uuid"
)

// ResultStatus is the pass/fail verdict of an attempt.
type ResultStatus string

const (
	ResultStatusPass ResultStatus = "pass"
	ResultStatusFail ResultStatus = "fail"
)

// Result is one student's graded attempt at one exam. At most one exists per
// (user, exam); only EmailSent changes after creation.
type Result struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	UserID        int          `json:"user_id" db:"user_id"`
	ExamID        uuid.UUID    `json:"exam_id" db:"exam_id"`
	TotalMarks    int          `json:"total_marks" db:"total_marks"`
	MarksObtained int          `json:"marks_obtained" db:"marks_obtained"`
	Percentage    float64      `json:"percentage" db:"percentage"`
	Status        ResultStatus `json:"status" db:"status"`
	SubmittedAt   time.Time    `json:"submitted_at" db:"submitted_at"`
	EmailSent     bool         `json:"email_sent" db:"email_sent"`
	Answers       []Answer     `json:"answers,omitempty" db:"-"`
}

// Answer is the graded response to a single question.
type Answer struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ResultID      uuid.UUID `json:"result_id" db:"result_id"`
	QuestionID    uuid.UUID `json:"question_id" db:"question_id"`
	AnswerText    string    `json:"answer_text" db:"answer_text"`
	IsCorrect     bool      `json:"is_correct" db:"is_correct"`
	MarksObtained int       `json:"marks_obtained" db:"marks_obtained"`
}

// SubmitRequest maps question IDs to the student's raw answers.
type SubmitRequest struct {
	Answers map[string]string `json:"answers" binding:"omitempty"`
}

// ResultRow is a result joined with its exam and student for listings.
type ResultRow struct {
	Result
	ExamTitle string `json:"exam_title" db:"exam_title"`
	Username  string `json:"username" db:"username"`
	FullName  string `json:"full_name" db:"full_name"`
	Email     string `json:"email" db:"email"`
}

// ResultFilter narrows a result listing. Nil fields are not applied.
type ResultFilter struct {
	UserID *int
	ExamID *uuid.UUID
}
