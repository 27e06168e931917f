package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam is a timed examination. TotalMarks always equals the sum of its
// questions' marks; it is maintained by the store when questions are added.
type Exam struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Description     string    `json:"description" db:"description"`
	StartTime       time.Time `json:"start_time" db:"start_time"`
	EndTime         time.Time `json:"end_time" db:"end_time"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	TotalMarks      int       `json:"total_marks" db:"total_marks"`
	PassingMarks    int       `json:"passing_marks" db:"passing_marks"`
	CreatedBy       int       `json:"created_by" db:"created_by"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// CreateExamRequest is the payload for authoring a new exam.
type CreateExamRequest struct {
	Title           string    `json:"title" binding:"required,min=3,max=200"`
	Description     string    `json:"description" binding:"omitempty,max=5000"`
	StartTime       time.Time `json:"start_time" binding:"required"`
	EndTime         time.Time `json:"end_time" binding:"required,gtfield=StartTime"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=1,max=1440"`
	PassingMarks    int       `json:"passing_marks" binding:"min=0"`
}

// ExamSnapshot is an exam together with its ordered questions, read in a
// single transaction so that TotalMarks matches the question set.
type ExamSnapshot struct {
	Exam      Exam
	Questions []Question
}

// ExamPaper is what a student sees when opening an exam: no answer keys.
type ExamPaper struct {
	Exam      Exam                 `json:"exam"`
	Questions []QuestionForStudent `json:"questions"`
}

// AdminDashboard summarises the platform for administrators.
type AdminDashboard struct {
	TotalStudents int    `json:"total_students"`
	TotalExams    int    `json:"total_exams"`
	Exams         []Exam `json:"exams"`
}

// StudentDashboard lists what a student can still take and what they scored.
type StudentDashboard struct {
	UpcomingExams []Exam      `json:"upcoming_exams"`
	Results       []ResultRow `json:"results"`
}

// ExamDetail is the exam overview page: the exam, how many questions it
// has, and the viewer's own result if they already sat it.
type ExamDetail struct {
	Exam          Exam    `json:"exam"`
	QuestionCount int     `json:"question_count"`
	Result        *Result `json:"result,omitempty"`
}
