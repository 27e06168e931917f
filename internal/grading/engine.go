// Package grading scores submitted answers against answer keys.
package grading

import (
	"strings"

	"github.com/stemsi/exstem-online/internal/model"
)

// Outcome is the verdict for a single answer.
type Outcome struct {
	Correct bool
	Marks   int
}

// Grade scores one submission. An empty submission is wrong, never an error.
// Multiple-choice and true/false submissions must match the stored key
// exactly. Free-response (brief) answers always score zero pending manual
// review.
func Grade(q model.Question, submitted string) Outcome {
	if submitted == "" {
		return Outcome{}
	}

	var correct bool
	switch q.Key.Kind {
	case model.QuestionTypeMCQ, model.QuestionTypeTrueFalse:
		correct = submitted == q.Key.Value
	case model.QuestionTypeFillBlank:
		correct = strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(q.Key.Value))
	default:
		return Outcome{}
	}

	if !correct {
		return Outcome{}
	}
	return Outcome{Correct: true, Marks: q.Marks}
}

// Summary is the aggregate of an attempt.
type Summary struct {
	MarksObtained int
	Percentage    float64
	Status        model.ResultStatus
}

// Summarize totals outcomes against the exam's marks. Percentage is zero
// when totalMarks is zero; the attempt passes when marks reach passingMarks.
func Summarize(outcomes []Outcome, totalMarks, passingMarks int) Summary {
	var s Summary
	for _, o := range outcomes {
		s.MarksObtained += o.Marks
	}
	if totalMarks > 0 {
		s.Percentage = float64(s.MarksObtained) / float64(totalMarks) * 100
	}
	s.Status = model.ResultStatusFail
	if s.MarksObtained >= passingMarks {
		s.Status = model.ResultStatusPass
	}
	return s
}
