package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stemsi/exstem-online/internal/model"
)

func question(kind model.QuestionType, key string, marks int) model.Question {
	return model.Question{Key: model.AnswerKey{Kind: kind, Value: key}, Marks: marks}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		name      string
		q         model.Question
		submitted string
		want      Outcome
	}{
		{"mcq correct", question(model.QuestionTypeMCQ, "B", 10), "B", Outcome{true, 10}},
		{"mcq wrong", question(model.QuestionTypeMCQ, "B", 10), "A", Outcome{}},
		{"mcq is case sensitive", question(model.QuestionTypeMCQ, "B", 10), "b", Outcome{}},
		{"mcq unanswered", question(model.QuestionTypeMCQ, "B", 10), "", Outcome{}},
		{"fill blank ignores case and padding", question(model.QuestionTypeFillBlank, "Paris", 3), " paris ", Outcome{true, 3}},
		{"fill blank key padding ignored", question(model.QuestionTypeFillBlank, " Paris", 3), "PARIS", Outcome{true, 3}},
		{"fill blank wrong", question(model.QuestionTypeFillBlank, "Paris", 3), "Lyon", Outcome{}},
		{"fill blank whitespace only", question(model.QuestionTypeFillBlank, "Paris", 3), "   ", Outcome{}},
		{"true false correct", question(model.QuestionTypeTrueFalse, "true", 2), "true", Outcome{true, 2}},
		{"true false false key", question(model.QuestionTypeTrueFalse, "false", 2), "false", Outcome{true, 2}},
		{"true false is case sensitive", question(model.QuestionTypeTrueFalse, "true", 2), "True", Outcome{}},
		{"true false upper case", question(model.QuestionTypeTrueFalse, "true", 2), "TRUE", Outcome{}},
		{"true false padding not trimmed", question(model.QuestionTypeTrueFalse, "true", 2), " true ", Outcome{}},
		{"true false wrong", question(model.QuestionTypeTrueFalse, "true", 2), "false", Outcome{}},
		{"true false garbage", question(model.QuestionTypeTrueFalse, "true", 2), "yes", Outcome{}},
		{"brief never scores", question(model.QuestionTypeBrief, "model answer", 5), "model answer", Outcome{}},
		{"unknown kind scores zero", question("essay", "x", 5), "x", Outcome{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Grade(tt.q, tt.submitted))
		})
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []Outcome
		total    int
		passing  int
		want     Summary
	}{
		{"full marks pass", []Outcome{{true, 10}}, 10, 10, Summary{10, 100, model.ResultStatusPass}},
		{"zero fails", []Outcome{{}}, 10, 10, Summary{0, 0, model.ResultStatusFail}},
		{"partial", []Outcome{{true, 3}, {}, {true, 2}}, 10, 6, Summary{5, 50, model.ResultStatusFail}},
		{"boundary passes", []Outcome{{true, 6}}, 10, 6, Summary{6, 60, model.ResultStatusPass}},
		{"no questions", nil, 0, 0, Summary{0, 0, model.ResultStatusPass}},
		{"unreachable passing mark", []Outcome{{true, 10}}, 10, 15, Summary{10, 100, model.ResultStatusFail}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.outcomes, tt.total, tt.passing)
			assert.Equal(t, tt.want.MarksObtained, got.MarksObtained)
			assert.InDelta(t, tt.want.Percentage, got.Percentage, 0.0001)
			assert.Equal(t, tt.want.Status, got.Status)
			assert.GreaterOrEqual(t, got.Percentage, 0.0)
			assert.LessOrEqual(t, got.Percentage, 100.0)
		})
	}
}
