package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnswerKey(t *testing.T) {
	tests := []struct {
		name    string
		kind    QuestionType
		raw     string
		want    AnswerKey
		wantErr error
	}{
		{"mcq token", QuestionTypeMCQ, "B", AnswerKey{QuestionTypeMCQ, "B"}, nil},
		{"mcq empty", QuestionTypeMCQ, "  ", AnswerKey{}, ErrEmptyAnswerKey},
		{"fill blank keeps text", QuestionTypeFillBlank, "Paris", AnswerKey{QuestionTypeFillBlank, "Paris"}, nil},
		{"fill blank empty", QuestionTypeFillBlank, "", AnswerKey{}, ErrEmptyAnswerKey},
		{"true false canonical", QuestionTypeTrueFalse, " TRUE ", AnswerKey{QuestionTypeTrueFalse, "true"}, nil},
		{"true false rejects other", QuestionTypeTrueFalse, "yes", AnswerKey{}, ErrInvalidBoolToken},
		{"brief allows empty model answer", QuestionTypeBrief, "", AnswerKey{QuestionTypeBrief, ""}, nil},
		{"unknown kind", QuestionType("essay"), "x", AnswerKey{}, ErrUnknownQuestionType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewAnswerKey(tt.kind, tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddQuestionRequestBuild(t *testing.T) {
	_, err := AddQuestionRequest{QuestionType: QuestionTypeMCQ, QuestionText: "Pick", Options: []string{"A"}, CorrectAnswer: "A", Marks: 1}.Build()
	assert.ErrorIs(t, err, ErrTooFewOptions)

	q, err := AddQuestionRequest{QuestionType: QuestionTypeFillBlank, QuestionText: "Capital of France", Options: []string{"ignored", "x"}, CorrectAnswer: "Paris", Marks: 2}.Build()
	require.NoError(t, err)
	assert.Nil(t, q.Options)
	assert.Equal(t, QuestionTypeFillBlank, q.Type())
}

func TestOptionsRoundTrip(t *testing.T) {
	v, err := Options{"A", "B"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["A","B"]`, v)

	var o Options
	require.NoError(t, o.Scan([]byte(`["x","y","z"]`)))
	assert.Equal(t, Options{"x", "y", "z"}, o)

	require.NoError(t, o.Scan(nil))
	assert.Nil(t, o)

	empty, err := Options(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestForStudentStripsKey(t *testing.T) {
	q := Question{Text: "2+2", Key: AnswerKey{QuestionTypeMCQ, "B"}, Options: Options{"3", "4"}, Marks: 1, OrderNum: 1}
	s := q.ForStudent()
	assert.Equal(t, QuestionTypeMCQ, s.QuestionType)
	assert.Equal(t, Options{"3", "4"}, s.Options)
}
