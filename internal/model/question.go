package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported kinds of question.
type QuestionType string

const (
	QuestionTypeMCQ       QuestionType = "mcq"
	QuestionTypeFillBlank QuestionType = "fill_blank"
	QuestionTypeTrueFalse QuestionType = "true_false"
	QuestionTypeBrief     QuestionType = "brief"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMCQ, QuestionTypeFillBlank, QuestionTypeTrueFalse, QuestionTypeBrief:
		return true
	}
	return false
}

// AutoGraded reports whether answers to this type are scored automatically.
func (t QuestionType) AutoGraded() bool {
	return t.Valid() && t != QuestionTypeBrief
}

var (
	ErrUnknownQuestionType = errors.New("unknown question type")
	ErrEmptyAnswerKey      = errors.New("answer key is required")
	ErrInvalidBoolToken    = errors.New("true/false answer must be \"true\" or \"false\"")
	ErrTooFewOptions       = errors.New("multiple choice needs at least two options")
)

// AnswerKey is the expected answer of a question, tagged by kind:
//   - mcq: the correct option token
//   - fill_blank: the expected text
//   - true_false: canonical "true" or "false"
//   - brief: a model answer for reviewers (never auto-graded)
type AnswerKey struct {
	Kind  QuestionType `json:"kind"`
	Value string       `json:"value"`
}

// NewAnswerKey validates raw against kind and returns the canonical key.
func NewAnswerKey(kind QuestionType, raw string) (AnswerKey, error) {
	switch kind {
	case QuestionTypeMCQ, QuestionTypeFillBlank:
		if strings.TrimSpace(raw) == "" {
			return AnswerKey{}, ErrEmptyAnswerKey
		}
		return AnswerKey{Kind: kind, Value: raw}, nil
	case QuestionTypeTrueFalse:
		token, ok := CanonicalBool(raw)
		if !ok {
			return AnswerKey{}, ErrInvalidBoolToken
		}
		return AnswerKey{Kind: kind, Value: token}, nil
	case QuestionTypeBrief:
		return AnswerKey{Kind: kind, Value: raw}, nil
	default:
		return AnswerKey{}, fmt.Errorf("%w: %q", ErrUnknownQuestionType, kind)
	}
}

// CanonicalBool maps a true/false token to "true" or "false".
func CanonicalBool(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		return "true", true
	case "false":
		return "false", true
	}
	return "", false
}

// Options is the ordered list of choices of a multiple-choice question.
// It is stored as a JSON array in text columns.
type Options []string

// Value implements driver.Valuer.
func (o Options) Value() (driver.Value, error) {
	if len(o) == 0 {
		return nil, nil
	}
	b, err := json.Marshal([]string(o))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (o *Options) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*o = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan options: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*o = nil
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(o))
}

// Question belongs to exactly one exam and is ordered by OrderNum.
type Question struct {
	ID       uuid.UUID `json:"id"`
	ExamID   uuid.UUID `json:"exam_id"`
	Text     string    `json:"question_text"`
	Options  Options   `json:"options,omitempty"`
	Key      AnswerKey `json:"answer_key"`
	Marks    int       `json:"marks"`
	OrderNum int       `json:"order_num"`
}

// Type is the question's kind, carried by its answer key.
func (q Question) Type() QuestionType {
	return q.Key.Kind
}

// ForStudent strips the answer key.
func (q Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:           q.ID,
		QuestionType: q.Key.Kind,
		QuestionText: q.Text,
		Options:      q.Options,
		Marks:        q.Marks,
		OrderNum:     q.OrderNum,
	}
}

// QuestionForStudent is a question without the correct answer, sent to students.
type QuestionForStudent struct {
	ID           uuid.UUID    `json:"id"`
	QuestionType QuestionType `json:"question_type"`
	QuestionText string       `json:"question_text"`
	Options      Options      `json:"options,omitempty"`
	Marks        int          `json:"marks"`
	OrderNum     int          `json:"order_num"`
}

// AddQuestionRequest is the payload for appending a question to an exam.
type AddQuestionRequest struct {
	QuestionType  QuestionType `json:"question_type" binding:"required,question_type"`
	QuestionText  string       `json:"question_text" binding:"required,min=1"`
	Options       []string     `json:"options" binding:"omitempty,max=10,dive,required"`
	CorrectAnswer string       `json:"correct_answer"`
	Marks         int          `json:"marks" binding:"required,min=1"`
}

// Build validates the request and returns the question it describes.
// ID, ExamID and OrderNum are assigned by the caller.
func (r AddQuestionRequest) Build() (Question, error) {
	key, err := NewAnswerKey(r.QuestionType, r.CorrectAnswer)
	if err != nil {
		return Question{}, err
	}
	q := Question{Text: r.QuestionText, Key: key, Marks: r.Marks}
	if r.QuestionType == QuestionTypeMCQ {
		if len(r.Options) < 2 {
			return Question{}, ErrTooFewOptions
		}
		q.Options = Options(r.Options)
	}
	return q, nil
}
