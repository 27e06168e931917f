package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/exstem-online/internal/database"
	"github.com/stemsi/exstem-online/internal/eligibility"
	"github.com/stemsi/exstem-online/internal/model"
	"github.com/stemsi/exstem-online/internal/notify"
	"github.com/stemsi/exstem-online/internal/repository"
	"github.com/stemsi/exstem-online/internal/repository/sqlite"
)

var windowStart = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	store      *sqlite.Store
	svc        *SubmissionService
	admin      *model.User
	student    *model.User
	exam       *model.Exam
	dispatcher *MockDispatcher
}

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	db, err := database.NewSQLiteDB(context.Background(), ":memory:", zerolog.Nop())
	require.NoError(t, err)
	store, err := sqlite.New(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newFixture(t *testing.T, passingMarks int, questions ...model.Question) *fixture {
	t.Helper()
	ctx := context.Background()

	store := openStore(t)

	admin := &model.User{Username: "admin", Email: "admin@example.com", PasswordHash: "x", FullName: "Admin"}
	require.NoError(t, store.CreateUser(ctx, admin))
	student := &model.User{Username: "siti", Email: "siti@example.com", PasswordHash: "x", FullName: "Siti"}
	require.NoError(t, store.CreateUser(ctx, student))

	exam := &model.Exam{
		Title:           "Scenario",
		StartTime:       windowStart,
		EndTime:         windowStart.Add(2 * time.Hour),
		DurationMinutes: 60,
		PassingMarks:    passingMarks,
		CreatedBy:       admin.ID,
	}
	require.NoError(t, store.CreateExam(ctx, exam))
	for i := range questions {
		questions[i].ExamID = exam.ID
		require.NoError(t, store.AddQuestion(ctx, &questions[i]))
	}

	dispatcher := new(MockDispatcher)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil).Maybe()

	svc := NewSubmissionService(store, store, dispatcher, zerolog.Nop()).
		WithClock(func() time.Time { return windowStart.Add(30 * time.Minute) })

	return &fixture{store: store, svc: svc, admin: admin, student: student, exam: exam, dispatcher: dispatcher}
}

func (f *fixture) questions(t *testing.T) []model.Question {
	t.Helper()
	qs, err := f.store.ListQuestions(context.Background(), f.exam.ID)
	require.NoError(t, err)
	return qs
}

func mcq(key string, marks int) model.Question {
	return model.Question{Text: "Pick one", Options: model.Options{"A", "B", "C", "D"}, Key: model.AnswerKey{Kind: model.QuestionTypeMCQ, Value: key}, Marks: marks}
}

func TestSubmitScenarios(t *testing.T) {
	tests := []struct {
		name       string
		passing    int
		question   model.Question
		answer     string
		wantMarks  int
		wantPct    float64
		wantStatus model.ResultStatus
		wantRight  bool
	}{
		{"A: correct multiple choice", 10, mcq("B", 10), "B", 10, 100, model.ResultStatusPass, true},
		{"B: wrong multiple choice", 10, mcq("B", 10), "A", 0, 0, model.ResultStatusFail, false},
		{
			"C: fill in the blank ignores case and padding", 1,
			model.Question{Text: "Capital of France", Key: model.AnswerKey{Kind: model.QuestionTypeFillBlank, Value: "Paris"}, Marks: 4},
			" paris ", 4, 100, model.ResultStatusPass, true,
		},
		{
			"D: free response scores zero", 0,
			model.Question{Text: "Discuss", Key: model.AnswerKey{Kind: model.QuestionTypeBrief, Value: "model"}, Marks: 5},
			"a thoughtful essay", 0, 0, model.ResultStatusPass, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.passing, tt.question)
			q := f.questions(t)[0]

			r, err := f.svc.Submit(context.Background(), f.exam.ID, *f.student, map[uuid.UUID]string{q.ID: tt.answer})
			require.NoError(t, err)

			assert.Equal(t, tt.wantMarks, r.MarksObtained)
			assert.InDelta(t, tt.wantPct, r.Percentage, 0.0001)
			assert.Equal(t, tt.wantStatus, r.Status)
			assert.Equal(t, q.Marks, r.TotalMarks)
			require.Len(t, r.Answers, 1)
			assert.Equal(t, tt.wantRight, r.Answers[0].IsCorrect)
			assert.Equal(t, tt.answer, r.Answers[0].AnswerText)

			stored, err := f.store.GetResult(context.Background(), r.ID)
			require.NoError(t, err)
			assert.Equal(t, r.MarksObtained, stored.MarksObtained)
			require.Len(t, stored.Answers, 1)
			assert.Equal(t, tt.wantMarks, stored.Answers[0].MarksObtained)
		})
	}
}

func TestSubmitAfterWindowIsExpired(t *testing.T) {
	f := newFixture(t, 1, mcq("A", 1))
	f.svc.WithClock(func() time.Time { return f.exam.EndTime.Add(time.Second) })

	_, err := f.svc.Submit(context.Background(), f.exam.ID, *f.student, nil)

	var expired *eligibility.ExpiredError
	assert.True(t, errors.As(err, &expired))
	_, err = f.store.GetResultByUserAndExam(context.Background(), f.student.ID, f.exam.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestSubmitMixedPaperUnansweredCountsWrong(t *testing.T) {
	f := newFixture(t, 6,
		mcq("C", 4),
		model.Question{Text: "Water boils at 100C", Key: model.AnswerKey{Kind: model.QuestionTypeTrueFalse, Value: "true"}, Marks: 2},
		model.Question{Text: "Explain", Key: model.AnswerKey{Kind: model.QuestionTypeBrief}, Marks: 4},
	)
	qs := f.questions(t)

	r, err := f.svc.Submit(context.Background(), f.exam.ID, *f.student, map[uuid.UUID]string{
		qs[0].ID:   "C",
		uuid.New(): "stray answer",
	})
	require.NoError(t, err)

	assert.Equal(t, 10, r.TotalMarks)
	assert.Equal(t, 4, r.MarksObtained)
	assert.InDelta(t, 40.0, r.Percentage, 0.0001)
	assert.Equal(t, model.ResultStatusFail, r.Status)
	require.Len(t, r.Answers, 3)
	assert.Equal(t, "", r.Answers[1].AnswerText)
	assert.False(t, r.Answers[1].IsCorrect)
}

func TestSubmitDeniesAdmin(t *testing.T) {
	f := newFixture(t, 1, mcq("A", 1))

	_, err := f.svc.Submit(context.Background(), f.exam.ID, *f.admin, nil)

	var role *eligibility.RoleError
	assert.True(t, errors.As(err, &role))
	assert.ErrorIs(t, err, eligibility.ErrDenied)
}

func TestSubmitNotYetOpen(t *testing.T) {
	f := newFixture(t, 1, mcq("A", 1))
	f.svc.WithClock(func() time.Time { return windowStart.Add(-time.Minute) })

	_, err := f.svc.Submit(context.Background(), f.exam.ID, *f.student, nil)

	var early *eligibility.NotYetOpenError
	assert.True(t, errors.As(err, &early))
}

func TestSubmitUnknownExam(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.svc.Submit(context.Background(), uuid.New(), *f.student, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSubmitTwiceIsDenied(t *testing.T) {
	f := newFixture(t, 1, mcq("A", 1))
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, f.exam.ID, *f.student, nil)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = f.svc.Submit(ctx, f.exam.ID, *f.student, nil)
		var taken *eligibility.AlreadyTakenError
		require.True(t, errors.As(err, &taken))
		assert.Equal(t, first.ID, taken.ResultID)
	}

	_, err = f.svc.CheckEligibility(ctx, f.exam.ID, *f.student)
	assert.ErrorIs(t, err, eligibility.ErrDenied)
}

func TestSubmitConcurrentExactlyOneResult(t *testing.T) {
	f := newFixture(t, 1, mcq("A", 1))
	ctx := context.Background()
	q := f.questions(t)[0]

	const n = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []uuid.UUID
		losers  []uuid.UUID
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := f.svc.Submit(ctx, f.exam.ID, *f.student, map[uuid.UUID]string{q.ID: "A"})
			mu.Lock()
			defer mu.Unlock()
			var taken *eligibility.AlreadyTakenError
			switch {
			case err == nil:
				winners = append(winners, r.ID)
			case errors.As(err, &taken):
				losers = append(losers, taken.ResultID)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Len(t, losers, n-1)
	for _, id := range losers {
		assert.Equal(t, winners[0], id)
	}

	rows, err := f.store.ListResults(ctx, model.ResultFilter{ExamID: &f.exam.ID})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSubmitSucceedsWhenNotificationFails(t *testing.T) {
	f := newFixture(t, 1, mcq("A", 1))
	dispatcher := new(MockDispatcher)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	f.svc.dispatcher = dispatcher

	r, err := f.svc.Submit(context.Background(), f.exam.ID, *f.student, nil)

	require.NoError(t, err)
	assert.False(t, r.EmailSent)
	dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)
}

func TestSubmitDispatchesNotification(t *testing.T) {
	f := newFixture(t, 1, mcq("A", 3))
	q := f.questions(t)[0]

	r, err := f.svc.Submit(context.Background(), f.exam.ID, *f.student, map[uuid.UUID]string{q.ID: "A"})
	require.NoError(t, err)

	require.Len(t, f.dispatcher.Calls, 1)
	sent := f.dispatcher.Calls[0].Arguments.Get(1).(notify.Notification)
	assert.Equal(t, r.ID, sent.ResultID)
	assert.Equal(t, "siti@example.com", sent.Email)
	assert.Equal(t, "Scenario", sent.ExamTitle)
	assert.Equal(t, 3, sent.MarksObtained)
	assert.Equal(t, model.ResultStatusPass, sent.Status)
}

func TestPaperStripsAnswerKeys(t *testing.T) {
	f := newFixture(t, 1, mcq("D", 2))

	paper, err := f.svc.Paper(context.Background(), f.exam.ID, *f.student)
	require.NoError(t, err)
	require.Len(t, paper.Questions, 1)
	assert.Equal(t, model.Options{"A", "B", "C", "D"}, paper.Questions[0].Options)
	assert.Equal(t, 2, paper.Exam.TotalMarks)
}

func snapshot(total, passing int, qs ...model.Question) *model.ExamSnapshot {
	return &model.ExamSnapshot{
		Exam:      model.Exam{ID: uuid.New(), StartTime: windowStart, EndTime: windowStart.Add(time.Hour), TotalMarks: total, PassingMarks: passing},
		Questions: qs,
	}
}

func TestSubmitPersistenceFailure(t *testing.T) {
	store := new(MockStore)
	snap := snapshot(1, 1, model.Question{ID: uuid.New(), Key: model.AnswerKey{Kind: model.QuestionTypeMCQ, Value: "A"}, Marks: 1})
	user := model.User{ID: 5}
	store.On("GetExamSnapshot", mock.Anything, snap.Exam.ID).Return(snap, nil)
	store.On("GetResultByUserAndExam", mock.Anything, 5, snap.Exam.ID).Return(nil, repository.ErrNotFound)
	store.On("CreateResult", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	dispatcher := new(MockDispatcher)
	svc := NewSubmissionService(store, store, dispatcher, zerolog.Nop()).
		WithClock(func() time.Time { return windowStart.Add(time.Minute) })

	_, err := svc.Submit(context.Background(), snap.Exam.ID, user, nil)

	assert.ErrorIs(t, err, ErrSubmissionFailed)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestSubmitLostRaceReportsWinner(t *testing.T) {
	store := new(MockStore)
	snap := snapshot(0, 0)
	user := model.User{ID: 9}
	winner := &model.Result{ID: uuid.New()}
	store.On("GetExamSnapshot", mock.Anything, snap.Exam.ID).Return(snap, nil)
	store.On("GetResultByUserAndExam", mock.Anything, 9, snap.Exam.ID).Return(nil, repository.ErrNotFound).Once()
	store.On("CreateResult", mock.Anything, mock.Anything).Return(repository.ErrDuplicateResult)
	store.On("GetResultByUserAndExam", mock.Anything, 9, snap.Exam.ID).Return(winner, nil).Once()

	svc := NewSubmissionService(store, store, nil, zerolog.Nop()).
		WithClock(func() time.Time { return windowStart.Add(time.Minute) })

	_, err := svc.Submit(context.Background(), snap.Exam.ID, user, nil)

	var taken *eligibility.AlreadyTakenError
	require.True(t, errors.As(err, &taken))
	assert.Equal(t, winner.ID, taken.ResultID)
	store.AssertExpectations(t)
}

func TestSubmitLostRaceWinnerUnreadable(t *testing.T) {
	store := new(MockStore)
	snap := snapshot(0, 0)
	user := model.User{ID: 9}
	store.On("GetExamSnapshot", mock.Anything, snap.Exam.ID).Return(snap, nil)
	store.On("GetResultByUserAndExam", mock.Anything, 9, snap.Exam.ID).Return(nil, repository.ErrNotFound).Once()
	store.On("CreateResult", mock.Anything, mock.Anything).Return(repository.ErrDuplicateResult)
	store.On("GetResultByUserAndExam", mock.Anything, 9, snap.Exam.ID).Return(nil, errors.New("connection reset")).Once()

	svc := NewSubmissionService(store, store, nil, zerolog.Nop()).
		WithClock(func() time.Time { return windowStart.Add(time.Minute) })

	_, err := svc.Submit(context.Background(), snap.Exam.ID, user, nil)

	assert.ErrorIs(t, err, ErrSubmissionFailed)
	var taken *eligibility.AlreadyTakenError
	assert.False(t, errors.As(err, &taken))
	store.AssertExpectations(t)
}

func TestSubmitSnapshotReadFailure(t *testing.T) {
	store := new(MockStore)
	examID := uuid.New()
	store.On("GetExamSnapshot", mock.Anything, examID).Return(nil, errors.New("connection reset"))

	svc := NewSubmissionService(store, store, nil, zerolog.Nop())
	_, err := svc.Submit(context.Background(), examID, model.User{ID: 1}, nil)

	assert.ErrorIs(t, err, ErrSubmissionFailed)
}
