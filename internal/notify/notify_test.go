package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/stemsi/exstem-online/internal/config"
	"github.com/stemsi/exstem-online/internal/model"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, n Notification) bool {
	return m.Called(ctx, n).Bool(0)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) SetEmailSent(ctx context.Context, id uuid.UUID, sent bool) error {
	return m.Called(ctx, id, sent).Error(0)
}

func sampleNotification() Notification {
	return Notification{
		ResultID:      uuid.New(),
		Email:         "ana@example.com",
		FullName:      "Ana",
		ExamTitle:     "Algebra",
		MarksObtained: 7,
		TotalMarks:    8,
		Percentage:    87.5,
		Status:        model.ResultStatusPass,
	}
}

func TestBody(t *testing.T) {
	body := sampleNotification().Body()
	assert.Contains(t, body, "Dear Ana,")
	assert.Contains(t, body, `"Algebra"`)
	assert.Contains(t, body, "Marks Obtained: 7/8")
	assert.Contains(t, body, "Percentage: 87.50%")
	assert.Contains(t, body, "Status: PASS")
	assert.Equal(t, "Exam Result - Algebra", sampleNotification().Subject())
}

func TestDeliverMarksSentOnSuccess(t *testing.T) {
	n := sampleNotification()
	sender := new(MockSender)
	recorder := new(MockRecorder)
	sender.On("Send", mock.Anything, n).Return(true)
	recorder.On("SetEmailSent", mock.Anything, n.ResultID, true).Return(nil)

	ok := NewDeliverer(sender, recorder, zerolog.Nop()).Deliver(context.Background(), n)

	assert.True(t, ok)
	sender.AssertExpectations(t)
	recorder.AssertExpectations(t)
}

func TestDeliverLeavesFlagOnFailure(t *testing.T) {
	n := sampleNotification()
	sender := new(MockSender)
	recorder := new(MockRecorder)
	sender.On("Send", mock.Anything, n).Return(false)

	ok := NewDeliverer(sender, recorder, zerolog.Nop()).Deliver(context.Background(), n)

	assert.False(t, ok)
	recorder.AssertNotCalled(t, "SetEmailSent", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeliverSurvivesRecorderError(t *testing.T) {
	n := sampleNotification()
	sender := new(MockSender)
	recorder := new(MockRecorder)
	sender.On("Send", mock.Anything, n).Return(true)
	recorder.On("SetEmailSent", mock.Anything, n.ResultID, true).Return(errors.New("db down"))

	assert.True(t, NewDeliverer(sender, recorder, zerolog.Nop()).Deliver(context.Background(), n))
}

func TestInlineDispatch(t *testing.T) {
	n := sampleNotification()
	sender := new(MockSender)
	recorder := new(MockRecorder)
	sender.On("Send", mock.Anything, n).Return(true)
	recorder.On("SetEmailSent", mock.Anything, n.ResultID, true).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	inline := NewInline(NewDeliverer(sender, recorder, zerolog.Nop()), zerolog.Nop())
	assert.NoError(t, inline.Dispatch(ctx, n))
	cancel()
	inline.Wait()

	recorder.AssertExpectations(t)
}

func TestSMTPSenderUnconfigured(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{Server: "smtp.example.com", Port: 587}, zerolog.Nop())
	assert.False(t, s.Send(context.Background(), sampleNotification()))
}

func TestSMTPSenderMessage(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{Username: "exams@example.com"}, zerolog.Nop())
	msg, err := s.message(sampleNotification())
	assert.NoError(t, err)
	from := msg.GetFrom()
	if assert.Len(t, from, 1) {
		assert.Equal(t, "exams@example.com", from[0].Address)
	}

	_, err = s.message(Notification{Email: "not an address"})
	assert.Error(t, err)
}
