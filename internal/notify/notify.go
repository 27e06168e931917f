// Package notify delivers result notifications after a submission commits.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-online/internal/metrics"
	"github.com/stemsi/exstem-online/internal/model"
)

// Notification is everything needed to mail a student their result.
type Notification struct {
	ResultID      uuid.UUID          `json:"result_id"`
	Email         string             `json:"email"`
	FullName      string             `json:"full_name"`
	ExamTitle     string             `json:"exam_title"`
	MarksObtained int                `json:"marks_obtained"`
	TotalMarks    int                `json:"total_marks"`
	Percentage    float64            `json:"percentage"`
	Status        model.ResultStatus `json:"status"`
}

// NewNotification builds the notification for a freshly graded result.
func NewNotification(r *model.Result, exam model.Exam, user model.User) Notification {
	return Notification{
		ResultID:      r.ID,
		Email:         user.Email,
		FullName:      user.FullName,
		ExamTitle:     exam.Title,
		MarksObtained: r.MarksObtained,
		TotalMarks:    r.TotalMarks,
		Percentage:    r.Percentage,
		Status:        r.Status,
	}
}

// Subject is the mail subject line.
func (n Notification) Subject() string {
	return "Exam Result - " + n.ExamTitle
}

// Body renders the plain-text mail body.
func (n Notification) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", n.FullName)
	fmt.Fprintf(&b, "Your exam results for %q are ready:\n\n", n.ExamTitle)
	fmt.Fprintf(&b, "Marks Obtained: %d/%d\n", n.MarksObtained, n.TotalMarks)
	fmt.Fprintf(&b, "Percentage: %.2f%%\n", n.Percentage)
	fmt.Fprintf(&b, "Status: %s\n\n", strings.ToUpper(string(n.Status)))
	b.WriteString("Thank you for taking the examination.\n\nBest regards,\nOnline Examination System\n")
	return b.String()
}

// Sender delivers a notification and reports whether it went out.
// Failures are reported by the return value, never by panicking or erroring.
type Sender interface {
	Send(ctx context.Context, n Notification) bool
}

// Dispatcher hands a notification off for asynchronous delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// StatusRecorder persists the delivery outcome on the result.
type StatusRecorder interface {
	SetEmailSent(ctx context.Context, id uuid.UUID, sent bool) error
}

// Deliverer sends a notification and records email_sent on success.
type Deliverer struct {
	sender   Sender
	recorder StatusRecorder
	log      zerolog.Logger
}

// NewDeliverer creates a Deliverer.
func NewDeliverer(sender Sender, recorder StatusRecorder, log zerolog.Logger) *Deliverer {
	return &Deliverer{
		sender:   sender,
		recorder: recorder,
		log:      log.With().Str("component", "notify").Logger(),
	}
}

// Deliver sends n once. email_sent is only flipped when the send succeeds;
// a failed send leaves it false and is not retried.
func (d *Deliverer) Deliver(ctx context.Context, n Notification) bool {
	if !d.sender.Send(ctx, n) {
		metrics.NotificationsTotal.WithLabelValues(metrics.NotifyFailed).Inc()
		d.log.Warn().Str("result_id", n.ResultID.String()).Msg("Result email not sent")
		return false
	}
	metrics.NotificationsTotal.WithLabelValues(metrics.NotifySent).Inc()

	if err := d.recorder.SetEmailSent(ctx, n.ResultID, true); err != nil {
		d.log.Error().Err(err).Str("result_id", n.ResultID.String()).Msg("Failed to record email_sent")
	}
	return true
}
