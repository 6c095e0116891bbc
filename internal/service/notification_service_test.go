package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	"github.com/noah-isme/sma-wellbeing-api/pkg/jobs"
	mail "github.com/noah-isme/sma-wellbeing-api/pkg/notify"
)

type fakeMailer struct {
	enabled bool
	sent    []mail.Message
	err     error
}

func (f *fakeMailer) Enabled() bool { return f.enabled }

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestNotifyAlertsQueuesCriticalOnly(t *testing.T) {
	mailer := &fakeMailer{enabled: true}
	queue := &recordingQueue{}
	svc := NewNotificationService(mailer, nil, NotificationConfig{Recipients: []string{" counselor@school.test ", ""}})
	svc.SetQueue(queue)

	svc.NotifyAlerts(context.Background(), []models.Alert{
		{ID: "a-1", Severity: models.SeverityCritical, AlertType: models.AlertWellnessConcern},
		{ID: "a-2", Severity: models.SeverityHigh, AlertType: models.AlertHighRisk},
	})
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeAlertEmail, queue.jobs[0].Type)
	assert.Equal(t, "a-1", queue.jobs[0].ID)
}

func TestNotifyAlertsDisabled(t *testing.T) {
	queue := &recordingQueue{}
	critical := []models.Alert{{ID: "a-1", Severity: models.SeverityCritical}}

	noRecipients := NewNotificationService(&fakeMailer{enabled: true}, nil, NotificationConfig{})
	noRecipients.SetQueue(queue)
	noRecipients.NotifyAlerts(context.Background(), critical)

	mailerOff := NewNotificationService(&fakeMailer{}, nil, NotificationConfig{Recipients: []string{"c@school.test"}})
	mailerOff.SetQueue(queue)
	mailerOff.NotifyAlerts(context.Background(), critical)

	var nilService *NotificationService
	nilService.NotifyAlerts(context.Background(), critical)

	assert.Empty(t, queue.jobs)
}

func TestHandleAlertEmailJob(t *testing.T) {
	mailer := &fakeMailer{enabled: true}
	svc := NewNotificationService(mailer, nil, NotificationConfig{
		Recipients: []string{"a@school.test", "b@school.test"},
		AppBaseURL: "https://wellbeing.school.test/",
	})
	alert := models.Alert{
		ID:          "a-9",
		StudentName: "Ana <Year 9>",
		AlertType:   models.AlertEmotionalDistress,
		Severity:    models.SeverityCritical,
		Message:     "Emotional distress detected",
	}

	require.NoError(t, svc.HandleAlertEmailJob(context.Background(), jobs.Job{Type: JobTypeAlertEmail, Payload: alert}))
	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, []string{"a@school.test", "b@school.test"}, msg.To)
	assert.Equal(t, "[Critical] emotional distress alert for Ana <Year 9>", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Ana &lt;Year 9&gt;")
	assert.Contains(t, msg.HTMLBody, "https://wellbeing.school.test/alerts/a-9")
	assert.Contains(t, msg.TextBody, "Emotional distress detected")
}

func TestHandleAlertEmailJobErrors(t *testing.T) {
	mailer := &fakeMailer{enabled: true, err: errors.New("throttled")}
	svc := NewNotificationService(mailer, nil, NotificationConfig{Recipients: []string{"a@school.test"}})

	err := svc.HandleAlertEmailJob(context.Background(), jobs.Job{Payload: models.Alert{ID: "a-1", StudentID: "stu-1"}})
	assert.ErrorContains(t, err, "throttled")

	err = svc.HandleAlertEmailJob(context.Background(), jobs.Job{Payload: "a-1"})
	assert.Error(t, err)
}
