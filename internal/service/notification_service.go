package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	"github.com/noah-isme/sma-wellbeing-api/pkg/jobs"
	mail "github.com/noah-isme/sma-wellbeing-api/pkg/notify"
)

// JobTypeAlertEmail identifies queued alert notification emails.
const JobTypeAlertEmail = "alert.email"

type mailSender interface {
	Enabled() bool
	Send(ctx context.Context, msg mail.Message) error
}

// NotificationConfig lists who receives critical alert emails.
type NotificationConfig struct {
	Recipients []string
	AppBaseURL string
}

// NotificationService emails counselors when critical alerts are raised.
type NotificationService struct {
	mailer mailSender
	queue  jobEnqueuer
	logger *zap.Logger
	cfg    NotificationConfig
}

var alertEmailTemplate = template.Must(template.New("alert").Parse(`<p>A critical alert was raised for <strong>{{.Student}}</strong>.</p>
<p><strong>{{.Type}}</strong>: {{.Message}}</p>
{{if .Link}}<p><a href="{{.Link}}">Open the alert</a></p>{{end}}`))

// NewNotificationService constructs the notifier. Delivery runs through the queue set with SetQueue.
func NewNotificationService(mailer mailSender, logger *zap.Logger, cfg NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	recipients := make([]string, 0, len(cfg.Recipients))
	for _, r := range cfg.Recipients {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	cfg.Recipients = recipients
	cfg.AppBaseURL = strings.TrimRight(cfg.AppBaseURL, "/")
	return &NotificationService{mailer: mailer, logger: logger, cfg: cfg}
}

// SetQueue attaches the delivery queue.
func (s *NotificationService) SetQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Enabled reports whether emails can be delivered at all.
func (s *NotificationService) Enabled() bool {
	return s != nil && s.mailer != nil && s.mailer.Enabled() && len(s.cfg.Recipients) > 0
}

// NotifyAlerts queues one email per critical alert. It never fails the caller.
func (s *NotificationService) NotifyAlerts(ctx context.Context, alerts []models.Alert) {
	if !s.Enabled() || s.queue == nil {
		return
	}
	for _, alert := range alerts {
		if alert.Severity != models.SeverityCritical {
			continue
		}
		err := s.queue.TryEnqueue(jobs.Job{ID: alert.ID, Type: JobTypeAlertEmail, Payload: alert})
		if err != nil {
			s.logger.Warn("alert email not queued",
				zap.String("alert_id", alert.ID),
				zap.Error(err),
			)
		}
	}
}

// HandleAlertEmailJob sends the email for one queued alert.
func (s *NotificationService) HandleAlertEmailJob(ctx context.Context, job jobs.Job) error {
	alert, ok := job.Payload.(models.Alert)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
	}
	if !s.Enabled() {
		return nil
	}
	msg, err := s.buildMessage(alert)
	if err != nil {
		return err
	}
	msg.To = s.cfg.Recipients
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	s.logger.Info("alert email sent",
		zap.String("alert_id", alert.ID),
		zap.Int("recipients", len(s.cfg.Recipients)),
	)
	return nil
}

func (s *NotificationService) buildMessage(alert models.Alert) (mail.Message, error) {
	student := alert.StudentName
	if student == "" {
		student = alert.StudentID
	}
	link := ""
	if s.cfg.AppBaseURL != "" && alert.ID != "" {
		link = s.cfg.AppBaseURL + "/alerts/" + alert.ID
	}
	var body bytes.Buffer
	err := alertEmailTemplate.Execute(&body, map[string]string{
		"Student": student,
		"Type":    string(alert.AlertType),
		"Message": alert.Message,
		"Link":    link,
	})
	if err != nil {
		return mail.Message{}, fmt.Errorf("render alert email: %w", err)
	}
	text := fmt.Sprintf("A critical alert was raised for %s.\n\n%s: %s\n", student, alert.AlertType, alert.Message)
	if link != "" {
		text += "\n" + link + "\n"
	}
	return mail.Message{
		Subject:  fmt.Sprintf("[Critical] %s alert for %s", strings.ReplaceAll(string(alert.AlertType), "_", " "), student),
		HTMLBody: body.String(),
		TextBody: text,
	}, nil
}
