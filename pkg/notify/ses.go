// Package notify delivers e-mail through Amazon SES.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// Message is a rendered e-mail.
type Message struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// sender is the subset of the SES client used here.
type sender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Mailer sends messages through SES. A Mailer without a sender address is
// disabled and silently drops every message.
type Mailer struct {
	client  sender
	from    string
	enabled bool
	logger  *zap.Logger
}

// NewSESMailer loads the default AWS configuration for region. An empty
// fromEmail yields a disabled mailer.
func NewSESMailer(ctx context.Context, region, fromEmail, fromName string, logger *zap.Logger) (*Mailer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fromEmail == "" {
		logger.Info("email notifications disabled: SES_FROM_EMAIL not configured")
		return &Mailer{logger: logger}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	logger.Info("email notifications enabled", zap.String("from", fromEmail), zap.String("region", region))
	return newMailer(sesv2.NewFromConfig(cfg), formatFrom(fromEmail, fromName), logger), nil
}

func newMailer(client sender, from string, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{client: client, from: from, enabled: client != nil && from != "", logger: logger}
}

// Enabled reports whether messages are actually delivered.
func (m *Mailer) Enabled() bool { return m != nil && m.enabled }

// Send delivers msg. Disabled mailers return nil.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if !m.Enabled() {
		m.logger.Debug("skipping email (notifications disabled)", zap.String("subject", msg.Subject))
		return nil
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("send email: no recipients")
	}

	body := &types.Body{}
	if msg.HTMLBody != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String("UTF-8")}
	}
	if msg.TextBody != "" {
		body.Text = &types.Content{Data: aws.String(msg.TextBody), Charset: aws.String("UTF-8")}
	}

	out, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination:      &types.Destination{ToAddresses: msg.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	m.logger.Info("email sent", zap.String("message_id", aws.ToString(out.MessageId)), zap.Int("recipients", len(msg.To)))
	return nil
}

func formatFrom(email, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}
