package mailer

import (
	"context"
	"fmt"

	"fest-ticketing/config"
	"fest-ticketing/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// sesAPI is the part of *ses.Client the mailer uses.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// New builds the mailer selected by cfg.Provider: "ses" or "noop".
// Unknown providers fall back to noop.
func New(cfg config.MailerConfig) Mailer {
	log := logger.WithComponent("mailer")
	switch cfg.Provider {
	case "ses":
		awsCfg := aws.Config{
			Region: cfg.SESRegion,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(cfg.SESAccessKeyID, cfg.SESSecretAccessKey, ""),
			),
		}
		return &SESMailer{
			client:      ses.NewFromConfig(awsCfg),
			fromAddress: cfg.FromAddress,
			fromName:    cfg.FromName,
			log:         log,
		}
	case "noop", "":
		return &NoopMailer{log: log}
	default:
		log.Warn("unknown mail provider, using noop", zap.String("provider", cfg.Provider))
		return &NoopMailer{log: log}
	}
}

type SESMailer struct {
	client      sesAPI
	fromAddress string
	fromName    string
	log         *zap.Logger
}

func (m *SESMailer) Send(ctx context.Context, to, subject, html, text string) error {
	source := m.fromAddress
	if m.fromName != "" {
		source = fmt.Sprintf("%s <%s>", m.fromName, m.fromAddress)
	}
	input := &ses.SendEmailInput{
		Source:      aws.String(source),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body:    &types.Body{},
		},
	}
	if html != "" {
		input.Message.Body.Html = &types.Content{Data: aws.String(html), Charset: aws.String("UTF-8")}
	}
	if text != "" {
		input.Message.Body.Text = &types.Content{Data: aws.String(text), Charset: aws.String("UTF-8")}
	}

	out, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("send email via ses: %w", err)
	}
	m.log.Info("email sent", zap.String("to", to), zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}

type NoopMailer struct {
	log *zap.Logger
}

func (m *NoopMailer) Send(_ context.Context, to, subject, _, _ string) error {
	m.log.Info("email would be sent (noop)", zap.String("to", to), zap.String("subject", subject))
	return nil
}
