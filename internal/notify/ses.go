package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ignite/offer-monitor/internal/config"
	"github.com/ignite/offer-monitor/internal/engine"
	"github.com/ignite/offer-monitor/internal/pkg/logger"
)

// ErrNoRecipients is returned when the mailer has nowhere to send.
var ErrNoRecipients = errors.New("digest has no recipients")

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer e-mails the rendered digest through AWS SES.
type SESMailer struct {
	client sesAPI
	digest *Digest
	from   string
	to     []string
}

// NewSESMailer creates a mailer. Static credentials are used when both keys
// are configured, otherwise the default credential chain.
func NewSESMailer(ctx context.Context, cfg config.SESConfig, digest *Digest) (*SESMailer, error) {
	if len(cfg.To) == 0 {
		return nil, ErrNoRecipients
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return newSESMailer(sesv2.NewFromConfig(awsCfg), digest, cfg.From, cfg.To), nil
}

func newSESMailer(client sesAPI, digest *Digest, from string, to []string) *SESMailer {
	return &SESMailer{client: client, digest: digest, from: from, to: to}
}

// Name identifies the sink in delivery errors.
func (m *SESMailer) Name() string { return "ses" }

// Notify renders and sends the digest.
func (m *SESMailer) Notify(ctx context.Context, rep *engine.Report) error {
	msg, err := m.digest.Render(rep)
	if err != nil {
		return err
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination:      &types.Destination{ToAddresses: m.to},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if rep.RunID != "" {
		input.EmailTags = []types.MessageTag{{Name: aws.String("run_id"), Value: aws.String(rep.RunID)}}
	}

	result, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("send digest: %w", err)
	}

	logger.Info("digest sent",
		"run_id", rep.RunID,
		"message_id", aws.ToString(result.MessageId),
		"to", strings.Join(logger.RedactEmails(m.to), ","))
	return nil
}
