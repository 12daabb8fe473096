package mailer

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// Sender delivers an email with text and HTML bodies.
type Sender interface {
	Send(ctx context.Context, to, subject, bodyText, bodyHTML string) error
}

// SES sends through Amazon SES. Credentials come from the default AWS
// chain (env, shared config, instance role).
type SES struct {
	client *sesv2.Client
	from   string
	logger *zap.Logger
}

func NewSES(ctx context.Context, region, from string, logger *zap.Logger) (*SES, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SES{
		client: sesv2.NewFromConfig(cfg),
		from:   from,
		logger: logger,
	}, nil
}

func (s *SES) Send(ctx context.Context, to, subject, bodyText, bodyHTML string) error {
	charset := aws.String("utf-8")
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: charset},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(bodyText), Charset: charset},
					Html: &types.Content{Data: aws.String(bodyHTML), Charset: charset},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return err
	}
	s.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
