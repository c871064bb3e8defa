package pub

import (
	"context"
	"dsclient/internal/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSPublisher implements ports.Publisher on an SNS topic.
type SNSPublisher struct{ cli *sns.Client }

func NewSNS(c *sns.Client) *SNSPublisher { return &SNSPublisher{cli: c} }

// NewSNSFromConfig returns nil when cfg names no topic. An endpoint override
// switches to static local credentials.
func NewSNSFromConfig(ctx context.Context, cfg types.AppConfig) (*SNSPublisher, error) {
	if cfg.SNSTopicArn == "" {
		return nil, nil
	}
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	cli := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if cfg.SNSEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.SNSEndpoint)
			if o.Region == "" {
				o.Region = "us-east-1"
			}
			o.Credentials = credentials.NewStaticCredentialsProvider("x", "x", "")
		}
	})
	return NewSNS(cli), nil
}

func (s *SNSPublisher) PublishRaw(ctx context.Context, arn string, payload []byte) error {
	_, err := s.cli.Publish(ctx, &sns.PublishInput{
		TopicArn: &arn,
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]snsTypes.MessageAttributeValue{
			"content-type": {DataType: aws.String("String"), StringValue: aws.String("application/json")},
			"source":       {DataType: aws.String("String"), StringValue: aws.String("dsclient")},
		},
	})
	return err
}
