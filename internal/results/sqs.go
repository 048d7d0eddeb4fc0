package results

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSSender is the part of the SQS client used to deliver messages.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// NewSQS streams run messages to the queue at queueUrl.
func NewSQS(client SQSSender, queueUrl string) Sink {
	return &streamSink{
		timeout: 30 * time.Second,
		publish: func(ctx context.Context, body []byte) error {
			_, err := client.SendMessage(ctx, &sqs.SendMessageInput{
				QueueUrl:    aws.String(queueUrl),
				MessageBody: aws.String(string(body)),
			})
			return err
		},
	}
}

// NewSQSClient loads the default AWS configuration for region.
func NewSQSClient(ctx context.Context, region string) (*sqs.Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return sqs.NewFromConfig(cfg), nil
}
