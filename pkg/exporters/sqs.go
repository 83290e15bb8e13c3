package exporters

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// sqsClient defines the minimal subset of the SQS client used by sqsExporter.
type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type sqsExporter struct {
	id       string
	queueURL string
	client   sqsClient
	log      Logger
}

func newSQSExporter(ctx context.Context, cfg ExporterConfig, log Logger) (Exporter, error) {
	if cfg.SQS == nil {
		return nil, fmt.Errorf("exporter %q missing sqs configuration", cfg.ID)
	}

	awsCfg, err := loadAWSConfig(ctx, cfg.SQS.AWSConfig)
	if err != nil {
		return nil, err
	}

	return &sqsExporter{
		id:       cfg.ID,
		queueURL: cfg.SQS.QueueURL,
		client:   sqs.NewFromConfig(awsCfg),
		log:      ensureLogger(log),
	}, nil
}

func (s *sqsExporter) ID() string   { return s.id }
func (s *sqsExporter) Type() string { return TypeSQS }

// Export sends the document to the configured SQS queue.
func (s *sqsExporter) Export(ctx context.Context, doc Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	attrs := make(map[string]types.MessageAttributeValue)
	for k, v := range documentAttributes(doc) {
		attrs[k] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(v),
		}
	}

	input := &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(payload)),
		MessageAttributes: attrs,
	}

	if _, err := s.client.SendMessage(ctx, input); err != nil {
		s.log.ErrorObj("sqs exporter send failed", "exporter_sqs_error", map[string]any{
			"exporter_id": s.id,
			"error":       err.Error(),
		})
		return fmt.Errorf("send message to sqs: %w", err)
	}
	s.log.DebugObj("sqs exporter delivered document", "exporter_sqs_delivery", map[string]any{
		"exporter_id": s.id,
	})
	return nil
}
