package exporters

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type snsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type snsExporter struct {
	id       string
	topicARN string
	client   snsClient
	log      Logger
}

func newSNSExporter(ctx context.Context, cfg ExporterConfig, log Logger) (Exporter, error) {
	if cfg.SNS == nil {
		return nil, fmt.Errorf("exporter %q missing sns configuration", cfg.ID)
	}

	awsCfg, err := loadAWSConfig(ctx, cfg.SNS.AWSConfig)
	if err != nil {
		return nil, err
	}

	return &snsExporter{
		id:       cfg.ID,
		topicARN: cfg.SNS.TopicARN,
		client:   sns.NewFromConfig(awsCfg),
		log:      ensureLogger(log),
	}, nil
}

func (s *snsExporter) ID() string   { return s.id }
func (s *snsExporter) Type() string { return TypeSNS }

// Export publishes the document to the configured SNS topic.
func (s *snsExporter) Export(ctx context.Context, doc Document) error {
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

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          aws.String(s.topicARN),
		Message:           aws.String(string(payload)),
		MessageAttributes: attrs,
	})
	if err != nil {
		s.log.ErrorObj("sns exporter publish failed", "exporter_sns_error", map[string]any{
			"exporter_id": s.id,
			"error":       err.Error(),
		})
		return fmt.Errorf("publish to sns: %w", err)
	}
	s.log.DebugObj("sns exporter delivered document", "exporter_sns_delivery", map[string]any{
		"exporter_id": s.id,
		"message_id":  aws.ToString(out.MessageId),
	})
	return nil
}
