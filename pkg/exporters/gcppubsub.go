package exporters

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

type gcpPubSubExporter struct {
	id     string
	client *pubsub.Client
	topic  *pubsub.Topic
	log    Logger
}

func newGCPPubSubExporter(ctx context.Context, cfg ExporterConfig, log Logger) (Exporter, error) {
	if cfg.GCPPubSub == nil {
		return nil, fmt.Errorf("exporter %q missing gcp_pubsub configuration", cfg.ID)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var opts []option.ClientOption
	if cfg.GCPPubSub.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCPPubSub.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.GCPPubSub.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &gcpPubSubExporter{
		id:     cfg.ID,
		client: client,
		topic:  client.Topic(cfg.GCPPubSub.Topic),
		log:    ensureLogger(log),
	}, nil
}

func (g *gcpPubSubExporter) ID() string   { return g.id }
func (g *gcpPubSubExporter) Type() string { return TypeGCPPubSub }

// Export publishes the document and waits for the server ack.
func (g *gcpPubSubExporter) Export(ctx context.Context, doc Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	id, err := g.topic.Publish(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: documentAttributes(doc),
	}).Get(ctx)
	if err != nil {
		g.log.ErrorObj("pubsub exporter publish failed", "exporter_pubsub_error", map[string]any{
			"exporter_id": g.id,
			"error":       err.Error(),
		})
		return fmt.Errorf("publish to pubsub: %w", err)
	}
	g.log.DebugObj("pubsub exporter delivered document", "exporter_pubsub_delivery", map[string]any{
		"exporter_id": g.id,
		"message_id":  id,
	})
	return nil
}

// Close flushes pending messages and releases the client.
func (g *gcpPubSubExporter) Close() error {
	g.topic.Stop()
	return g.client.Close()
}
