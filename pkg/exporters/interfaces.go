package exporters

import "context"

// Exporter sends a rendered page to a sink (file, HTTP, SQS, etc).
type Exporter interface {
	ID() string
	Type() string
	Export(ctx context.Context, doc Document) error
}
