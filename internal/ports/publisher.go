package ports

import "context"

// Publisher delivers handle lifecycle events to a topic.
type Publisher interface {
	PublishRaw(ctx context.Context, arn string, payload []byte) error
}
