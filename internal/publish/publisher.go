// Package publish defines the crawl-completion event contract.
package publish

import "context"

// Publisher pushes crawl-completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}
