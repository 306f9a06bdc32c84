package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublisherRecordsMessages(t *testing.T) {
	t.Parallel()

	p := New()
	ctx := context.Background()

	id1, err := p.Publish(ctx, "crawl-completed", map[string]any{"site_key": "shop.test"})
	require.NoError(t, err)
	require.Equal(t, "memory-1", id1)

	id2, err := p.Publish(ctx, "crawl-completed", map[string]any{"site_key": "other.test"})
	require.NoError(t, err)
	require.Equal(t, "memory-2", id2)

	msgs := p.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "crawl-completed", msgs[0].Topic)
	require.Equal(t, map[string]any{"site_key": "shop.test"}, msgs[0].Payload)
}

func TestPublisherMessagesReturnsCopy(t *testing.T) {
	t.Parallel()

	p := New()
	_, err := p.Publish(context.Background(), "t", "payload")
	require.NoError(t, err)

	msgs := p.Messages()
	msgs[0].Topic = "mutated"
	require.Equal(t, "t", p.Messages()[0].Topic)
}
