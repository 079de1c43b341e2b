package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newTestClient(t *testing.T) (*pubsub.Client, *pstest.Server) {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := pubsub.NewClient(context.Background(), "leads-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestPublishSendsJSON(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, srv := newTestClient(t)
	_, err := client.CreateTopic(ctx, "lead-cycles")
	require.NoError(t, err)

	pub := New(client, "lead-cycles")
	t.Cleanup(pub.Close)

	id, err := pub.Publish(ctx, "", map[string]int{"scrapedCount": 3})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	var got map[string]int
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	assert.Equal(t, 3, got["scrapedCount"])
	assert.Equal(t, "application/json", msgs[0].Attributes["content_type"])
}

func TestPublishErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, err := New(nil, "t").Publish(ctx, "", "x")
	require.ErrorContains(t, err, "not configured")

	client, _ := newTestClient(t)
	pub := New(client, "")
	t.Cleanup(pub.Close)

	_, err = pub.Publish(ctx, "", "x")
	require.ErrorContains(t, err, "topic name is required")

	_, err = pub.Publish(ctx, "t", func() {})
	require.ErrorContains(t, err, "marshal payload")

	_, err = pub.Publish(ctx, "missing-topic", "x")
	require.ErrorContains(t, err, "publish message")
}
