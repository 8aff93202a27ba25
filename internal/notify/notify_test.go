package notify

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rinknet/internal/contact"
	"rinknet/internal/moderation"
)

func TestBindings_CoverAllPublishedKeys(t *testing.T) {
	published := []string{
		contact.NotifyRequested,
		contact.NotifyApproved,
		contact.NotifyRejected,
		moderation.NotifyDisputeOpened,
		moderation.NotifyDisputeReplied,
		moderation.NotifyDisputeClosed,
	}

	bound := make(map[string]bool)
	for _, b := range Bindings() {
		assert.False(t, bound[b.RoutingKey], "duplicate binding for %s", b.RoutingKey)
		bound[b.RoutingKey] = true
	}
	for _, key := range published {
		assert.True(t, bound[key], "no queue bound for %s", key)
	}
}

func TestLogDeliverer_HandlesAnyPayload(t *testing.T) {
	d := &LogDeliverer{Logger: slog.Default()}

	require.NoError(t, d.Deliver(context.Background(), "contact.requested", []byte(`{"id":"abc"}`)))
	require.NoError(t, d.Deliver(context.Background(), "contact.requested", []byte(`not json`)))
}
