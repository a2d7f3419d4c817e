package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotflow/refill-backend/internal/model"
	"github.com/dotflow/refill-backend/internal/types/environments"
	"github.com/dotflow/refill-backend/internal/utils/config"
	"github.com/dotflow/refill-backend/internal/utils/logger"
)

func newTestDispatcher(url string) IDispatcher {
	cfg := &config.AppConfig{}
	cfg.Webhook.QueueURL = url
	return New(cfg, logger.New(environments.Test))
}

func makePayloads(n int) []model.WebhookPayload {
	payloads := make([]model.WebhookPayload, n)
	for i := range payloads {
		payloads[i] = model.WebhookPayload{
			ID:                uint(i + 1),
			TransactionHash:   "0xhash" + strconv.Itoa(i+1),
			ReferenceTable:    "wallet",
			ReferenceID:       7,
			TransactionStatus: model.TransactionStatusConfirmed,
		}
	}
	return payloads
}

func TestDispatchBatches(t *testing.T) {
	var batchSizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var batch []model.WebhookPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))
		batchSizes = append(batchSizes, len(batch))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	delivered, err := newTestDispatcher(server.URL).Dispatch(context.Background(), makePayloads(23))
	require.NoError(t, err)

	assert.Equal(t, []int{10, 10, 3}, batchSizes)
	assert.Len(t, delivered, 23)
	assert.Equal(t, uint(1), delivered[0])
	assert.Equal(t, uint(23), delivered[22])
}

func TestDispatchPartialFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			http.Error(w, "queue full", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	delivered, err := newTestDispatcher(server.URL).Dispatch(context.Background(), makePayloads(23))
	require.Error(t, err)

	// Batches one and three were accepted; their ids must still be
	// reported so the caller can stamp them.
	assert.Len(t, delivered, 13)
	assert.NotContains(t, delivered, uint(11))
	assert.Contains(t, delivered, uint(21))
}

func TestDispatchEmpty(t *testing.T) {
	delivered, err := newTestDispatcher("http://unused.invalid").Dispatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, delivered)
}
