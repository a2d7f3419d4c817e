package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dotflow/refill-backend/internal/consts"
	"github.com/dotflow/refill-backend/internal/model"
	"github.com/dotflow/refill-backend/internal/utils/config"
	"github.com/dotflow/refill-backend/internal/utils/logger"
)

type dispatcher struct {
	queueURL string
	client   *http.Client
	logger   *logger.Logger
}

func New(cfg *config.AppConfig, logger *logger.Logger) IDispatcher {
	return &dispatcher{
		queueURL: cfg.Webhook.QueueURL,
		client:   &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

func (d *dispatcher) Dispatch(ctx context.Context, payloads []model.WebhookPayload) ([]uint, error) {
	var delivered []uint
	var lastErr error

	for start := 0; start < len(payloads); start += consts.WebhookBatchSize {
		end := start + consts.WebhookBatchSize
		if end > len(payloads) {
			end = len(payloads)
		}
		batch := payloads[start:end]

		if err := d.postBatch(ctx, batch); err != nil {
			d.logger.Error("[Dispatch][postBatch]", map[string]string{
				"batchSize": strconv.Itoa(len(batch)),
				"error":     err.Error(),
			})
			lastErr = err
			continue
		}
		for _, payload := range batch {
			delivered = append(delivered, payload.ID)
		}
	}

	return delivered, lastErr
}

func (d *dispatcher) postBatch(ctx context.Context, batch []model.WebhookPayload) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook batch: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.queueURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to enqueue webhook batch: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("queue returned status %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}
