package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dotflow/refill-backend/internal/utils/config"
	"github.com/dotflow/refill-backend/internal/utils/logger"
)

type submitter struct {
	submitURL string
	client    *http.Client
	logger    *logger.Logger
}

func New(cfg *config.AppConfig, logger *logger.Logger) ISubmitter {
	return &submitter{
		submitURL: cfg.Blockchain.SubmitterURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

// Submit hands the signed-extrinsic request to the submission service.
// Exactly one attempt: a retry after an ambiguous failure could land the
// same extrinsic on chain twice, which is worse than surfacing the error
// and letting the operator re-confirm.
func (s *submitter) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submit request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.submitURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		s.logger.Error("[Submit][client.Do]", map[string]string{
			"chain": req.Chain,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("failed to reach submission service: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		s.logger.Error("[Submit][StatusCode]", map[string]string{
			"chain":  req.Chain,
			"status": strconv.Itoa(resp.StatusCode),
			"body":   string(body),
		})
		return nil, fmt.Errorf("submission service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result SubmitResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal submit result: %v", err)
	}

	s.logger.Info("[Submit] accepted", map[string]string{
		"chain":         req.Chain,
		"referenceId":   strconv.Itoa(int(req.ReferenceID)),
		"extrinsicHash": result.ExtrinsicHash,
	})
	return &result, nil
}
