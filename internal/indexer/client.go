package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/dotflow/refill-backend/internal/consts"
	"github.com/dotflow/refill-backend/internal/model"
	"github.com/dotflow/refill-backend/internal/utils/logger"
)

// enrichmentSpec describes the chain family's created-resource query: the
// GraphQL field to request and the response field carrying the id.
type enrichmentSpec struct {
	queryName  string
	valueField string
}

type client struct {
	chain      string
	baseURL    string
	enrichment *enrichmentSpec
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logger.Logger
}

func newClient(chain, baseURL string, enrichment *enrichmentSpec, logger *logger.Logger) IIndexer {
	return &client{
		chain:      chain,
		baseURL:    baseURL,
		enrichment: enrichment,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    chain + "-indexer",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		logger: logger,
	}
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

func (c *client) GetBlockHeight(ctx context.Context) (uint64, error) {
	var resp struct {
		BlockHeight struct {
			Height uint64 `json:"height"`
		} `json:"blockHeight"`
	}
	query := `query { blockHeight { height } }`
	if err := c.query(ctx, query, nil, &resp); err != nil {
		return 0, errors.Wrapf(err, "failed to get %s block height", c.chain)
	}
	return resp.BlockHeight.Height, nil
}

func (c *client) GetAllSystemEvents(ctx context.Context, account string, fromBlock, toBlock uint64) ([]model.SystemEvent, error) {
	var resp struct {
		SystemEvents []model.SystemEvent `json:"systemEvents"`
	}
	query := `query ($account: String!, $fromBlock: Int!, $toBlock: Int!) {
		systemEvents(account: $account, fromBlock: $fromBlock, toBlock: $toBlock) {
			id blockHash blockNumber extrinsicHash transactionType createdAt status account error fee
		}
	}`
	variables := map[string]interface{}{
		"account":   account,
		"fromBlock": fromBlock,
		"toBlock":   toBlock,
	}
	if err := c.query(ctx, query, variables, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to get %s system events", c.chain)
	}
	return resp.SystemEvents, nil
}

func (c *client) HasEnrichment() bool {
	return c.enrichment != nil
}

func (c *client) GetEnrichedCreations(ctx context.Context, account string, hashes []string) ([]model.EnrichedCreation, error) {
	if c.enrichment == nil || len(hashes) == 0 {
		return nil, nil
	}

	var resp map[string][]map[string]interface{}
	query := fmt.Sprintf(`query ($account: String!, $hashes: [String!]!) {
		%s(account: $account, hashes: $hashes) { extrinsicHash %s }
	}`, c.enrichment.queryName, c.enrichment.valueField)
	variables := map[string]interface{}{
		"account": account,
		"hashes":  hashes,
	}
	if err := c.query(ctx, query, variables, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to get %s enriched creations", c.chain)
	}

	var creations []model.EnrichedCreation
	for _, row := range resp[c.enrichment.queryName] {
		hash, _ := row["extrinsicHash"].(string)
		if hash == "" {
			continue
		}
		creations = append(creations, model.EnrichedCreation{
			ExtrinsicHash: hash,
			Value:         stringify(row[c.enrichment.valueField]),
		})
	}
	return creations, nil
}

func (c *client) query(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doQuery(ctx, query, variables)
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(result.([]byte), out)
}

func (c *client) doQuery(ctx context.Context, query string, variables map[string]interface{}) ([]byte, error) {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= consts.IndexerMaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = errors.Wrap(err, "indexer request failed")
			c.logger.Error("[indexer][doQuery]", map[string]string{
				"chain":   c.chain,
				"error":   err.Error(),
				"attempt": strconv.Itoa(attempt),
			})
			if ctx.Err() != nil {
				return nil, lastErr
			}
			time.Sleep(time.Duration(attempt) * time.Second)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = errors.Wrap(readErr, "failed to read indexer response")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = errors.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
			c.logger.Error("[indexer][doQuery]", map[string]string{
				"chain":      c.chain,
				"statusCode": strconv.Itoa(resp.StatusCode),
				"attempt":    strconv.Itoa(attempt),
			})
			// Only rate limiting and server errors are worth retrying.
			if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
				return nil, lastErr
			}
			time.Sleep(time.Duration(attempt) * time.Second)
			continue
		}

		var envelope struct {
			Data   json.RawMessage `json:"data"`
			Errors []graphQLError  `json:"errors"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			lastErr = errors.Wrap(err, "failed to parse indexer response")
			continue
		}
		if len(envelope.Errors) > 0 {
			return nil, errors.Errorf("indexer query error: %s", envelope.Errors[0].Message)
		}
		return envelope.Data, nil
	}

	return nil, lastErr
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
