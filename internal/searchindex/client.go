// Package searchindex talks to the hosted search index. Documents there are
// populated by other pipelines; this package only ever corrects the
// verification mirror fields and runs diagnostic queries.
package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"firmsync/internal/common/config"
	apperrors "firmsync/internal/common/errors"
	"firmsync/internal/common/logger"
	"firmsync/internal/common/metrics"
)

const serviceName = "search-index"

type Client struct {
	baseURL       string
	applicationID string
	adminAPIKey   string
	httpClient    *http.Client
	logger        logger.Logger
}

func NewClient(cfg config.SearchIndexConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		applicationID: cfg.ApplicationID,
		adminAPIKey:   cfg.AdminAPIKey,
		httpClient: &http.Client{
			Timeout: config.GetDuration(cfg.Timeout),
		},
		logger: log.WithFields(map[string]interface{}{"component": serviceName}),
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Application-Id", c.applicationID)
	req.Header.Set("X-API-Key", c.adminAPIKey)
}

// GetObject fetches the full stored document for objectID.
func (c *Client) GetObject(ctx context.Context, objectID string) (map[string]interface{}, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, objectID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewRemoteError(serviceName, 0, err.Error())
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.IndexRoundTripDuration.WithLabelValues("get").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, apperrors.NewRemoteError(serviceName, 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewObjectNotFoundError(objectID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperrors.NewRemoteError(serviceName, resp.StatusCode, string(body))
	}

	var record map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, apperrors.NewRemoteError(serviceName, resp.StatusCode, fmt.Sprintf("decode object: %v", err))
	}
	return record, nil
}

// PutObject replaces the stored document wholesale. Callers must pass the
// complete record; a partial body would truncate every field not included.
func (c *Client) PutObject(ctx context.Context, objectID string, record map[string]interface{}) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("marshal object: %v", err))
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, objectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewBuffer(payload))
	if err != nil {
		return apperrors.NewRemoteError(serviceName, 0, err.Error())
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.IndexRoundTripDuration.WithLabelValues("put").Observe(time.Since(start).Seconds())
	if err != nil {
		return apperrors.NewRemoteError(serviceName, 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return apperrors.NewRemoteError(serviceName, resp.StatusCode, string(body))
	}
	return nil
}

type queryRequest struct {
	Query       string `json:"query"`
	HitsPerPage int    `json:"hitsPerPage"`
}

type queryResponse struct {
	Hits []map[string]interface{} `json:"hits"`
}

// TopHit runs a free-text query and returns the best match, or nil when the
// index has none. Diagnostics only; never part of the write path.
func (c *Client) TopHit(ctx context.Context, query string) (map[string]interface{}, error) {
	payload, err := json.Marshal(queryRequest{Query: query, HitsPerPage: 1})
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("marshal query: %v", err))
	}

	url := c.baseURL + "/query"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, apperrors.NewRemoteError(serviceName, 0, err.Error())
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewRemoteError(serviceName, 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperrors.NewRemoteError(serviceName, resp.StatusCode, string(body))
	}

	var result queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.NewRemoteError(serviceName, resp.StatusCode, fmt.Sprintf("decode query response: %v", err))
	}
	if len(result.Hits) == 0 {
		return nil, nil
	}
	return result.Hits[0], nil
}
