package cms

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
	"firmsync/internal/models"
)

const serviceName = "cms"

// Client talks to the content-publishing system's REST contract.
// Credentials are injected at construction; nothing is read from process
// globals.
type Client struct {
	baseURL     string
	username    string
	appPassword string
	httpClient  *http.Client
	logger      logger.Logger
}

type publishResponse struct {
	ID int64 `json:"id"`
}

func NewClient(cfg config.CMSConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		username:    cfg.Username,
		appPassword: cfg.AppPassword,
		httpClient: &http.Client{
			Timeout: config.GetDuration(cfg.Timeout),
		},
		logger: log.WithFields(map[string]interface{}{"component": serviceName}),
	}
}

// Publish creates or updates the CMS entry for the firm and returns the CMS
// id. A firm that already carries a CMS id is always updated in place, never
// duplicated. Non-2xx responses become remote errors carrying status and
// body; there is no retry.
func (c *Client) Publish(ctx context.Context, firm *models.Firm) (int64, error) {
	if strings.TrimSpace(firm.Name) == "" || strings.TrimSpace(firm.Slug) == "" {
		return 0, apperrors.NewValidationError("firm name and slug are required for publishing")
	}

	entry := BuildEntry(firm)
	if err := validateEntry(entry); err != nil {
		return 0, err
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("marshal entry: %v", err))
	}

	method := http.MethodPost
	url := c.baseURL
	if firm.CMSID != nil {
		method = http.MethodPut
		url = fmt.Sprintf("%s/%d", c.baseURL, *firm.CMSID)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewBuffer(payload))
	if err != nil {
		return 0, apperrors.NewRemoteError(serviceName, 0, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.appPassword)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.CMSPublishDuration.WithLabelValues(strings.ToLower(method)).Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, apperrors.NewRemoteError(serviceName, 0, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, apperrors.NewRemoteError(serviceName, resp.StatusCode, err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, apperrors.NewRemoteError(serviceName, resp.StatusCode, string(body))
	}

	// The update path keeps the stored id; only a create yields a new one.
	if firm.CMSID != nil {
		c.logger.Info("updated cms entry", map[string]interface{}{
			"firmId": firm.ID,
			"cmsId":  *firm.CMSID,
		})
		return *firm.CMSID, nil
	}

	var created publishResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return 0, apperrors.NewRemoteError(serviceName, resp.StatusCode, fmt.Sprintf("unparseable create response: %v", err))
	}
	if created.ID == 0 {
		return 0, apperrors.NewRemoteError(serviceName, resp.StatusCode, "create response carried no id")
	}

	c.logger.Info("created cms entry", map[string]interface{}{
		"firmId": firm.ID,
		"cmsId":  created.ID,
	})
	return created.ID, nil
}
