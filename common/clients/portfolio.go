package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/lyzr/portfolio/common/models"
	"github.com/lyzr/portfolio/common/reconcile"
	"github.com/lyzr/portfolio/common/storage"
)

// UploadFile is one image to upload
type UploadFile struct {
	Name        string
	Body        io.Reader
	Size        int64 // -1 when unknown
	ContentType string
}

// PortfolioClient uploads images and asks the portfolio service to
// reconcile the project straight away
type PortfolioClient struct {
	baseURL string
	http    *HTTPClient
	store   storage.ObjectStore
	logger  Logger
}

// NewPortfolioClient creates a client for the service at baseURL
func NewPortfolioClient(baseURL, adminToken string, store storage.ObjectStore, logger Logger) *PortfolioClient {
	httpClient := &http.Client{
		Timeout: 5 * time.Minute,
	}

	return &PortfolioClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    NewHTTPClient(httpClient, adminToken, logger),
		store:   store,
		logger:  logger,
	}
}

// ObjectPath returns {project_id}/{category}/{base name of name}
func ObjectPath(projectID string, category models.Category, name string) string {
	return projectID + "/" + string(category) + "/" + path.Base(name)
}

// UploadAndRefresh uploads files under {project_id}/{category}/ and then
// calls the manual refresh endpoint for that project. Uploads stop at the
// first failure; the refresh only runs once every upload has succeeded.
func (c *PortfolioClient) UploadAndRefresh(ctx context.Context, projectID string, category models.Category, files []UploadFile) (*reconcile.ProjectResponse, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	if _, ok := models.ParseCategory(string(category)); !ok {
		return nil, fmt.Errorf("unknown category %q", category)
	}

	for _, f := range files {
		key := ObjectPath(projectID, category, f.Name)
		if err := c.store.Upload(ctx, key, f.Body, f.Size, f.ContentType); err != nil {
			return nil, fmt.Errorf("failed to upload %s: %w", key, err)
		}
		c.logger.Info("uploaded image", "project_id", projectID, "path", key)
	}

	return c.Refresh(ctx, projectID)
}

// Refresh calls POST /api/v1/admin/reconcile for one project
func (c *PortfolioClient) Refresh(ctx context.Context, projectID string) (*reconcile.ProjectResponse, error) {
	payload, err := json.Marshal(map[string]string{"project_id": projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode refresh request: %w", err)
	}

	url := c.baseURL + "/api/v1/admin/reconcile"
	resp, err := c.http.DoRequest(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to call refresh: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh response: %w", err)
	}

	// a failed reconcile is still a structured result
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadGateway {
		return nil, fmt.Errorf("refresh request failed: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var result reconcile.ProjectResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}

	c.logger.Info("project refreshed",
		"project_id", result.ProjectID,
		"status", result.Status,
		"before_count", result.BeforeCount,
		"after_count", result.AfterCount)

	return &result, nil
}
