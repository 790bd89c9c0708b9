package musicgpt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// FileClient downloads produced artifacts from the backend's file-serving
// endpoint.
type FileClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewFileClient constructs a download client rooted at baseURL.
func NewFileClient(baseURL string, timeout time.Duration) *FileClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FileClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/",
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Download fetches the artifact named by the relative path from a Result
// event and returns its bytes.
func (c *FileClient) Download(ctx context.Context, relPath string) ([]byte, error) {
	relPath = strings.TrimLeft(strings.TrimSpace(relPath), "/")
	if relPath == "" {
		return nil, fmt.Errorf("download: empty artifact path")
	}
	url := c.baseURL + relPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("download %s: new request: %w", url, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: http %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("download %s: read body: %w", url, err)
	}
	return data, nil
}
