package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jeffkirdeikis/pulse-app-sub000/app/catalog"
)

var _ Source = (*RESTSource)(nil)

// RESTSource queries a PostgREST-style row endpoint: one JSON array per
// collection path, with limit/offset pagination and a stable order.
type RESTSource struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewRESTSource(baseURL string, httpClient *http.Client, userAgent string) *RESTSource {
	return &RESTSource{
		baseURL:    baseURL,
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    30 * time.Second,
	}
}

func (s *RESTSource) FetchPage(ctx context.Context, collection catalog.Collection, limit, offset int) ([]catalog.RawRecord, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	query.Set("order", "id")

	endpoint := fmt.Sprintf("%s/%s?%s", s.baseURL, collection, query.Encode())

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var rows []catalog.RawRecord
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}

	return rows, nil
}
