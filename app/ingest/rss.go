package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/jeffkirdeikis/pulse-app-sub000/app/catalog"
)

// Submission is one ingested feed entry shaped as a raw source row plus
// its dedup hash.
type Submission struct {
	ContentHash string
	Record      catalog.RawRecord
}

// Ingester maps venue RSS/Atom feeds into raw submission records, the
// same shape scraped rows arrive in.
type Ingester struct {
	feedParser *gofeed.Parser
	extractor  *Extractor
	httpClient *http.Client
	userAgent  string
	loc        *time.Location
}

func NewIngester(httpClient *http.Client, userAgent string, loc *time.Location) *Ingester {
	return &Ingester{
		feedParser: gofeed.NewParser(),
		extractor:  NewExtractor(),
		httpClient: httpClient,
		userAgent:  userAgent,
		loc:        loc,
	}
}

func (i *Ingester) Run(ctx context.Context, feedURL string) ([]Submission, error) {
	data, err := i.fetch(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	submissions, err := i.parse(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	return submissions, nil
}

func (i *Ingester) parse(ctx context.Context, data []byte) ([]Submission, error) {
	feed, err := i.feedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	submissions := make([]Submission, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || item.Title == "" {
			continue
		}

		record := catalog.RawRecord{
			"id":          uuid.NewString(),
			"title":       item.Title,
			"description": item.Description,
			"link":        item.Link,
			"venue_name":  feed.Title,
			"status":      "active",
			"kind":        "event",
		}

		if item.PublishedParsed != nil {
			published := item.PublishedParsed.In(i.loc)
			record["date"] = published.Format("2006-01-02")
			record["start_time"] = published.Format("15:04")
		}

		if len(item.Categories) > 0 {
			record["category"] = strings.Join(item.Categories, " ")
		}

		if record.Str("description") == "" && item.Link != "" {
			if description := i.extractDescription(ctx, item.Link); description != "" {
				record["description"] = description
			}
		}

		submissions = append(submissions, Submission{
			ContentHash: contentHash(item.Title, item.Link),
			Record:      record,
		})
	}

	return submissions, nil
}

func (i *Ingester) extractDescription(ctx context.Context, link string) string {
	data, err := i.fetch(ctx, link)
	if err != nil {
		slog.Debug("Skipping description extraction", "link", link, "error", err)
		return ""
	}

	text, err := i.extractor.Run(data)
	if err != nil {
		slog.Debug("Skipping description extraction", "link", link, "error", err)
		return ""
	}

	// Keep the record display-sized; pages can be arbitrarily long.
	if len(text) > 500 {
		text = text[:500]
	}

	return text
}

func (i *Ingester) fetch(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", i.userAgent)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func contentHash(title, link string) string {
	content := fmt.Sprintf("%s|%s", title, link)

	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
