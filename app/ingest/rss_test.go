package ingest

import (
	"context"
	"net/http"
	"testing"
	"time"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Riverside Community Centre</title>
    <link>https://example.com</link>
    <item>
      <title>Summer Kickoff Concert</title>
      <link>https://example.com/events/kickoff</link>
      <description>Live music on the lawn, all ages welcome</description>
      <category>Music</category>
      <pubDate>Sun, 01 Jun 2025 19:30:00 -0700</pubDate>
    </item>
    <item>
      <title>Drop-in Pottery</title>
      <link>https://example.com/events/pottery</link>
      <description>Bring your own apron, clay provided</description>
    </item>
    <item>
      <title></title>
      <link>https://example.com/events/untitled</link>
      <description>Entries without a title are skipped</description>
    </item>
  </channel>
</rss>`

func testIngester(t *testing.T) *Ingester {
	t.Helper()
	loc, err := time.LoadLocation("America/Vancouver")
	if err != nil {
		t.Fatal(err)
	}
	return NewIngester(&http.Client{}, "pulse-test/1.0", loc)
}

func TestParseFeed(t *testing.T) {
	ingester := testIngester(t)

	submissions, err := ingester.parse(context.Background(), []byte(rssFixture))
	if err != nil {
		t.Fatal(err)
	}

	if len(submissions) != 2 {
		t.Fatalf("Expected 2 submissions, got %d", len(submissions))
	}

	record := submissions[0].Record
	if record.Str("title") != "Summer Kickoff Concert" {
		t.Errorf("Expected item title, got %q", record.Str("title"))
	}
	if record.Str("venue_name") != "Riverside Community Centre" {
		t.Errorf("Expected venue from feed title, got %q", record.Str("venue_name"))
	}
	if record.Str("status") != "active" {
		t.Errorf("Expected active status, got %q", record.Str("status"))
	}
	if record.Str("kind") != "event" {
		t.Errorf("Expected event kind, got %q", record.Str("kind"))
	}
	if record.Str("category") != "Music" {
		t.Errorf("Expected category from feed, got %q", record.Str("category"))
	}
	if record.Str("id") == "" {
		t.Error("Expected a generated id")
	}
}

func TestParseFeedPublishedDate(t *testing.T) {
	ingester := testIngester(t)

	submissions, err := ingester.parse(context.Background(), []byte(rssFixture))
	if err != nil {
		t.Fatal(err)
	}

	record := submissions[0].Record
	if record.Str("date") != "2025-06-01" {
		t.Errorf("Expected civil date 2025-06-01, got %q", record.Str("date"))
	}
	if record.Str("start_time") != "19:30" {
		t.Errorf("Expected start time 19:30, got %q", record.Str("start_time"))
	}

	// The second item has no pubDate, so no date fields at all.
	second := submissions[1].Record
	if second.Str("date") != "" || second.Str("start_time") != "" {
		t.Errorf("Expected no date fields without pubDate, got %q %q",
			second.Str("date"), second.Str("start_time"))
	}
}

func TestParseFeedSkipsUntitledItems(t *testing.T) {
	ingester := testIngester(t)

	submissions, err := ingester.parse(context.Background(), []byte(rssFixture))
	if err != nil {
		t.Fatal(err)
	}

	for _, submission := range submissions {
		if submission.Record.Str("title") == "" {
			t.Error("Untitled items must be skipped")
		}
	}
}

func TestContentHashStableAndDistinct(t *testing.T) {
	first := contentHash("Summer Kickoff Concert", "https://example.com/events/kickoff")
	again := contentHash("Summer Kickoff Concert", "https://example.com/events/kickoff")
	other := contentHash("Drop-in Pottery", "https://example.com/events/pottery")

	if first != again {
		t.Error("Hash must be stable for identical content")
	}
	if first == other {
		t.Error("Hash must differ for different content")
	}
	if len(first) != 64 {
		t.Errorf("Expected a hex-encoded SHA-256, got length %d", len(first))
	}
}

func TestParseFeedInvalidXML(t *testing.T) {
	ingester := testIngester(t)

	if _, err := ingester.parse(context.Background(), []byte("not a feed")); err == nil {
		t.Error("Expected an error for unparseable input")
	}
}
