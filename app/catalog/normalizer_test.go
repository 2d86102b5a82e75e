package catalog

import (
	"testing"
	"time"
)

func testNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	loc := vancouverTime(t)
	timeNorm := NewTimeNormalizer(loc, DefaultRepairPolicy())
	return NewNormalizer(timeNorm, loadedTaxonomy(t), NewDealScorer())
}

func TestNormalizeEvent(t *testing.T) {
	normalizer := testNormalizer(t)

	raw := RawRecord{
		"id":          "evt-1",
		"title":       "Hot Yoga Class",
		"date":        "2025-06-15",
		"start_time":  "18:30",
		"end_time":    "19:30",
		"kind":        "class",
		"venue_name":  "RIVERSIDE STUDIO",
		"venue_id":    "ven-9",
		"price":       "$25",
		"description": "All levels welcome",
		"featured":    true,
	}

	event, ok := normalizer.Event(raw)
	if !ok {
		t.Fatal("Expected row to normalize")
	}

	if event.ID != "evt-1" {
		t.Errorf("Expected ID 'evt-1', got %q", event.ID)
	}
	if event.Kind != KindClass {
		t.Errorf("Expected kind class, got %q", event.Kind)
	}
	if event.VenueName != "Riverside Studio" {
		t.Errorf("Expected shouted venue name to be tidied, got %q", event.VenueName)
	}
	if event.Category != "Fitness" {
		t.Errorf("Expected category 'Fitness', got %q", event.Category)
	}
	if event.Start.Hour() != 18 || event.Start.Minute() != 30 {
		t.Errorf("Expected start 18:30, got %v", event.Start)
	}
	if !event.End.Equal(event.Start.Add(time.Hour)) {
		t.Errorf("Expected end one hour after start, got %v", event.End)
	}
	if event.TimeUnknown {
		t.Error("Expected timeUnknown false for a row with a start time")
	}
	if !event.Featured {
		t.Error("Expected featured flag to carry over")
	}
	if event.IsFree {
		t.Error("Expected a priced event to not be free")
	}
}

func TestNormalizeEventDropsInactive(t *testing.T) {
	normalizer := testNormalizer(t)

	raw := RawRecord{
		"id":     "evt-2",
		"title":  "Cancelled Concert",
		"date":   "2025-06-15",
		"status": "inactive",
	}

	if _, ok := normalizer.Event(raw); ok {
		t.Error("Expected inactive row to be dropped")
	}
}

func TestNormalizeEventDropsMissingRequiredFields(t *testing.T) {
	normalizer := testNormalizer(t)

	cases := []RawRecord{
		{"title": "No ID", "date": "2025-06-15"},
		{"id": "evt-3", "date": "2025-06-15"},
		{"id": "evt-4", "title": "No date"},
	}

	for _, raw := range cases {
		if _, ok := normalizer.Event(raw); ok {
			t.Errorf("Expected row %v to be dropped", raw)
		}
	}
}

func TestNormalizeEventCategoryFromTitle(t *testing.T) {
	normalizer := testNormalizer(t)

	raw := RawRecord{
		"id":    "evt-5",
		"title": "Open Mic Night",
		"date":  "2025-06-15",
	}

	event, ok := normalizer.Event(raw)
	if !ok {
		t.Fatal("Expected row to normalize")
	}
	if event.Category != "Music" {
		t.Errorf("Expected category inferred from title, got %q", event.Category)
	}
}

func TestNormalizeEventFreePrices(t *testing.T) {
	normalizer := testNormalizer(t)

	for _, price := range []string{"Free", "$0", "0", "no charge", "By Donation"} {
		raw := RawRecord{"id": "evt-6", "title": "Park Cleanup", "date": "2025-06-15", "price": price}
		event, ok := normalizer.Event(raw)
		if !ok {
			t.Fatal("Expected row to normalize")
		}
		if !event.IsFree {
			t.Errorf("Expected price %q to mark the event free", price)
		}
	}
}

func TestNormalizeEventMissingTime(t *testing.T) {
	normalizer := testNormalizer(t)

	raw := RawRecord{"id": "evt-7", "title": "Book Sale", "date": "2025-06-15"}

	event, ok := normalizer.Event(raw)
	if !ok {
		t.Fatal("Expected row to normalize")
	}
	if !event.TimeUnknown {
		t.Error("Expected timeUnknown for a row with no start time")
	}
	if event.Start.Hour() != 9 {
		t.Errorf("Expected placeholder start hour 9, got %d", event.Start.Hour())
	}
}

func TestNormalizeDeal(t *testing.T) {
	normalizer := testNormalizer(t)

	raw := RawRecord{
		"id":             "deal-1",
		"title":          "Wing Wednesday",
		"venue_name":     "the local pub",
		"discount_type":  "percent",
		"discount_value": "30",
		"valid_until":    "2025-12-31",
		"description":    "Thirty percent off all wings every Wednesday",
	}

	deal, ok := normalizer.Deal(raw)
	if !ok {
		t.Fatal("Expected row to normalize")
	}

	if deal.DiscountKind != DiscountPercent {
		t.Errorf("Expected percent discount, got %q", deal.DiscountKind)
	}
	if deal.DiscountValue != 30 {
		t.Errorf("Expected discount value 30, got %v", deal.DiscountValue)
	}
	if deal.Score != 30 {
		t.Errorf("Expected score 30, got %v", deal.Score)
	}
	if deal.VenueName != "The Local Pub" {
		t.Errorf("Expected lowercase venue name to be tidied, got %q", deal.VenueName)
	}
	if deal.ValidUntil == nil || deal.ValidUntil.Format("2006-01-02") != "2025-12-31" {
		t.Errorf("Expected valid_until 2025-12-31, got %v", deal.ValidUntil)
	}
}

func TestNormalizeDealDollarPrefixedNumbers(t *testing.T) {
	normalizer := testNormalizer(t)

	raw := RawRecord{
		"id":             "deal-2",
		"title":          "Lunch combo",
		"original_price": "$15.50",
		"deal_price":     "$10",
	}

	deal, ok := normalizer.Deal(raw)
	if !ok {
		t.Fatal("Expected row to normalize")
	}
	if deal.OriginalPrice != 15.50 {
		t.Errorf("Expected original price 15.50, got %v", deal.OriginalPrice)
	}
	if deal.DealPrice != 10 {
		t.Errorf("Expected deal price 10, got %v", deal.DealPrice)
	}
}

func TestParseDiscountKind(t *testing.T) {
	cases := []struct {
		input    string
		expected DiscountKind
	}{
		{"percent", DiscountPercent},
		{"Percentage", DiscountPercent},
		{"percent_off", DiscountPercent},
		{"fixed", DiscountFixed},
		{"amount", DiscountFixed},
		{"dollar_off", DiscountFixed},
		{"bogo", DiscountBOGO},
		{"two_for_one", DiscountBOGO},
		{"2for1", DiscountBOGO},
		{"free_item", DiscountFreeItem},
		{"freebie", DiscountFreeItem},
		{"", DiscountSpecial},
		{"mystery", DiscountSpecial},
	}

	for _, tc := range cases {
		if got := parseDiscountKind(tc.input); got != tc.expected {
			t.Errorf("parseDiscountKind(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}
}

func TestNormalizeBusiness(t *testing.T) {
	normalizer := testNormalizer(t)

	raw := RawRecord{
		"id":       "biz-1",
		"name":     "MAIN STREET BOOKS",
		"category": "Retail",
		"address":  "123 Main St",
		"phone":    "604-555-0101",
	}

	business, ok := normalizer.Business(raw)
	if !ok {
		t.Fatal("Expected row to normalize")
	}
	if business.Name != "Main Street Books" {
		t.Errorf("Expected tidied name, got %q", business.Name)
	}
	if business.Category != "Retail" {
		t.Errorf("Expected category 'Retail', got %q", business.Category)
	}
}

func TestNormalizeBusinessNameFallsBackToTitle(t *testing.T) {
	normalizer := testNormalizer(t)

	raw := RawRecord{"id": "biz-2", "title": "Corner Bakery"}

	business, ok := normalizer.Business(raw)
	if !ok {
		t.Fatal("Expected row to normalize")
	}
	if business.Name != "Corner Bakery" {
		t.Errorf("Expected name from title field, got %q", business.Name)
	}
}

func TestDisplayCaseLeavesMixedCaseAlone(t *testing.T) {
	normalizer := testNormalizer(t)

	raw := RawRecord{"id": "biz-3", "name": "McTavish's Pub"}

	business, ok := normalizer.Business(raw)
	if !ok {
		t.Fatal("Expected row to normalize")
	}
	if business.Name != "McTavish's Pub" {
		t.Errorf("Expected mixed-case name untouched, got %q", business.Name)
	}
}
