package catalog

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalizer turns raw rows from the remote store into normalized records.
// Row-level transforms are pure and synchronous; rows that cannot yield a
// usable record are dropped, never errored.
type Normalizer struct {
	timeNorm *TimeNormalizer
	taxonomy *Taxonomy
	scorer   *DealScorer
	caser    cases.Caser
}

func NewNormalizer(timeNorm *TimeNormalizer, taxonomy *Taxonomy, scorer *DealScorer) *Normalizer {
	return &Normalizer{
		timeNorm: timeNorm,
		taxonomy: taxonomy,
		scorer:   scorer,
		caser:    cases.Title(language.English),
	}
}

func (n *Normalizer) Event(raw RawRecord) (NormalizedEvent, bool) {
	if !n.isActive(raw) {
		return NormalizedEvent{}, false
	}

	id := raw.Str("id")
	title := raw.Str("title")
	date := raw.Str("date")
	if id == "" || title == "" || date == "" {
		return NormalizedEvent{}, false
	}

	start, timeUnknown := n.timeNorm.StartInstant(date, raw.Str("start_time"))
	end := n.timeNorm.EndInstant(date, raw.Str("end_time"), start)

	kind := KindEvent
	if strings.EqualFold(raw.Str("kind"), string(KindClass)) {
		kind = KindClass
	}

	description := raw.Str("description")
	price := raw.Str("price")

	event := NormalizedEvent{
		ID:           id,
		Title:        title,
		Kind:         kind,
		VenueID:      raw.Str("venue_id"),
		VenueName:    n.displayCase(raw.Str("venue_name")),
		VenueAddress: raw.Str("venue_address"),
		Start:        start,
		End:          end,
		Category:     n.taxonomy.Normalize(categoryText(raw, title)),
		AgeGroup:     n.taxonomy.InferAgeGroup(title, description),
		Price:        price,
		IsFree:       isFreePrice(price, raw),
		Recurrence:   raw.Str("recurrence"),
		Description:  description,
		Featured:     raw.Bool("featured"),
		TimeUnknown:  timeUnknown,
	}

	return event, true
}

func (n *Normalizer) Deal(raw RawRecord) (NormalizedDeal, bool) {
	if !n.isActive(raw) {
		return NormalizedDeal{}, false
	}

	id := raw.Str("id")
	title := raw.Str("title")
	if id == "" || title == "" {
		return NormalizedDeal{}, false
	}

	deal := NormalizedDeal{
		ID:            id,
		Title:         title,
		VenueName:     n.displayCase(raw.Str("venue_name")),
		VenueAddress:  raw.Str("venue_address"),
		Category:      n.taxonomy.Normalize(categoryText(raw, title)),
		DiscountKind:  parseDiscountKind(raw.Str("discount_type")),
		DiscountValue: raw.Float("discount_value"),
		OriginalPrice: raw.Float("original_price"),
		DealPrice:     raw.Float("deal_price"),
		Schedule:      raw.Str("schedule"),
		Description:   raw.Str("description"),
	}

	if until := raw.Str("valid_until"); until != "" {
		if t, err := time.Parse("2006-01-02", until); err == nil {
			deal.ValidUntil = &t
		}
	}

	deal.Score = n.scorer.Score(deal)

	return deal, true
}

func (n *Normalizer) Business(raw RawRecord) (NormalizedBusiness, bool) {
	if !n.isActive(raw) {
		return NormalizedBusiness{}, false
	}

	id := raw.Str("id")
	name := raw.Str("name")
	if name == "" {
		name = raw.Str("title")
	}
	if id == "" || name == "" {
		return NormalizedBusiness{}, false
	}

	return NormalizedBusiness{
		ID:          id,
		Name:        n.displayCase(name),
		Address:     raw.Str("address"),
		Category:    n.taxonomy.Normalize(raw.Str("category")),
		Phone:       raw.Str("phone"),
		Website:     raw.Str("website"),
		Description: raw.Str("description"),
	}, true
}

func (n *Normalizer) isActive(raw RawRecord) bool {
	status := raw.Str("status")
	return status == "" || strings.EqualFold(status, "active")
}

// displayCase tidies shouted or all-lowercase names; mixed-case input is
// assumed intentional and left alone.
func (n *Normalizer) displayCase(name string) string {
	if name == "" {
		return name
	}
	if name == strings.ToUpper(name) || name == strings.ToLower(name) {
		return n.caser.String(strings.ToLower(name))
	}
	return name
}

// categoryText prefers the row's own category text; rows without one are
// classified from their title instead.
func categoryText(raw RawRecord, title string) string {
	if category := raw.Str("category"); category != "" {
		return category
	}
	return title
}

func parseDiscountKind(raw string) DiscountKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "percent", "percentage", "percent_off":
		return DiscountPercent
	case "fixed", "amount", "dollar_off":
		return DiscountFixed
	case "bogo", "two_for_one", "2for1":
		return DiscountBOGO
	case "free_item", "freebie":
		return DiscountFreeItem
	default:
		return DiscountSpecial
	}
}

func isFreePrice(price string, raw RawRecord) bool {
	if raw.Bool("is_free") {
		return true
	}
	lower := strings.ToLower(strings.TrimSpace(price))
	return lower == "free" || lower == "$0" || lower == "0" || lower == "no charge" || lower == "by donation"
}
