package catalog

import (
	"strconv"
	"strings"
	"time"
)

type Collection string

const (
	CollectionEvents     Collection = "events"
	CollectionDeals      Collection = "deals"
	CollectionBusinesses Collection = "businesses"
)

func Collections() []Collection {
	return []Collection{CollectionEvents, CollectionDeals, CollectionBusinesses}
}

// RawRecord is an untyped row as received from the remote store. Every
// field may be missing, null, or a string regardless of its logical type.
type RawRecord map[string]interface{}

func (r RawRecord) Str(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

func (r RawRecord) Float(key string) float64 {
	v, ok := r[key]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(n, "$")), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func (r RawRecord) Bool(key string) bool {
	v, ok := r[key]
	if !ok || v == nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	case float64:
		return b != 0
	default:
		return false
	}
}

type EventKind string

const (
	KindClass EventKind = "class"
	KindEvent EventKind = "event"
)

type AgeGroup string

const (
	AgeKids    AgeGroup = "Kids"
	AgeAdults  AgeGroup = "Adults"
	AgeAllAges AgeGroup = "All Ages"
)

type NormalizedEvent struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Kind         EventKind `json:"kind"`
	VenueID      string    `json:"venue_id,omitempty"`
	VenueName    string    `json:"venue_name"`
	VenueAddress string    `json:"venue_address"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Category     string    `json:"category"`
	AgeGroup     AgeGroup  `json:"age_group"`
	Price        string    `json:"price"`
	IsFree       bool      `json:"is_free"`
	Recurrence   string    `json:"recurrence,omitempty"`
	Description  string    `json:"description"`
	Featured     bool      `json:"featured"`
	TimeUnknown  bool      `json:"time_unknown"`
}

type DiscountKind string

const (
	DiscountPercent  DiscountKind = "percent"
	DiscountFixed    DiscountKind = "fixed"
	DiscountBOGO     DiscountKind = "bogo"
	DiscountFreeItem DiscountKind = "free_item"
	DiscountSpecial  DiscountKind = "special"
)

type NormalizedDeal struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	VenueName     string       `json:"venue_name"`
	VenueAddress  string       `json:"venue_address"`
	Category      string       `json:"category"`
	DiscountKind  DiscountKind `json:"discount_kind"`
	DiscountValue float64      `json:"discount_value,omitempty"`
	OriginalPrice float64      `json:"original_price,omitempty"`
	DealPrice     float64      `json:"deal_price,omitempty"`
	Score         float64      `json:"score"`
	Schedule      string       `json:"schedule,omitempty"`
	ValidUntil    *time.Time   `json:"valid_until,omitempty"`
	Description   string       `json:"description"`
}

type NormalizedBusiness struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Category    string `json:"category"`
	Phone       string `json:"phone,omitempty"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description"`
}

// FilterState is an immutable set of filter constraints. Each field has a
// "no constraint" sentinel so re-applying the same state is idempotent.
type FilterState struct {
	Day      string
	Time     string
	Age      string
	Category string
	Price    string
	Kind     string
}

const (
	DayAny      = "anytime"
	DayToday    = "today"
	DayTomorrow = "tomorrow"
	DayWeekend  = "weekend"
	DayNextWeek = "next_week"

	TimeAny       = "any"
	TimeMorning   = "morning"
	TimeAfternoon = "afternoon"
	TimeEvening   = "evening"

	AgeAny      = "any"
	CategoryAll = "all"
	PriceAny    = "any"
	PriceFree   = "free"
	PricePaid   = "paid"
	KindAll     = "all"
)

func DefaultFilterState() FilterState {
	return FilterState{
		Day:      DayAny,
		Time:     TimeAny,
		Age:      AgeAny,
		Category: CategoryAll,
		Price:    PriceAny,
		Kind:     KindAll,
	}
}
