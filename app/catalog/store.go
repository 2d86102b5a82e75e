package catalog

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// Titles consisting only of status text are scraper noise, not events.
var statusTitlePattern = regexp.MustCompile(`(?i)^(active|inactive|cancelled|canceled|postponed|closed|tbd|n/a)$`)

const minTitleLength = 3

// The "today" filter intentionally spans a 30-day forward window; callers
// rely on the literal key even though the label reads like a single day.
const todayWindow = 30 * 24 * time.Hour

type DateGroup struct {
	Date   string            `json:"date"`
	Events []NormalizedEvent `json:"events"`
}

// Store exclusively owns the normalized collections. Fetch completions
// swap in whole new slices; queries return fresh copies, so readers never
// observe partial updates and never share mutable state.
type Store struct {
	loc    *time.Location
	scorer *DealScorer
	now    func() time.Time

	mu         sync.RWMutex
	events     []NormalizedEvent
	deals      []NormalizedDeal
	businesses []NormalizedBusiness
	refreshed  map[Collection]time.Time
}

func NewStore(loc *time.Location, scorer *DealScorer) *Store {
	return &Store{
		loc:       loc,
		scorer:    scorer,
		now:       time.Now,
		refreshed: make(map[Collection]time.Time),
	}
}

// SetNowFunc overrides the clock. Used by tests.
func (s *Store) SetNowFunc(now func() time.Time) {
	s.now = now
}

func (s *Store) ReplaceEvents(events []NormalizedEvent) {
	snapshot := make([]NormalizedEvent, len(events))
	copy(snapshot, events)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = snapshot
	s.refreshed[CollectionEvents] = s.now()
}

// ReplaceDeals swaps in a new deals collection. Deals with no real savings
// signal are excluded here, before any scoring or sorting, so they can
// never appear in any query output.
func (s *Store) ReplaceDeals(deals []NormalizedDeal) {
	snapshot := make([]NormalizedDeal, 0, len(deals))
	for _, deal := range deals {
		if s.scorer.IsRealDeal(deal) {
			snapshot = append(snapshot, deal)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.deals = snapshot
	s.refreshed[CollectionDeals] = s.now()
}

func (s *Store) ReplaceBusinesses(businesses []NormalizedBusiness) {
	snapshot := make([]NormalizedBusiness, len(businesses))
	copy(snapshot, businesses)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.businesses = snapshot
	s.refreshed[CollectionBusinesses] = s.now()
}

// Events applies the filter pipeline in a fixed order: structural
// validity, kind, day window, free-text search, age, category,
// time-of-day, price. The final sort is featured-first then ascending
// start, stable across repeated calls with identical inputs.
func (s *Store) Events(state FilterState, query string) []NormalizedEvent {
	s.mu.RLock()
	events := s.events
	s.mu.RUnlock()

	now := s.now().In(s.loc)
	lower, upper := s.dayWindow(state.Day, now)
	query = strings.ToLower(strings.TrimSpace(query))

	result := make([]NormalizedEvent, 0, len(events))
	for _, event := range events {
		if len(event.Title) < minTitleLength || statusTitlePattern.MatchString(event.Title) {
			continue
		}
		if state.Kind != KindAll && state.Kind != "" && !strings.EqualFold(string(event.Kind), state.Kind) {
			continue
		}
		if event.Start.Before(lower) {
			continue
		}
		if !upper.IsZero() && !event.Start.Before(upper) {
			continue
		}
		if query != "" && !eventMatchesQuery(event, query) {
			continue
		}
		if !ageMatches(event.AgeGroup, state.Age) {
			continue
		}
		if state.Category != CategoryAll && state.Category != "" && !strings.EqualFold(event.Category, state.Category) {
			continue
		}
		if !timeOfDayMatches(event.Start.In(s.loc).Hour(), state.Time) {
			continue
		}
		if state.Price == PriceFree && !event.IsFree {
			continue
		}
		if state.Price == PricePaid && event.IsFree {
			continue
		}
		result = append(result, event)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Featured != result[j].Featured {
			return result[i].Featured
		}
		return result[i].Start.Before(result[j].Start)
	})

	return result
}

// Deals returns the deals collection ordered by descending score; ties
// keep insertion order so the displayed order never flickers.
func (s *Store) Deals(state FilterState, query string) []NormalizedDeal {
	s.mu.RLock()
	deals := s.deals
	s.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))

	result := make([]NormalizedDeal, 0, len(deals))
	for _, deal := range deals {
		if state.Category != CategoryAll && state.Category != "" && !strings.EqualFold(deal.Category, state.Category) {
			continue
		}
		if query != "" && !dealMatchesQuery(deal, query) {
			continue
		}
		result = append(result, deal)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})

	return result
}

func (s *Store) Businesses(query string) []NormalizedBusiness {
	s.mu.RLock()
	businesses := s.businesses
	s.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))

	result := make([]NormalizedBusiness, 0, len(businesses))
	for _, business := range businesses {
		if query != "" && !businessMatchesQuery(business, query) {
			continue
		}
		result = append(result, business)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}

// GroupByDate groups events by civil date in the canonical timezone, not
// by instant. Groups are ordered ascending by date and events within each
// group ascending by start.
func (s *Store) GroupByDate(events []NormalizedEvent) []DateGroup {
	grouped := make(map[string][]NormalizedEvent)
	dates := make([]string, 0)

	for _, event := range events {
		date := event.Start.In(s.loc).Format("2006-01-02")
		if _, ok := grouped[date]; !ok {
			dates = append(dates, date)
		}
		grouped[date] = append(grouped[date], event)
	}

	sort.Strings(dates)

	groups := make([]DateGroup, 0, len(dates))
	for _, date := range dates {
		dayEvents := grouped[date]
		sort.SliceStable(dayEvents, func(i, j int) bool {
			return dayEvents[i].Start.Before(dayEvents[j].Start)
		})
		groups = append(groups, DateGroup{Date: date, Events: dayEvents})
	}

	return groups
}

func (s *Store) Counts() map[Collection]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[Collection]int{
		CollectionEvents:     len(s.events),
		CollectionDeals:      len(s.deals),
		CollectionBusinesses: len(s.businesses),
	}
}

func (s *Store) LastRefreshed(collection Collection) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.refreshed[collection]
	return t, ok
}

// Reclassify reapplies the taxonomy to the resident collections, swapping
// in fresh slices so concurrent readers never see a half-updated state.
func (s *Store) Reclassify(taxonomy *Taxonomy) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]NormalizedEvent, len(s.events))
	for i, event := range s.events {
		event.Category = taxonomy.Normalize(event.Category)
		event.AgeGroup = taxonomy.InferAgeGroup(event.Title, event.Description)
		events[i] = event
	}
	s.events = events

	deals := make([]NormalizedDeal, len(s.deals))
	for i, deal := range s.deals {
		deal.Category = taxonomy.Normalize(deal.Category)
		deals[i] = deal
	}
	s.deals = deals

	businesses := make([]NormalizedBusiness, len(s.businesses))
	for i, business := range s.businesses {
		business.Category = taxonomy.Normalize(business.Category)
		businesses[i] = business
	}
	s.businesses = businesses
}

// dayWindow returns the [lower, upper) instant bounds for a day filter.
// A zero upper bound means unbounded.
func (s *Store) dayWindow(day string, now time.Time) (time.Time, time.Time) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	switch day {
	case DayToday:
		return now, now.Add(todayWindow)
	case DayTomorrow:
		tomorrow := startOfDay.AddDate(0, 0, 1)
		return tomorrow, tomorrow.AddDate(0, 0, 1)
	case DayWeekend:
		friday := s.upcomingFriday(startOfDay)
		return friday, friday.AddDate(0, 0, 3)
	case DayNextWeek:
		monday := s.nextMonday(startOfDay)
		return monday, monday.AddDate(0, 0, 7)
	default:
		return now, time.Time{}
	}
}

// upcomingFriday resolves the Friday of the current weekend window: the
// coming Friday, or the Friday just past when now is already Sat/Sun.
func (s *Store) upcomingFriday(startOfDay time.Time) time.Time {
	switch startOfDay.Weekday() {
	case time.Saturday:
		return startOfDay.AddDate(0, 0, -1)
	case time.Sunday:
		return startOfDay.AddDate(0, 0, -2)
	default:
		offset := (int(time.Friday) - int(startOfDay.Weekday()) + 7) % 7
		return startOfDay.AddDate(0, 0, offset)
	}
}

// nextMonday is the next civil Monday strictly after today.
func (s *Store) nextMonday(startOfDay time.Time) time.Time {
	offset := (int(time.Monday) - int(startOfDay.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return startOfDay.AddDate(0, 0, offset)
}

func eventMatchesQuery(event NormalizedEvent, query string) bool {
	return strings.Contains(strings.ToLower(event.Title), query) ||
		strings.Contains(strings.ToLower(event.Description), query) ||
		strings.Contains(strings.ToLower(event.VenueName), query) ||
		strings.Contains(strings.ToLower(event.Category), query)
}

func dealMatchesQuery(deal NormalizedDeal, query string) bool {
	return strings.Contains(strings.ToLower(deal.Title), query) ||
		strings.Contains(strings.ToLower(deal.Description), query) ||
		strings.Contains(strings.ToLower(deal.VenueName), query) ||
		strings.Contains(strings.ToLower(deal.Category), query)
}

func businessMatchesQuery(business NormalizedBusiness, query string) bool {
	return strings.Contains(strings.ToLower(business.Name), query) ||
		strings.Contains(strings.ToLower(business.Description), query) ||
		strings.Contains(strings.ToLower(business.Category), query) ||
		strings.Contains(strings.ToLower(business.Address), query)
}

func ageMatches(group AgeGroup, filter string) bool {
	if filter == AgeAny || filter == "" {
		return true
	}
	if group == AgeAllAges {
		return true
	}
	return strings.EqualFold(string(group), filter)
}

func timeOfDayMatches(hour int, filter string) bool {
	switch filter {
	case TimeMorning:
		return hour >= 5 && hour < 12
	case TimeAfternoon:
		return hour >= 12 && hour < 17
	case TimeEvening:
		return hour >= 17
	default:
		return true
	}
}
