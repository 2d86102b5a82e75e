package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// RepairPolicy describes how corrupted scraped times are rewritten.
// Hours in [0, MaxArtifactHour] never legitimately occur in this domain;
// the thresholds are tuned to the current scrapers and are configuration,
// not a universal rule.
type RepairPolicy struct {
	MaxArtifactHour int
	StartHour       int
	EndHour         int
}

func DefaultRepairPolicy() RepairPolicy {
	return RepairPolicy{MaxArtifactHour: 4, StartHour: 9, EndHour: 10}
}

// TimeNormalizer converts civil (date, time) pairs expressed in the
// canonical timezone into absolute instants. It never fails: all malformed
// input degrades to a safe default so the UI always has something to show.
type TimeNormalizer struct {
	loc    *time.Location
	policy RepairPolicy
	now    func() time.Time
}

func NewTimeNormalizer(loc *time.Location, policy RepairPolicy) *TimeNormalizer {
	return &TimeNormalizer{
		loc:    loc,
		policy: policy,
		now:    time.Now,
	}
}

// StartInstant resolves an event start. The second return value reports
// whether the source supplied no usable time, in which case the default
// display hour is used and callers must propagate the flag.
func (n *TimeNormalizer) StartInstant(civilDate, civilTime string) (time.Time, bool) {
	year, month, day := n.parseDate(civilDate)

	if strings.TrimSpace(civilTime) == "" {
		return time.Date(year, month, day, n.policy.StartHour, 0, 0, 0, n.loc), true
	}

	hour, minute := n.parseClock(civilTime, n.policy.StartHour)
	if hour <= n.policy.MaxArtifactHour {
		hour, minute = n.policy.StartHour, 0
	}

	return time.Date(year, month, day, hour, minute, 0, 0, n.loc), false
}

// EndInstant resolves an event end relative to an already-resolved start.
// A missing end is synthesized as start+1h; either way the result never
// crosses midnight of the start's civil day and never precedes the start.
func (n *TimeNormalizer) EndInstant(civilDate, civilTime string, start time.Time) time.Time {
	if strings.TrimSpace(civilTime) == "" {
		return n.clampToCivilDay(start, start.Add(time.Hour))
	}

	year, month, day := n.parseDate(civilDate)

	hour, minute := n.parseClock(civilTime, n.policy.EndHour)
	if hour <= n.policy.MaxArtifactHour {
		hour, minute = n.policy.EndHour, 0
	}

	end := time.Date(year, month, day, hour, minute, 0, 0, n.loc)
	if end.Before(start) {
		end = n.clampToCivilDay(start, start.Add(time.Hour))
	}

	return end
}

func (n *TimeNormalizer) parseDate(civilDate string) (int, time.Month, int) {
	civilDate = strings.TrimSpace(civilDate)

	if t, err := time.ParseInLocation("2006-01-02", civilDate, n.loc); err == nil {
		return t.Date()
	}

	// Scraped dates are not always ISO; try a lenient parse before
	// falling back to the current civil day.
	if civilDate != "" {
		if t, err := dateparse.ParseIn(civilDate, n.loc); err == nil {
			return t.In(n.loc).Date()
		}
	}

	return n.now().In(n.loc).Date()
}

func (n *TimeNormalizer) parseClock(civilTime string, fallbackHour int) (int, int) {
	civilTime = strings.TrimSpace(civilTime)

	parts := strings.SplitN(civilTime, ":", 3)
	if len(parts) < 2 {
		return fallbackHour, 0
	}

	hour, errH := strconv.Atoi(strings.TrimSpace(parts[0]))
	minute, errM := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errH != nil || hour < 0 || hour > 23 {
		return fallbackHour, 0
	}
	if errM != nil || minute < 0 || minute > 59 {
		minute = 0
	}

	return hour, minute
}

func (n *TimeNormalizer) clampToCivilDay(start, end time.Time) time.Time {
	sy, sm, sd := start.In(n.loc).Date()
	ey, em, ed := end.In(n.loc).Date()
	if sy == ey && sm == em && sd == ed {
		return end
	}
	return time.Date(sy, sm, sd, 23, 59, 0, 0, n.loc)
}
