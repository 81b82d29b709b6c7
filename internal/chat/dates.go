package chat

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/llm"
)

var (
	monthNames = map[string]time.Month{
		"january": time.January, "february": time.February, "march": time.March,
		"april": time.April, "may": time.May, "june": time.June, "july": time.July,
		"august": time.August, "september": time.September, "october": time.October,
		"november": time.November, "december": time.December,
	}
	weekdayNames = map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
		"saturday": time.Saturday,
	}

	monthAlt      = `(january|february|march|april|may|june|july|august|september|october|november|december)`
	dayMonthRe    = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthAlt + `\b`)
	monthDayRe    = regexp.MustCompile(`\b` + monthAlt + `\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	monthOnlyRe   = regexp.MustCompile(`\b` + monthAlt + `\b`)
	weekdayRe     = regexp.MustCompile(`\b(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
	lastNDaysRe   = regexp.MustCompile(`\blast\s+(\d{1,3})\s+days?\b`)
	compoundRe    = regexp.MustCompile(`\b(\d{4}|year|to|until|till|through|between|since)\b`)
	startStampKey = "START_TIMESTAMP:"
	endStampKey   = "END_TIMESTAMP:"
)

// DayRangeMillis returns the epoch millisecond bounds of the day containing t.
func DayRangeMillis(t time.Time) [2]int64 {
	r := core.DayRange(t)
	return [2]int64{r.Start.UnixMilli(), r.End.UnixMilli()}
}

// DateResolver turns a date phrase into an inclusive time range.
type DateResolver struct {
	llm llm.Completer
	now func() time.Time
}

func NewDateResolver(c llm.Completer, now func() time.Time) *DateResolver {
	if c == nil {
		c = llm.Disabled{}
	}
	if now == nil {
		now = time.Now
	}
	return &DateResolver{llm: c, now: now}
}

type dateAttempt func(ctx context.Context, lower string, now time.Time) (core.DateRange, bool)

// Resolve tries "today", then the local phrase table, then the remote model.
func (r *DateResolver) Resolve(ctx context.Context, text string) (core.DateRange, bool) {
	now := r.now()
	lower := strings.ToLower(text)
	attempts := []dateAttempt{
		func(_ context.Context, lower string, now time.Time) (core.DateRange, bool) {
			if strings.Contains(lower, "today") && !compoundDate(lower) {
				return core.DayRange(now), true
			}
			return core.DateRange{}, false
		},
		func(_ context.Context, lower string, now time.Time) (core.DateRange, bool) {
			return ResolveLocal(lower, now)
		},
		func(ctx context.Context, _ string, now time.Time) (core.DateRange, bool) {
			return r.remote(ctx, text, now)
		},
	}
	for _, attempt := range attempts {
		if dr, ok := attempt(ctx, lower, now); ok {
			return dr, true
		}
	}
	return core.DateRange{}, false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func spanDays(start time.Time, days int) core.DateRange {
	return core.DateRange{Start: start, End: start.AddDate(0, 0, days).Add(-time.Millisecond)}
}

func monthRange(year int, month time.Month, loc *time.Location) core.DateRange {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return core.DateRange{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Millisecond)}
}

// startOfWeek returns Monday 00:00 of the week containing t.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -offset)
}

func dayInMonth(year int, month time.Month, day int, loc *time.Location) (core.DateRange, bool) {
	if day < 1 {
		return core.DateRange{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Month() != month {
		return core.DateRange{}, false
	}
	return core.DayRange(t), true
}

// compoundDate reports whether lower names a year, a range or more than one
// date. Those phrases are left to the model.
func compoundDate(lower string) bool {
	if compoundRe.MatchString(lower) {
		return true
	}
	return len(monthOnlyRe.FindAllString(lower, 2))+len(weekdayRe.FindAllString(lower, 2)) > 1
}

// ResolveLocal handles the phrases that need no model: yesterday, this/last
// week, this/last month, last N days, a specific day of a month, a month
// name and a weekday name (its most recent occurrence, today included).
// Anything naming a year, a range or a second date is not resolved here.
// lower must already be lowercased.
func ResolveLocal(lower string, now time.Time) (core.DateRange, bool) {
	if compoundDate(lower) {
		return core.DateRange{}, false
	}
	loc := now.Location()
	today := startOfDay(now)

	switch {
	case strings.Contains(lower, "yesterday"):
		return core.DayRange(today.AddDate(0, 0, -1)), true
	case strings.Contains(lower, "this week"):
		return spanDays(startOfWeek(now), 7), true
	case strings.Contains(lower, "last week"):
		return spanDays(startOfWeek(now).AddDate(0, 0, -7), 7), true
	case strings.Contains(lower, "this month"):
		return monthRange(now.Year(), now.Month(), loc), true
	case strings.Contains(lower, "last month"):
		prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -1, 0)
		return monthRange(prev.Year(), prev.Month(), loc), true
	}

	if m := lastNDaysRe.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			return core.DateRange{Start: today.AddDate(0, 0, -(n - 1)), End: core.DayRange(today).End}, true
		}
	}
	if m := dayMonthRe.FindStringSubmatch(lower); m != nil {
		day, _ := strconv.Atoi(m[1])
		if dr, ok := dayInMonth(now.Year(), monthNames[m[2]], day, loc); ok {
			return dr, true
		}
	}
	if m := monthDayRe.FindStringSubmatch(lower); m != nil {
		day, _ := strconv.Atoi(m[2])
		if dr, ok := dayInMonth(now.Year(), monthNames[m[1]], day, loc); ok {
			return dr, true
		}
	}
	if m := monthOnlyRe.FindStringSubmatch(lower); m != nil {
		return monthRange(now.Year(), monthNames[m[1]], loc), true
	}
	if m := weekdayRe.FindStringSubmatch(lower); m != nil {
		back := (int(now.Weekday()) - int(weekdayNames[m[1]]) + 7) % 7
		return core.DayRange(today.AddDate(0, 0, -back)), true
	}
	return core.DateRange{}, false
}

// ParseDateReply reads the START_TIMESTAMP/END_TIMESTAMP lines of a reply.
func ParseDateReply(reply string, loc *time.Location) (core.DateRange, bool) {
	var start, end int64
	var haveStart, haveEnd bool
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, startStampKey):
			v, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, startStampKey)), 10, 64)
			start, haveStart = v, err == nil
		case strings.HasPrefix(line, endStampKey):
			v, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, endStampKey)), 10, 64)
			end, haveEnd = v, err == nil
		}
	}
	if !haveStart || !haveEnd || start > end {
		return core.DateRange{}, false
	}
	return core.DateRange{Start: time.UnixMilli(start).In(loc), End: time.UnixMilli(end).In(loc)}, true
}

func (r *DateResolver) remote(ctx context.Context, text string, now time.Time) (core.DateRange, bool) {
	out, err := r.llm.Complete(ctx, datePrompt(text, now))
	if err != nil {
		slog.WarnContext(ctx, "Remote date parsing failed", "error", err)
		return core.DateRange{}, false
	}
	dr, ok := ParseDateReply(out, now.Location())
	if !ok {
		slog.DebugContext(ctx, "Unparseable date reply", "reply", out)
	}
	return dr, ok
}
