package telegram

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	messageDomain "github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	pairDomain "github.com/reshetovitsme/channel-relay/internal/modules/pair/domain"
	"github.com/samber/lo"
)

var allDays = []pairDomain.Weekday{
	pairDomain.WeekdayMon,
	pairDomain.WeekdayTue,
	pairDomain.WeekdayWed,
	pairDomain.WeekdayThu,
	pairDomain.WeekdayFri,
	pairDomain.WeekdaySat,
	pairDomain.WeekdaySun,
}

func parsePairID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid pair id %q", s)
	}
	return id, nil
}

// parseChatRef returns a numeric chat id, or a @username for lookup.
func parseChatRef(s string) (int64, string) {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, ""
	}
	return 0, "@" + strings.TrimPrefix(s, "@")
}

func parseMode(s string) (pairDomain.Mode, error) {
	return pairDomain.ParseMode(s)
}

// parseKeywords splits on commas so keywords may contain spaces.
func parseKeywords(args []string) []string {
	return lo.FilterMap(strings.Split(strings.Join(args, " "), ","), func(k string, _ int) (string, bool) {
		k = strings.TrimSpace(k)
		return k, k != ""
	})
}

// parseDays accepts all, weekdays, weekends, or a comma list of days and
// day ranges such as mon-fri or fri-mon.
func parseDays(s string) ([]pairDomain.Weekday, error) {
	switch strings.ToLower(s) {
	case "all", "daily":
		return allDays, nil
	case "weekdays":
		return allDays[:5], nil
	case "weekends":
		return allDays[5:], nil
	}

	var days []pairDomain.Weekday
	for _, part := range strings.Split(s, ",") {
		from, to, isRange := strings.Cut(part, "-")
		first, err := pairDomain.ParseWeekday(from)
		if err != nil {
			return nil, err
		}
		if !isRange {
			days = append(days, first)
			continue
		}
		last, err := pairDomain.ParseWeekday(to)
		if err != nil {
			return nil, err
		}
		for d := first; ; d = d.Next() {
			days = append(days, d)
			if d == last {
				break
			}
		}
	}
	return lo.Uniq(days), nil
}

func parseSpan(s string) (pairDomain.ClockTime, pairDomain.ClockTime, error) {
	from, to, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time span %q, want HH:MM-HH:MM", s)
	}
	start, err := pairDomain.ParseClock(from)
	if err != nil {
		return 0, 0, err
	}
	end, err := pairDomain.ParseClock(to)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseTimeRanges reads "<days> <HH:MM-HH:MM>" pairs.
func parseTimeRanges(args []string) ([]pairDomain.TimeRange, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, fmt.Errorf("expected <days> <HH:MM-HH:MM> pairs")
	}

	var ranges []pairDomain.TimeRange
	for chunk := range slices.Chunk(args, 2) {
		days, err := parseDays(chunk[0])
		if err != nil {
			return nil, err
		}
		start, end, err := parseSpan(chunk[1])
		if err != nil {
			return nil, err
		}
		for _, d := range days {
			ranges = append(ranges, pairDomain.TimeRange{Day: d, Start: start, End: end})
		}
	}
	return ranges, nil
}

func parseMediaKinds(args []string) ([]messageDomain.MediaKind, error) {
	var kinds []messageDomain.MediaKind
	for _, arg := range args {
		for _, name := range strings.Split(arg, ",") {
			if name = strings.TrimSpace(name); name == "" {
				continue
			}
			kind, err := messageDomain.ParseMediaKind(name)
			if err != nil {
				return nil, err
			}
			kinds = append(kinds, kind)
		}
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no media kinds given")
	}
	return lo.Uniq(kinds), nil
}

// clearRule drops one sub-rule, or all of them.
func clearRule(cfg pairDomain.FilterConfig, rule string) (pairDomain.FilterConfig, error) {
	switch strings.ToLower(rule) {
	case "", "all":
		return pairDomain.FilterConfig{}, nil
	case "keywords", "keyword":
		cfg.Keyword = nil
	case "regex":
		cfg.Regex = nil
	case "timewindow", "time_window":
		cfg.TimeWindow = nil
	case "media", "media_type":
		cfg.MediaType = nil
	default:
		return cfg, fmt.Errorf("unknown rule %q", rule)
	}
	return cfg, nil
}
