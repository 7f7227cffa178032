package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/reshetovitsme/channel-relay/internal/modules/filter/domain"
	messageDomain "github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	pairDomain "github.com/reshetovitsme/channel-relay/internal/modules/pair/domain"
	"github.com/samber/lo"
)

// Engine evaluates a pair's filter config against one message. It is
// stateless and safe for concurrent use.
type Engine struct {
	location     *time.Location
	endInclusive bool
}

// New creates a filter engine. Time windows are read in location; when
// endInclusive is false a range stops matching at its end minute.
func New(location *time.Location, endInclusive bool) *Engine {
	if location == nil {
		location = time.UTC
	}
	return &Engine{location: location, endInclusive: endInclusive}
}

// Evaluate runs media type, time window, keyword and regex rules in that order
// and stops at the first one that blocks.
func (e *Engine) Evaluate(msg messageDomain.InboundMessage, cfg pairDomain.FilterConfig) domain.Verdict {
	if r := cfg.MediaType; r != nil && !r.Allows(msg.MediaKind) {
		return domain.BlockedBy(domain.RuleMediaType)
	}

	if r := cfg.TimeWindow; r != nil {
		matched := lo.SomeBy(r.Ranges, func(rg pairDomain.TimeRange) bool {
			return e.inRange(msg.Timestamp, rg)
		})
		if !passes(r.Mode, matched) {
			return domain.BlockedBy(domain.RuleTimeWindow)
		}
	}

	// Nothing to match keywords or patterns against.
	if !msg.HasText() {
		return domain.Allow
	}
	// Text and caption are matched separately so anchors see each field whole.
	fields := lo.Compact([]string{msg.TextContent, msg.Caption})

	if r := cfg.Keyword; r != nil {
		lower := lo.Map(fields, func(f string, _ int) string { return strings.ToLower(f) })
		matched := lo.SomeBy(r.Patterns, func(p string) bool {
			if p == "" {
				return false
			}
			p = strings.ToLower(p)
			return lo.SomeBy(lower, func(f string) bool { return strings.Contains(f, p) })
		})
		if !passes(r.Mode, matched) {
			return domain.BlockedBy(domain.RuleKeyword)
		}
	}

	if r := cfg.Regex; r != nil {
		if !passes(r.Mode, matchFirst(r, fields)) {
			return domain.BlockedBy(domain.RuleRegex)
		}
	}

	return domain.Allow
}

// inRange compares the message time against the pre-midnight and, for
// wrapping ranges, the post-midnight segment of rg.
func (e *Engine) inRange(ts time.Time, rg pairDomain.TimeRange) bool {
	local := ts.In(e.location)
	day := pairDomain.WeekdayOf(local.Weekday())
	clock := pairDomain.ClockOf(local)

	if !rg.Wraps() {
		return day == rg.Day && clock >= rg.Start && e.beforeEnd(clock, rg.End)
	}
	if day == rg.Day && clock >= rg.Start {
		return true
	}
	return day == rg.Day.Next() && e.beforeEnd(clock, rg.End)
}

func (e *Engine) beforeEnd(clock, end pairDomain.ClockTime) bool {
	if e.endInclusive {
		return clock <= end
	}
	return clock < end
}

// matchFirst walks patterns in order; the first pattern matching any field decides.
func matchFirst(r *pairDomain.RegexRule, fields []string) bool {
	compiled := r.Compiled()
	if compiled == nil {
		compiled = lo.FilterMap(r.Patterns, func(p string, _ int) (*regexp.Regexp, bool) {
			re, err := pairDomain.CompilePattern(p)
			return re, err == nil
		})
	}
	for _, re := range compiled {
		if lo.SomeBy(fields, re.MatchString) {
			return true
		}
	}
	return false
}

func passes(mode pairDomain.Mode, matched bool) bool {
	if mode == pairDomain.ModeBlock {
		return !matched
	}
	return matched
}
