package domain

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	messageDomain "github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// FilterConfig holds the optional sub-rules of a pair. A nil rule is not applied.
type FilterConfig struct {
	MediaType  *MediaTypeRule  `json:"media_type,omitempty"`
	TimeWindow *TimeWindowRule `json:"time_window,omitempty"`
	Keyword    *KeywordRule    `json:"keyword,omitempty"`
	Regex      *RegexRule      `json:"regex,omitempty"`
}

// KeywordRule matches case-insensitive substrings.
type KeywordRule struct {
	Patterns []string `json:"patterns"`
	Mode     Mode     `json:"mode"`
}

// RegexRule matches compiled patterns in order.
type RegexRule struct {
	Patterns []string `json:"patterns"`
	Mode     Mode     `json:"mode"`

	compiled []*regexp.Regexp
}

// TimeRange is one weekday window. Start > End wraps past midnight into the next day.
type TimeRange struct {
	Day   Weekday   `json:"day"`
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// Wraps reports whether the range spans two calendar days.
func (r TimeRange) Wraps() bool {
	return r.Start > r.End
}

// TimeWindowRule matches the message timestamp against weekday ranges.
type TimeWindowRule struct {
	Ranges []TimeRange `json:"ranges"`
	Mode   Mode        `json:"mode"`
}

// MediaTypeRule restricts which content kinds are forwarded.
type MediaTypeRule struct {
	AllowedTypes  []messageDomain.MediaKind `json:"allowed_types"`
	AllowTextOnly bool                      `json:"allow_text_only"`
}

// Allows reports whether kind passes the rule.
func (r MediaTypeRule) Allows(kind messageDomain.MediaKind) bool {
	if kind == messageDomain.MediaKindText {
		return r.AllowTextOnly || lo.Contains(r.AllowedTypes, kind)
	}
	return lo.Contains(r.AllowedTypes, kind)
}

// IsEmpty reports whether no rule is configured.
func (c FilterConfig) IsEmpty() bool {
	return c.MediaType == nil && c.TimeWindow == nil && c.Keyword == nil && c.Regex == nil
}

// String summarizes the configured rules on one line, or "none".
func (c FilterConfig) String() string {
	if c.IsEmpty() {
		return "none"
	}

	var parts []string
	if r := c.MediaType; r != nil {
		parts = append(parts, fmt.Sprintf("media=%s", strings.Join(lo.Map(r.AllowedTypes, func(k messageDomain.MediaKind, _ int) string { return k.String() }), ",")))
	}
	if r := c.TimeWindow; r != nil {
		parts = append(parts, fmt.Sprintf("timewindow(%s, %d ranges)", r.Mode, len(r.Ranges)))
	}
	if r := c.Keyword; r != nil {
		parts = append(parts, fmt.Sprintf("keywords(%s): %s", r.Mode, strings.Join(r.Patterns, ", ")))
	}
	if r := c.Regex; r != nil {
		parts = append(parts, fmt.Sprintf("regex(%s): %s", r.Mode, strings.Join(r.Patterns, " ")))
	}
	return strings.Join(parts, "; ")
}

// Clone returns a deep copy. Cached configs are shared with concurrent
// evaluations, so they are cloned before Prepare rewrites them.
func (c FilterConfig) Clone() FilterConfig {
	var out FilterConfig
	if r := c.MediaType; r != nil {
		out.MediaType = &MediaTypeRule{AllowedTypes: slices.Clone(r.AllowedTypes), AllowTextOnly: r.AllowTextOnly}
	}
	if r := c.TimeWindow; r != nil {
		out.TimeWindow = &TimeWindowRule{Ranges: slices.Clone(r.Ranges), Mode: r.Mode}
	}
	if r := c.Keyword; r != nil {
		out.Keyword = &KeywordRule{Patterns: slices.Clone(r.Patterns), Mode: r.Mode}
	}
	if r := c.Regex; r != nil {
		out.Regex = &RegexRule{Patterns: slices.Clone(r.Patterns), Mode: r.Mode, compiled: slices.Clone(r.compiled)}
	}
	return out
}

// Compiled returns the prepared patterns.
func (r *RegexRule) Compiled() []*regexp.Regexp {
	return r.compiled
}

// Prepare validates every rule, normalizes values and compiles regular expressions.
// It must succeed before a config is stored or evaluated.
func (c *FilterConfig) Prepare() error {
	if r := c.Keyword; r != nil {
		if err := r.prepare(); err != nil {
			return err
		}
	}
	if r := c.Regex; r != nil {
		if err := r.prepare(); err != nil {
			return err
		}
	}
	if r := c.TimeWindow; r != nil {
		if err := r.prepare(); err != nil {
			return err
		}
	}
	if r := c.MediaType; r != nil {
		if err := r.prepare(); err != nil {
			return err
		}
	}
	return nil
}

func prepareMode(m *Mode, rule string) error {
	if *m == "" {
		*m = ModeAllow
		return nil
	}
	parsed, err := ParseMode(string(*m))
	if err != nil {
		return oops.Code("invalid_filter").With("rule", rule).Wrapf(errors.ErrInvalidFilter, "%s", err.Error())
	}
	*m = parsed
	return nil
}

func (r *KeywordRule) prepare() error {
	r.Patterns = lo.Uniq(lo.FilterMap(r.Patterns, func(p string, _ int) (string, bool) {
		p = strings.ToLower(strings.TrimSpace(p))
		return p, p != ""
	}))
	if len(r.Patterns) == 0 {
		return oops.Code("invalid_filter").With("rule", "keyword").Wrapf(errors.ErrInvalidFilter, "no keywords")
	}
	return prepareMode(&r.Mode, "keyword")
}

func (r *RegexRule) prepare() error {
	r.Patterns = lo.Filter(r.Patterns, func(p string, _ int) bool { return p != "" })
	if len(r.Patterns) == 0 {
		return oops.Code("invalid_filter").With("rule", "regex").Wrapf(errors.ErrInvalidFilter, "no patterns")
	}
	compiled := make([]*regexp.Regexp, 0, len(r.Patterns))
	for _, p := range r.Patterns {
		re, err := CompilePattern(p)
		if err != nil {
			return oops.Code("invalid_filter").With("rule", "regex", "pattern", p).Wrapf(errors.ErrInvalidFilter, "%s", err.Error())
		}
		compiled = append(compiled, re)
	}
	r.compiled = compiled
	return prepareMode(&r.Mode, "regex")
}

// CompilePattern compiles a filter regex; matching is case-insensitive.
func CompilePattern(p string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + p)
}

func (r *TimeWindowRule) prepare() error {
	if len(r.Ranges) == 0 {
		return oops.Code("invalid_filter").With("rule", "time_window").Wrapf(errors.ErrInvalidFilter, "no ranges")
	}
	for i, rg := range r.Ranges {
		day, err := ParseWeekday(string(rg.Day))
		if err != nil {
			return oops.Code("invalid_filter").With("rule", "time_window").Wrapf(errors.ErrInvalidFilter, "%s", err.Error())
		}
		if !rg.Start.Valid() || !rg.End.Valid() {
			return oops.Code("invalid_filter").With("rule", "time_window", "range", i).Wrapf(errors.ErrInvalidFilter, "time of day out of range")
		}
		r.Ranges[i].Day = day
	}
	return prepareMode(&r.Mode, "time_window")
}

func (r *MediaTypeRule) prepare() error {
	kinds := make([]messageDomain.MediaKind, 0, len(r.AllowedTypes))
	for _, k := range r.AllowedTypes {
		parsed, err := messageDomain.ParseMediaKind(string(k))
		if err != nil {
			return oops.Code("invalid_filter").With("rule", "media_type").Wrapf(errors.ErrInvalidFilter, "%s", err.Error())
		}
		kinds = append(kinds, parsed)
	}
	r.AllowedTypes = lo.Uniq(kinds)
	if len(r.AllowedTypes) == 0 && !r.AllowTextOnly {
		return oops.Code("invalid_filter").With("rule", "media_type").Wrapf(errors.ErrInvalidFilter, "nothing allowed")
	}
	return nil
}
