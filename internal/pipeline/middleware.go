package pipeline

import (
	"fmt"
	"strings"

	"github.com/IshaanNene/ChartGoat/internal/types"
)

// Policy decides which extracted entries are complete enough to keep.
type Policy string

const (
	// PolicyStrict keeps entries with rank, title, views and channel name.
	PolicyStrict Policy = "strict"
	// PolicyLenient keeps entries with a title or a video link. Rank is not
	// enough on its own: the extractor falls back to the row position when
	// no rank is printed, so every row would have one.
	PolicyLenient Policy = "lenient"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyStrict, "":
		return PolicyStrict, nil
	case PolicyLenient:
		return PolicyLenient, nil
	default:
		return "", fmt.Errorf("unknown retention policy %q", s)
	}
}

// SanitizeMiddleware collapses whitespace in text fields and drops empty
// tags. Fields arrive as decoded DOM text, so angle brackets and ampersands
// are content and are left alone.
type SanitizeMiddleware struct{}

func NewSanitizeMiddleware() *SanitizeMiddleware {
	return &SanitizeMiddleware{}
}

func (m *SanitizeMiddleware) Name() string { return "sanitize" }

func (m *SanitizeMiddleware) Process(entry *types.Entry) (*types.Entry, error) {
	for _, f := range []*string{
		&entry.Rank,
		&entry.FluctuationValue,
		&entry.Title,
		&entry.Views,
		&entry.ChannelName,
		&entry.Subscribers,
		&entry.PublishedAt,
	} {
		*f = m.clean(*f)
	}

	tags := entry.Tags[:0]
	for _, t := range entry.Tags {
		if t = m.clean(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		tags = nil
	}
	entry.Tags = tags
	return entry, nil
}

func (m *SanitizeMiddleware) clean(s string) string {
	if s == "" {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}

// AbsoluteURLMiddleware gives protocol-relative links a scheme.
type AbsoluteURLMiddleware struct{}

func (m *AbsoluteURLMiddleware) Name() string { return "absolute_url" }

func (m *AbsoluteURLMiddleware) Process(entry *types.Entry) (*types.Entry, error) {
	for _, f := range []*string{
		&entry.VideoURL,
		&entry.ThumbnailURL,
		&entry.ChannelURL,
		&entry.ChannelImageURL,
	} {
		*f = strings.TrimSpace(*f)
		if strings.HasPrefix(*f, "//") {
			*f = "https:" + *f
		}
	}
	return entry, nil
}

// RequiredMiddleware drops entries that do not satisfy the retention policy.
type RequiredMiddleware struct {
	Policy Policy
}

func (m *RequiredMiddleware) Name() string { return "required" }

func (m *RequiredMiddleware) Process(entry *types.Entry) (*types.Entry, error) {
	switch m.Policy {
	case PolicyLenient:
		if entry.Title == "" && entry.VideoURL == "" {
			return nil, nil
		}
	default:
		if entry.Rank == "" || entry.Title == "" || entry.Views == "" || entry.ChannelName == "" {
			return nil, nil
		}
	}
	return entry, nil
}

// RankOrderMiddleware keeps ranks unique and increasing in document order.
// Entries whose rank is not a number, repeats, or goes backwards are
// dropped.
type RankOrderMiddleware struct {
	last int
}

func (m *RankOrderMiddleware) Name() string { return "rank_order" }

func (m *RankOrderMiddleware) Process(entry *types.Entry) (*types.Entry, error) {
	n := entry.RankNumber()
	if n <= 0 || n <= m.last {
		return nil, nil
	}
	m.last = n
	return entry, nil
}

// DedupMiddleware drops entries whose video link was already seen.
type DedupMiddleware struct {
	seen map[string]struct{}
}

func NewDedupMiddleware() *DedupMiddleware {
	return &DedupMiddleware{seen: make(map[string]struct{})}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(entry *types.Entry) (*types.Entry, error) {
	if entry.VideoURL == "" {
		return entry, nil
	}
	if _, exists := m.seen[entry.VideoURL]; exists {
		return nil, nil
	}
	m.seen[entry.VideoURL] = struct{}{}
	return entry, nil
}

// LimitMiddleware passes at most Max entries.
type LimitMiddleware struct {
	Max   int
	count int
}

func (m *LimitMiddleware) Name() string { return "limit" }

func (m *LimitMiddleware) Process(entry *types.Entry) (*types.Entry, error) {
	if m.Max > 0 && m.count >= m.Max {
		return nil, nil
	}
	m.count++
	return entry, nil
}
