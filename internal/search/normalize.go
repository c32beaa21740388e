package search

import (
	"strconv"
	"strings"
	"time"

	"github.com/wesm/textvault/internal/textutil"
)

// DateLayout is the only accepted calendar-date format.
const DateLayout = "2006-01-02"

// Normalizer converts structured Params into comparison-ready Filters.
type Normalizer struct {
	// Location is the zone calendar dates are interpreted in. Nil means UTC.
	Location *time.Location
}

// NewNormalizer creates a Normalizer that interprets dates in UTC.
func NewNormalizer() *Normalizer {
	return &Normalizer{Location: time.UTC}
}

// Normalize is a convenience function that normalizes using default settings.
func Normalize(p Params) (Filters, Diagnostics) {
	return NewNormalizer().Normalize(p)
}

// Normalize converts p into Filters. It never fails: input that cannot be
// interpreted is dropped and reported as a Diagnostic, except for an
// unparseable conversation id, which marks the filters as fail-closed.
func (n *Normalizer) Normalize(p Params) (Filters, Diagnostics) {
	var (
		f     Filters
		diags Diagnostics
	)

	if text := textutil.NormalizeQuery(p.Query); text != "" {
		pattern := "%" + text + "%"
		f.TextPattern = &pattern
	}

	if p.StartDate != "" {
		if t, ok := n.parseDate(p.StartDate); ok {
			v := TimeToStore(t)
			f.After = &v
		} else {
			diags.add(DiagMalformedDate, p.StartDate, "start date must be %s", DateLayout)
		}
	}
	if p.EndDate != "" {
		if t, ok := n.parseDate(p.EndDate); ok {
			v := TimeToStore(endOfDay(t))
			f.Before = &v
		} else {
			diags.add(DiagMalformedDate, p.EndDate, "end date must be %s", DateLayout)
		}
	}
	if f.After != nil && f.Before != nil && *f.After > *f.Before {
		diags.add(DiagInvertedRange, p.StartDate+".."+p.EndDate, "start date is after end date; no messages can match")
	}

	for _, raw := range p.senderInputs() {
		m, ok := ClassifySender(raw)
		if !ok {
			diags.add(DiagEmptySender, raw, "sender identifier is empty")
			continue
		}
		f.addSender(m)
	}

	if p.ConversationID != nil {
		id, err := parseConversationID(*p.ConversationID)
		if err != nil {
			f.InvalidConversation = true
			diags.add(DiagInvalidConversation, *p.ConversationID, "conversation id must be a non-negative integer; returning no results")
		} else {
			f.ConversationID = &id
		}
	}

	f.OnlyFromMe = p.OnlyFromMe
	f.OnlyWithAttachments = p.OnlyWithAttachments
	f.Sort = parseSort(p.Sort)
	f.Kind = parseKind(p.ConversationKind)
	f.Limit = ClampLimit(p.Limit)

	return f, diags
}

// endOfDay returns 23:59:59 on t's calendar day in t's zone, so the whole
// day is included even when a DST change makes it 23 or 25 hours long.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

func (n *Normalizer) parseDate(value string) (time.Time, bool) {
	loc := n.Location
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ClassifySender classifies a raw sender string. Phone numbers are checked
// first, then email addresses; anything else matches as a raw identifier.
// It returns false when raw is blank.
func ClassifySender(raw string) (SenderMatcher, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return SenderMatcher{}, false
	}
	if textutil.LooksLikePhone(s) {
		return SenderMatcher{Kind: MatchPhoneDigits, Value: textutil.Digits(s)}, true
	}
	if strings.Contains(s, "@") {
		return SenderMatcher{Kind: MatchEmail, Value: strings.ToLower(s)}, true
	}
	return SenderMatcher{Kind: MatchRawIdentifier, Value: s}, true
}

// ClampLimit applies DefaultLimit to non-positive values and caps at MaxLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func parseConversationID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	// ParseUint rejects signs, so "-1" and "+1" both fail here.
	u, err := strconv.ParseUint(s, 10, 63)
	if err != nil {
		return 0, err
	}
	return int64(u), nil
}

func parseSort(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), "asc") {
		return SortAscending
	}
	return SortDescending
}

func parseKind(s string) ConversationKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "direct":
		return KindDirect
	case "group":
		return KindGroup
	default:
		return KindAny
	}
}
