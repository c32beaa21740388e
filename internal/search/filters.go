package search

// Result size bounds applied to every search.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// MatchKind is how a SenderMatcher compares against stored handles.
type MatchKind int

const (
	// MatchPhoneDigits compares the trailing digits of the handle.
	MatchPhoneDigits MatchKind = iota
	// MatchEmail compares case-insensitively for equality.
	MatchEmail
	// MatchRawIdentifier matches any handle containing the value.
	MatchRawIdentifier
)

func (k MatchKind) String() string {
	switch k {
	case MatchPhoneDigits:
		return "phone"
	case MatchEmail:
		return "email"
	case MatchRawIdentifier:
		return "raw"
	default:
		return "unknown"
	}
}

// SenderMatcher is a classified rule for matching a message's sender.
// Value is digits only for MatchPhoneDigits and lower-case for MatchEmail.
type SenderMatcher struct {
	Kind  MatchKind
	Value string
}

// ConversationKind restricts results to one-to-one or group chats.
type ConversationKind int

const (
	KindAny ConversationKind = iota
	KindDirect
	KindGroup
)

func (k ConversationKind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindGroup:
		return "group"
	default:
		return "all"
	}
}

// SortOrder is the direction results are ordered by date.
type SortOrder int

const (
	SortDescending SortOrder = iota
	SortAscending
)

func (s SortOrder) String() string {
	if s == SortAscending {
		return "asc"
	}
	return "desc"
}

// Filters is a normalized, comparison-ready search. Dates are store time
// (see UnixToStore). After greater than Before is allowed and simply matches
// nothing.
type Filters struct {
	TextPattern *string
	After       *int64
	Before      *int64
	Senders     []SenderMatcher

	ConversationID *int64
	// InvalidConversation is set when a conversation scope was requested
	// but could not be parsed. The search must return no rows.
	InvalidConversation bool

	OnlyFromMe          bool
	OnlyWithAttachments bool
	Kind                ConversationKind
	Sort                SortOrder
	Limit               int
}

// HasSender reports whether m is already present in the sender set.
func (f *Filters) HasSender(m SenderMatcher) bool {
	for _, s := range f.Senders {
		if s == m {
			return true
		}
	}
	return false
}

// addSender appends m unless it is already present, keeping first-seen order.
func (f *Filters) addSender(m SenderMatcher) {
	if !f.HasSender(m) {
		f.Senders = append(f.Senders, m)
	}
}
