package search

// Params is the structured search request sent by a UI.
//
// Dates are calendar dates in YYYY-MM-DD form. Sort is "asc" or "desc" and
// ConversationKind is "all", "direct" or "group"; empty values take the
// defaults (newest first, any kind). ConversationID is nil when no
// conversation was requested; any given value, including an empty one, must
// parse as a conversation id or the search fails closed instead of silently
// widening.
type Params struct {
	Query               string         `json:"query"`
	StartDate           string         `json:"start_date,omitempty"`
	EndDate             string         `json:"end_date,omitempty"`
	Contacts            []ContactParam `json:"contacts,omitempty"`
	ConversationID      *string        `json:"conversation_id,omitempty"`
	OnlyFromMe          bool           `json:"only_from_me,omitempty"`
	OnlyWithAttachments bool           `json:"only_with_attachments,omitempty"`
	Sort                string         `json:"sort,omitempty"`
	ConversationKind    string         `json:"conversation_kind,omitempty"`
	Limit               int            `json:"limit,omitempty"`
}

// ContactParam identifies one person to match as a sender. ID is a handle
// identifier as it appears in a conversation (phone, email or other raw
// handle); Phones and Emails come from the contact card.
type ContactParam struct {
	ID     string   `json:"id,omitempty"`
	Phones []string `json:"phones,omitempty"`
	Emails []string `json:"emails,omitempty"`
}

// senderInputs flattens contacts into raw sender strings in a stable order:
// for each contact, its ID, then phones, then emails.
func (p Params) senderInputs() []string {
	var out []string
	for _, c := range p.Contacts {
		if c.ID != "" {
			out = append(out, c.ID)
		}
		out = append(out, c.Phones...)
		out = append(out, c.Emails...)
	}
	return out
}
