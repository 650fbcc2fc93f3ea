// Package trello is a minimal client for the Trello REST API: the member,
// board, list, card, and label reads the sync engine needs, plus card
// create/update. One call is one HTTP round trip; retries happen only for
// rate limiting.
package trello

import "fmt"

// Member is a Trello member (board member or the authenticated user).
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName,omitempty"`
}

// Board is a Trello board.
type Board struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Closed bool   `json:"closed"`
	URL    string `json:"url,omitempty"`
}

// List is a column on a board.
type List struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Closed bool   `json:"closed"`
}

// Card is a card on a board. Read fresh every sync pass, never persisted.
type Card struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Desc             string   `json:"desc"`
	ListID           string   `json:"idList"`
	MemberIDs        []string `json:"idMembers"`
	Labels           []Label  `json:"labels"`
	DateLastActivity string   `json:"dateLastActivity"`
	Closed           bool     `json:"closed"`
	URL              string   `json:"url"`
}

// Label is a board label.
type Label struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// APIError is a non-2xx response from the Trello API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("trello API error %d: %s", e.StatusCode, e.Body)
}

// CreateCardParams are the fields for a new card.
type CreateCardParams struct {
	ListID    string
	Name      string
	Desc      string
	MemberIDs []string
	LabelIDs  []string
}

// UpdateCardParams is a partial card update. Nil fields are omitted from the
// request and left untouched server-side.
type UpdateCardParams struct {
	Name      *string
	Desc      *string
	ListID    *string
	MemberIDs []string
	LabelIDs  []string
	Closed    *bool
}
