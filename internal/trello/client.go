package trello

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultBaseURL = "https://api.trello.com/1/"
	DefaultTimeout = 30 * time.Second

	// Rate-limit retries only. Any other failure surfaces immediately and
	// aborts the caller's sync pass.
	maxRateLimitRetries = 3
)

// Client calls the Trello REST API. Authentication rides on every request as
// key/token query parameters.
type Client struct {
	APIKey     string
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a Trello client for the given credential pair.
func NewClient(apiKey, token string) *Client {
	return &Client{
		APIKey:  apiKey,
		Token:   token,
		BaseURL: DefaultBaseURL,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

var errRateLimited = errors.New("rate limited")

// request sends one API call and decodes the JSON response into out.
// An empty 2xx body leaves out untouched (callers see the zero value, the
// equivalent of Trello's null responses). HTTP 429 is retried with
// exponential backoff; any other non-2xx status returns *APIError.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, out interface{}) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return fmt.Errorf("building request url: %w", err)
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("key", c.APIKey)
	query.Set("token", c.Token)
	u.RawQuery = query.Encode()

	op := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("request failed: %w", err))
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("reading response: %w", err))
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, errRateLimited
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, backoff.Permanent(&APIError{StatusCode: resp.StatusCode, Body: string(body)})
		}
		return body, nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRateLimitRetries), ctx)
	body, err := backoff.RetryWithData(op, b)
	if err != nil {
		return err
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing trello response: %w", err)
	}
	return nil
}

// GetMe fetches the authenticated member.
func (c *Client) GetMe(ctx context.Context) (*Member, error) {
	var m Member
	q := url.Values{"fields": {"id,username,fullName"}}
	if err := c.request(ctx, http.MethodGet, "members/me", q, &m); err != nil {
		return nil, err
	}
	if m.ID == "" {
		return nil, nil
	}
	return &m, nil
}

// GetMemberByUsername fetches a member by username.
func (c *Client) GetMemberByUsername(ctx context.Context, username string) (*Member, error) {
	var m Member
	q := url.Values{"fields": {"id,username,fullName"}}
	if err := c.request(ctx, http.MethodGet, "members/"+url.PathEscape(username), q, &m); err != nil {
		return nil, err
	}
	if m.ID == "" {
		return nil, nil
	}
	return &m, nil
}

// GetBoard fetches a board.
func (c *Client) GetBoard(ctx context.Context, boardID string) (*Board, error) {
	var b Board
	q := url.Values{"fields": {"id,name,closed,url"}}
	if err := c.request(ctx, http.MethodGet, "boards/"+url.PathEscape(boardID), q, &b); err != nil {
		return nil, err
	}
	if b.ID == "" {
		return nil, nil
	}
	return &b, nil
}

// GetBoardLists fetches the lists of a board.
func (c *Client) GetBoardLists(ctx context.Context, boardID string) ([]List, error) {
	var lists []List
	q := url.Values{"fields": {"id,name,closed"}}
	if err := c.request(ctx, http.MethodGet, "boards/"+url.PathEscape(boardID)+"/lists", q, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// GetBoardCards fetches the cards of a board with the field subset the sync
// engine reads.
func (c *Client) GetBoardCards(ctx context.Context, boardID string) ([]Card, error) {
	var cards []Card
	q := url.Values{"fields": {"id,name,desc,idList,idMembers,labels,dateLastActivity,closed,url"}}
	if err := c.request(ctx, http.MethodGet, "boards/"+url.PathEscape(boardID)+"/cards", q, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// GetBoardMembers fetches the members of a board.
func (c *Client) GetBoardMembers(ctx context.Context, boardID string) ([]Member, error) {
	var members []Member
	q := url.Values{"fields": {"id,username,fullName"}}
	if err := c.request(ctx, http.MethodGet, "boards/"+url.PathEscape(boardID)+"/members", q, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// GetBoardLabels fetches the labels of a board.
func (c *Client) GetBoardLabels(ctx context.Context, boardID string) ([]Label, error) {
	var labels []Label
	q := url.Values{"fields": {"id,name,color"}}
	if err := c.request(ctx, http.MethodGet, "boards/"+url.PathEscape(boardID)+"/labels", q, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

// CreateCard creates a card in the given list and returns the server's
// representation of it.
func (c *Client) CreateCard(ctx context.Context, p CreateCardParams) (*Card, error) {
	q := url.Values{
		"idList":    {p.ListID},
		"name":      {p.Name},
		"desc":      {p.Desc},
		"idMembers": {strings.Join(p.MemberIDs, ",")},
		"idLabels":  {strings.Join(p.LabelIDs, ",")},
	}
	var card Card
	if err := c.request(ctx, http.MethodPost, "cards", q, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// UpdateCard applies a partial update to a card. Only the set fields are sent.
func (c *Client) UpdateCard(ctx context.Context, cardID string, p UpdateCardParams) (*Card, error) {
	q := url.Values{}
	if p.Name != nil {
		q.Set("name", *p.Name)
	}
	if p.Desc != nil {
		q.Set("desc", *p.Desc)
	}
	if p.ListID != nil {
		q.Set("idList", *p.ListID)
	}
	if p.MemberIDs != nil {
		q.Set("idMembers", strings.Join(p.MemberIDs, ","))
	}
	if p.LabelIDs != nil {
		q.Set("idLabels", strings.Join(p.LabelIDs, ","))
	}
	if p.Closed != nil {
		q.Set("closed", strconv.FormatBool(*p.Closed))
	}

	var card Card
	if err := c.request(ctx, http.MethodPut, "cards/"+url.PathEscape(cardID), q, &card); err != nil {
		return nil, err
	}
	return &card, nil
}
