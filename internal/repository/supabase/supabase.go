// Package supabase implements repository.CatchRepository against a hosted
// Supabase project through its PostgREST interface.
//
// Every operation is one HTTP round trip to {project}/rest/v1/catches:
//
//	Insert      POST   /catches                              Prefer: return=representation
//	ListByOwner GET    /catches?user_id=eq.U&order=id.asc
//	Update      PATCH  /catches?id=eq.N&user_id=eq.U         Prefer: return=representation
//	Delete      DELETE /catches?id=eq.N&user_id=eq.U         Prefer: return=representation
//	Probe       GET    /catches?select=id&limit=1
//
// With return=representation PostgREST answers writes with the affected rows
// as a JSON array; an empty array means the filters matched nothing.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sakif/castiq/internal/apperror"
	"github.com/sakif/castiq/internal/httpx"
	"github.com/sakif/castiq/internal/model"
	"github.com/sakif/castiq/internal/repository"
)

const table = "catches"

var _ repository.CatchRepository = (*Client)(nil)

// Client is the record store binding. It holds no mutable state after New
// and is safe for concurrent use by simultaneous requests.
type Client struct {
	http *httpx.Client
}

// New builds a binding for the project at projectURL (e.g.
// "https://abcd.supabase.co") authenticated with key. Extra options are
// passed to the underlying httpx.Client.
func New(projectURL, key string, opts ...httpx.Option) (*Client, error) {
	projectURL = strings.TrimRight(strings.TrimSpace(projectURL), "/")
	if projectURL == "" {
		return nil, errors.New("supabase: project URL is required")
	}
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("supabase: API key is required")
	}

	headers := http.Header{}
	headers.Set("apikey", key)
	headers.Set("Authorization", "Bearer "+key)
	headers.Set("Accept", "application/json")

	opts = append([]httpx.Option{httpx.WithHeaders(headers)}, opts...)
	cl, err := httpx.NewClient(projectURL+"/rest/v1", opts...)
	if err != nil {
		return nil, fmt.Errorf("supabase: %w", err)
	}
	return &Client{http: cl}, nil
}

// Close is a no-op; idle connections belong to the http.Client.
func (c *Client) Close() error { return nil }

// catchFields is the set of columns an edit may replace. id and user_id are
// absent on purpose: neither changes after creation.
type catchFields struct {
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Location    string  `json:"location"`
	Species     string  `json:"species"`
	LengthIn    float64 `json:"length_in"`
	WeightLbs   float64 `json:"weight_lbs"`
	Temperature float64 `json:"temperature"`
	Bait        string  `json:"bait"`
}

func fieldsOf(c *model.Catch) catchFields {
	return catchFields{
		Date:        c.Date,
		Time:        c.Time,
		Location:    c.Location,
		Species:     c.Species,
		LengthIn:    c.LengthIn,
		WeightLbs:   c.WeightLbs,
		Temperature: c.Temperature,
		Bait:        c.Bait,
	}
}

// Insert appends a new catch. The id is left out of the body so the
// table's identity column assigns it.
func (c *Client) Insert(ctx context.Context, in *model.Catch) (*model.Catch, error) {
	row := *in
	row.ID = 0

	rows, err := c.write(ctx, http.MethodPost, nil, row)
	if err != nil {
		return nil, storeError("inserting catch", err)
	}
	if len(rows) == 0 {
		return nil, apperror.StoreFailed("insert returned no rows", nil)
	}
	return &rows[0], nil
}

// ListByOwner returns every catch owned by owner, ordered by ascending id.
func (c *Client) ListByOwner(ctx context.Context, owner string) ([]model.Catch, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+owner)
	q.Set("order", "id.asc")

	rows := make([]model.Catch, 0)
	err := c.http.DoJSON(ctx, &httpx.Request{Method: http.MethodGet, Path: table, Query: q}, &rows)
	if err != nil {
		return nil, storeError("listing catches", err)
	}
	if rows == nil {
		// a literal JSON null decodes to a nil slice
		rows = make([]model.Catch, 0)
	}
	return rows, nil
}

// Update replaces the mutable fields of the row matching id AND owner.
// Returns (nil, nil) when nothing matched.
func (c *Client) Update(ctx context.Context, id int64, owner string, in *model.Catch) (*model.Catch, error) {
	rows, err := c.write(ctx, http.MethodPatch, ownedRow(id, owner), fieldsOf(in))
	if err != nil {
		return nil, storeError(fmt.Sprintf("updating catch %d", id), err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Delete removes the row matching id AND owner and returns it.
// Returns (nil, nil) when nothing matched.
func (c *Client) Delete(ctx context.Context, id int64, owner string) (*model.Catch, error) {
	rows, err := c.write(ctx, http.MethodDelete, ownedRow(id, owner), nil)
	if err != nil {
		return nil, storeError(fmt.Sprintf("deleting catch %d", id), err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Probe reads at most one id. Its only purpose is to keep a project that
// auto-pauses when idle awake.
func (c *Client) Probe(ctx context.Context) (int, error) {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")

	var rows []struct {
		ID int64 `json:"id"`
	}
	err := c.http.DoJSON(ctx, &httpx.Request{Method: http.MethodGet, Path: table, Query: q}, &rows)
	if err != nil {
		return 0, storeError("probing catches", err)
	}
	return len(rows), nil
}

// write sends a mutating request asking PostgREST to echo the affected rows.
func (c *Client) write(ctx context.Context, method string, q url.Values, body any) ([]model.Catch, error) {
	req := &httpx.Request{
		Method: method,
		Path:   table,
		Query:  q,
		Header: http.Header{"Prefer": {"return=representation"}},
	}
	if body != nil {
		r, err := httpx.WithJSONBody(body)
		if err != nil {
			return nil, err
		}
		req.Body = r
		req.Header.Set("Content-Type", "application/json")
	}

	var rows []model.Catch
	if err := c.http.DoJSON(ctx, req, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func ownedRow(id int64, owner string) url.Values {
	q := url.Values{}
	q.Set("id", "eq."+strconv.FormatInt(id, 10))
	q.Set("user_id", "eq."+owner)
	return q
}

// storeError converts a transport or PostgREST failure into ErrStore. The
// client-visible message is PostgREST's own "message" when it sent one.
func storeError(op string, err error) error {
	msg := err.Error()
	var httpErr *httpx.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.Field("message") != "":
			msg = httpErr.Field("message")
		case len(httpErr.Body) > 0:
			msg = string(httpErr.Body)
		}
	}
	return fmt.Errorf("supabase: %s: %w", op, apperror.StoreFailed(msg, err))
}
