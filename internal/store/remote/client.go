// Package remote is a store.RecordStore over the tracker REST API
// (/api/<collection>/ and /api/<collection>/<id>/).
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"tracker/internal/core"
	"tracker/internal/store"
)

// Client talks to the REST collections. It never retries.
type Client struct {
	base *url.URL
	http *http.Client
}

var _ store.RecordStore = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the pooled client. The bearer token is not applied
// to a client passed this way.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// New returns a client for baseURL. A non-empty token is sent as a bearer
// token on every request.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid remote base url %q", baseURL)
	}

	hc := newHTTPClientWithPooling()
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
		authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
		authed.Timeout = hc.Timeout
		hc = authed
	}

	c := &Client{base: u, http: hc}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

func (c *Client) collectionURL(collection string) string {
	return c.base.JoinPath("api", collection).String() + "/"
}

func (c *Client) recordURL(collection, id string) string {
	return c.base.JoinPath("api", collection, id).String() + "/"
}

// List returns the records of collection. For the base "events" collection
// the variant collections are fetched as well and their fields nested under
// the variant envelope of the matching base record.
func (c *Client) List(ctx context.Context, collection string) ([]core.Record, error) {
	if !store.Known(collection) {
		return nil, fmt.Errorf("collection %q: %w", collection, core.ErrUnsupported)
	}
	if collection == core.CollectionEvents {
		return c.listJoinedEvents(ctx)
	}
	return c.list(ctx, collection)
}

func (c *Client) list(ctx context.Context, collection string) ([]core.Record, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, c.collectionURL(collection), "list", collection, "", nil, &raw); err != nil {
		return nil, err
	}
	recs, err := decodeList(raw)
	if err != nil {
		return nil, &core.TransportError{Op: "list", Collection: collection, Err: err}
	}
	return recs, nil
}

func (c *Client) Create(ctx context.Context, collection string, payload core.Record) (core.Record, error) {
	if !store.Known(collection) {
		return nil, fmt.Errorf("collection %q: %w", collection, core.ErrUnsupported)
	}
	var out core.Record
	if err := c.do(ctx, http.MethodPost, c.collectionURL(collection), "create", collection, "", payload, &out); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Record created remotely", "collection", collection, "id", out.ID())
	return out, nil
}

func (c *Client) Update(ctx context.Context, collection, id string, payload core.Record) (core.Record, error) {
	if !store.Known(collection) {
		return nil, fmt.Errorf("collection %q: %w", collection, core.ErrUnsupported)
	}
	var out core.Record
	if err := c.do(ctx, http.MethodPut, c.recordURL(collection, id), "update", collection, id, payload, &out); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Record updated remotely", "collection", collection, "id", id)
	return out, nil
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	if !store.Known(collection) {
		return fmt.Errorf("collection %q: %w", collection, core.ErrUnsupported)
	}
	if err := c.do(ctx, http.MethodDelete, c.recordURL(collection, id), "delete", collection, id, nil, nil); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Record deleted remotely", "collection", collection, "id", id)
	return nil
}

// do sends one request and decodes a JSON response into out when out is
// non-nil. Status codes map onto the core error taxonomy.
func (c *Client) do(ctx context.Context, method, target, op, collection, id string, body core.Record, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", collection, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return &core.TransportError{Op: op, Collection: collection, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &core.TransportError{Op: op, Collection: collection, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &core.TransportError{Op: op, Collection: collection, Status: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound && id != "":
		return &core.NotFoundError{Collection: collection, ID: id}
	case resp.StatusCode == http.StatusBadRequest:
		return &core.ValidationError{Message: fmt.Sprintf("%s %s rejected: %s", op, collection, snippet(data))}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &core.TransportError{Op: op, Collection: collection, Status: resp.StatusCode, Err: errors.New(snippet(data))}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return &core.TransportError{Op: op, Collection: collection, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// decodeList accepts a bare array or a paginated {"results": [...]} object.
func decodeList(raw json.RawMessage) ([]core.Record, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var page struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("decode page: %w", err)
		}
		raw = page.Results
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	out := make([]core.Record, len(items))
	for i, m := range items {
		out[i] = core.Record(m)
	}
	return out, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		return "empty response"
	}
	return s
}
