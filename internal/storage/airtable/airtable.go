// Package airtable talks to the hosted record store. Every table is a
// REST resource sharing one envelope shape, so the whole transport is a
// single generic executor plus a thin set of typed entry points.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"moviecenter/proj/internal/domain/filters"
	"moviecenter/proj/internal/storage"

	"github.com/gorilla/schema"
	"golang.org/x/time/rate"
)

type Record[F any] struct {
	ID          string    `json:"id"`
	CreatedTime time.Time `json:"createdTime,omitempty"`
	Fields      F         `json:"fields"`
}

type envelope[F any] struct {
	Records []Record[F] `json:"records"`
}

type fieldsBody[F any] struct {
	Fields F `json:"fields"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

// New builds a client for one base (account + app) of the record
// store. limiter may be nil to disable outbound rate limiting.
func New(log *slog.Logger, baseURL, token string, timeout time.Duration, limiter *rate.Limiter) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, storage.ErrInvalidAddress
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		log:     log,
	}, nil
}

// ListOptions narrows a table list read. The zero value lists the
// whole table.
type ListOptions struct {
	Filter     filters.Formula
	MaxRecords int
}

type listQuery struct {
	FilterByFormula string `schema:"filterByFormula,omitempty"`
	MaxRecords      int    `schema:"maxRecords,omitempty"`
}

var queryEncoder = schema.NewEncoder()

func (o ListOptions) values() (url.Values, error) {
	q := listQuery{MaxRecords: o.MaxRecords}
	if o.Filter != nil {
		q.FilterByFormula = o.Filter.Render()
	}
	values := url.Values{}
	if err := queryEncoder.Encode(q, values); err != nil {
		return nil, storage.ErrInvalidAddress
	}
	return values, nil
}

// List reads the records of a table matching opts. The envelope is
// {"records": [...]}. Order is server-defined and not stable across
// requests.
func List[F any](ctx context.Context, c *Client, table string, opts ListOptions) ([]Record[F], error) {
	values, err := opts.values()
	if err != nil {
		return nil, err
	}
	var env envelope[F]
	if err := c.do(ctx, http.MethodGet, table, "", values, nil, &env); err != nil {
		return nil, err
	}
	return env.Records, nil
}

// Get reads a single record by id. The body is the bare record object.
func Get[F any](ctx context.Context, c *Client, table, id string) (*Record[F], error) {
	var rec Record[F]
	if err := c.do(ctx, http.MethodGet, table, id, nil, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create inserts one record. Linked-record fields must be arrays of
// target ids even when semantically single-valued.
func Create[F any](ctx context.Context, c *Client, table string, fields F) (*Record[F], error) {
	var rec Record[F]
	if err := c.do(ctx, http.MethodPost, table, "", nil, fieldsBody[F]{Fields: fields}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Update patches the given fields of an existing record. Omitted
// fields keep their stored value; there is no concurrency token, so
// the last writer wins.
func Update[F any](ctx context.Context, c *Client, table, id string, fields F) (*Record[F], error) {
	var rec Record[F]
	if err := c.do(ctx, http.MethodPatch, table, id, nil, fieldsBody[F]{Fields: fields}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func Delete(ctx context.Context, c *Client, table, id string) error {
	return c.do(ctx, http.MethodDelete, table, id, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, table, id string, query url.Values, body, out any) error {
	const op = "airtable.Client.do"
	log := c.log.With("op", op, "method", method, "table", table)

	addr, err := url.JoinPath(c.baseURL, table, id)
	if err != nil {
		return storage.ErrInvalidAddress
	}
	if len(query) > 0 {
		addr += "?" + query.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &storage.UnknownError{Cause: err}
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, addr, reqBody)
	if err != nil {
		return storage.ErrInvalidAddress
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			// Wait reports context expiry with plain string errors
			// when the reservation could never be served in time.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			log.Error("rate limit not acquirable", "err", err.Error())
			return &storage.UnknownError{Cause: err}
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		err = classifyTransport(err)
		log.Error("request not delivered", "err", err.Error())
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Error("undecodable response body", "err", err.Error())
			return fmt.Errorf("%w: %s", storage.ErrDecoding, err)
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return storage.ErrUnauthorized
	case resp.StatusCode >= 500 && resp.StatusCode <= 599:
		log.Error("server side failure", "status", resp.StatusCode)
		return storage.ErrServerUnavailable
	default:
		return &storage.RequestFailedError{StatusCode: resp.StatusCode}
	}
}

// classifyTransport sorts out failures where no HTTP status ever came
// back: connectivity problems are retryable for the caller, anything
// else is surfaced as unknown.
func classifyTransport(err error) error {
	var dnsErr *net.DNSError
	var opErr *net.OpError
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.As(err, &dnsErr), errors.As(err, &opErr):
		return storage.ErrNetworkUnavailable
	case errors.As(err, &netErr) && netErr.Timeout():
		return storage.ErrNetworkUnavailable
	default:
		return &storage.UnknownError{Cause: err}
	}
}
