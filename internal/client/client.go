// Package client implements schoolnet.Client on top of the shared transport.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/gradecam/schoolnet-client/internal/auth"
	"github.com/gradecam/schoolnet-client/internal/constants"
	"github.com/gradecam/schoolnet-client/internal/http"
	"github.com/gradecam/schoolnet-client/pkg/schoolnet"
)

// Client implements the schoolnet.Client interface.
type Client struct {
	httpClient *http.Client
	tokens     *auth.TokenCache
	logger     schoolnet.Logger
	omissions  []string
}

var _ schoolnet.Client = (*Client)(nil)

// New creates a client. httpClient must resolve paths against the resource
// API root and authenticate with tokens.
func New(httpClient *http.Client, tokens *auth.TokenCache, logger schoolnet.Logger) *Client {
	if logger == nil {
		logger = schoolnet.NopLogger{}
	}

	return &Client{
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger,
		omissions:  constants.Omissions(),
	}
}

// Tokens returns the token cache backing the client.
func (c *Client) Tokens() *auth.TokenCache {
	return c.tokens
}

// SetLogLevel implements schoolnet.Client.SetLogLevel.
func (c *Client) SetLogLevel(level string) error {
	setter, ok := c.logger.(schoolnet.LevelSetter)
	if !ok {
		return nil
	}

	err := setter.SetLevel(level)
	if err != nil {
		return fmt.Errorf("setting log level: %w", err)
	}

	return nil
}

// pageQuery is a normalized ListOptions.
type pageQuery struct {
	limit     int
	offset    int
	recursive bool
	query     url.Values
}

func newPageQuery(opts *schoolnet.ListOptions) *pageQuery {
	opts = opts.Clone()

	page := &pageQuery{
		limit:     constants.DefaultLimit,
		offset:    constants.DefaultOffset,
		recursive: true,
		query:     opts.Query,
	}

	if opts.Limit == nil && opts.Offset == nil {
		return page
	}

	page.recursive = opts.Recursive

	if opts.Limit != nil && *opts.Limit > 0 {
		page.limit = *opts.Limit
	}

	if opts.Offset != nil {
		page.offset = *opts.Offset
	}

	return page
}

func (p *pageQuery) values() url.Values {
	values := url.Values{}
	for k, v := range p.query {
		values[k] = v
	}

	values.Set("limit", strconv.Itoa(p.limit))
	values.Set("offset", strconv.Itoa(p.offset))

	return values
}

// apiGet fetches path, following pages while each array page is full.
func (c *Client) apiGet(ctx context.Context, path string, opts *schoolnet.ListOptions) (schoolnet.Payload, error) {
	page := newPageQuery(opts)
	records := []schoolnet.Record{}

	for first := true; ; first = false {
		c.logger.Debug("requesting", map[string]interface{}{
			"path":   path,
			"limit":  page.limit,
			"offset": page.offset,
		})

		payload, err := c.get(ctx, path, page.values())
		if err != nil {
			return schoolnet.Payload{}, err
		}

		if !payload.IsList {
			if first {
				return payload, nil
			}

			// A non-list page after list pages ends the collection.
			break
		}

		records = append(records, payload.List...)

		if !page.recursive || len(payload.List) < page.limit {
			break
		}

		page.offset += page.limit
		c.logger.Debug("requesting next page", map[string]interface{}{
			"path":   path,
			"offset": page.offset,
		})
	}

	return schoolnet.Payload{List: records, IsList: true}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (schoolnet.Payload, error) {
	resp, err := c.httpClient.Get(ctx, path, query)
	if err != nil {
		return schoolnet.Payload{}, err
	}

	return c.decode(resp.Body)
}

// apiPut writes body to path once.
func (c *Client) apiPut(ctx context.Context, path string, body schoolnet.Record) (schoolnet.Payload, error) {
	c.logger.Debug("putting", map[string]interface{}{"path": path})

	resp, err := c.httpClient.Put(ctx, path, body)
	if err != nil {
		return schoolnet.Payload{}, err
	}

	return c.decode(resp.Body)
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// decode unwraps {"data": ...} and strips omitted fields. Missing or null
// data becomes an empty object.
func (c *Client) decode(body []byte) (schoolnet.Payload, error) {
	empty := schoolnet.Payload{Object: schoolnet.Record{}}

	if len(bytes.TrimSpace(body)) == 0 {
		return empty, nil
	}

	var env envelope

	err := json.Unmarshal(body, &env)
	if err != nil {
		return schoolnet.Payload{}, fmt.Errorf("parsing response: %w", err)
	}

	data := bytes.TrimSpace(env.Data)

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return empty, nil
	case data[0] == '[':
		var items []interface{}

		err = json.Unmarshal(data, &items)
		if err != nil {
			return schoolnet.Payload{}, fmt.Errorf("parsing response data: %w", err)
		}

		list := make([]schoolnet.Record, 0, len(items))
		for _, item := range items {
			list = append(list, c.trim(item))
		}

		return schoolnet.Payload{List: list, IsList: true}, nil
	default:
		var item interface{}

		err = json.Unmarshal(data, &item)
		if err != nil {
			return schoolnet.Payload{}, fmt.Errorf("parsing response data: %w", err)
		}

		return schoolnet.Payload{Object: c.trim(item)}, nil
	}
}

// trim drops the omitted keys from an object. Anything that is not an object
// trims to an empty record.
func (c *Client) trim(item interface{}) schoolnet.Record {
	obj, ok := item.(map[string]interface{})
	if !ok {
		return schoolnet.Record{}
	}

	return schoolnet.Record(obj).Without(c.omissions...)
}

// single returns the object form of a payload.
func single(payload schoolnet.Payload) schoolnet.Record {
	if !payload.IsList {
		return payload.Object
	}

	if len(payload.List) > 0 {
		return payload.List[0]
	}

	return schoolnet.Record{}
}
