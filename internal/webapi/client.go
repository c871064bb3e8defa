package webapi

import (
	"context"
	"dsclient/internal/flags"
	"dsclient/internal/types"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// Runtime variables naming where a listing response keeps its entries and its
// next page cursor.
const (
	StringListEntriesPath = "DataStoreListEntriesPath"
	StringListCursorPath  = "DataStoreListCursorPath"

	DefaultListEntriesPath = "datastores"
	DefaultListCursorPath  = "nextPageCursor"

	APIKeyHdrName  = "x-api-key"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 1 << 10
)

// Client talks to the remote persistence API. It implements
// ports.CapabilityProbe, ports.URLBuilder and ports.PageFetcher.
type Client struct {
	base   string
	apiKey string
	http   *http.Client
	flags  *flags.Provider
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithAPIKey(key string) Option {
	return func(cl *Client) { cl.apiKey = key }
}

func NewClient(base string, p *flags.Provider, opts ...Option) *Client {
	p.EnsureString(StringListEntriesPath, DefaultListEntriesPath)
	p.EnsureString(StringListCursorPath, DefaultListCursorPath)
	c := &Client{
		base:  strings.TrimRight(base, "/"),
		http:  &http.Client{Timeout: defaultTimeout},
		flags: p,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiAccessResponse struct {
	Enabled bool `json:"enabled"`
}

// IsApiAccessEnabled asks whether privileged API access is enabled for the
// universe.
func (c *Client) IsApiAccessEnabled(ctx context.Context, universeID int64) (bool, error) {
	u := fmt.Sprintf("%s/v1/universes/%d/api-access", c.base, universeID)
	var out apiAccessResponse
	if err := c.getJSON(ctx, u, &out); err != nil {
		return false, err
	}
	return out.Enabled, nil
}

// BuildListURL builds the listing request for a universe. Empty prefix and
// non-positive page sizes are left to the server.
func (c *Client) BuildListURL(universeID int64, prefix string, pageSize int) types.ListTarget {
	q := url.Values{}
	if prefix != "" {
		q.Set("prefix", prefix)
	}
	if pageSize > 0 {
		q.Set("limit", strconv.Itoa(pageSize))
	}
	u := fmt.Sprintf("%s/v1/universes/%d/standard-datastores", c.base, universeID)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return types.ListTarget{URL: u, UniverseID: universeID, Prefix: prefix, PageSize: pageSize}
}

// FetchPage requests one listing page and extracts its entries and cursor
// with the JMESPath expressions held in the listing path variables.
func (c *Client) FetchPage(ctx context.Context, target types.ListTarget, cursor string) (types.ListingResult, error) {
	u, err := url.Parse(target.URL)
	if err != nil {
		return types.ListingResult{}, types.Err(types.ErrInvalidArgument, err, "invalid listing url")
	}
	if cursor != "" {
		q := u.Query()
		q.Set("cursor", cursor)
		u.RawQuery = q.Encode()
	}

	var payload any
	if err := c.getJSON(ctx, u.String(), &payload); err != nil {
		return types.ListingResult{}, err
	}

	entriesPath := c.flags.GetString(StringListEntriesPath)
	raw, err := evalAny(entriesPath, payload)
	if err != nil {
		return types.ListingResult{}, types.Fail(types.ErrDataStoreAccess, "%s: %v", entriesPath, err)
	}
	var stores []types.StoreInfo
	if raw != nil {
		// re-encode the selection and decode it as typed entries
		b, err := json.Marshal(raw)
		if err != nil {
			return types.ListingResult{}, err
		}
		if err := json.Unmarshal(b, &stores); err != nil {
			return types.ListingResult{}, types.Fail(types.ErrDataStoreAccess, "unexpected listing entries at %q: %v", entriesPath, err)
		}
	}
	if stores == nil {
		stores = []types.StoreInfo{}
	}

	next, err := evalString(c.flags.GetString(StringListCursorPath), payload)
	if err != nil {
		return types.ListingResult{}, types.Fail(types.ErrDataStoreAccess, "cursor: %v", err)
	}
	return types.ListingResult{Stores: stores, NextCursor: next}, nil
}

// getJSON GETs u and decodes a 2xx JSON body into out. Other statuses become
// a *types.Failure carrying the status code and the start of the body.
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHdrName, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.WithFields(log.Fields{
			"url":    u,
			"status": resp.StatusCode,
		}).Warn("web api request failed")
		return types.Fail(types.ErrDataStoreAccess, "%d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}

// Probe binds a Client to one universe so it satisfies ports.CapabilityProbe.
type Probe struct {
	Client     *Client
	UniverseID int64
}

func (p Probe) IsApiAccessEnabled(ctx context.Context) (bool, error) {
	return p.Client.IsApiAccessEnabled(ctx, p.UniverseID)
}

// StaticProbe answers every capability check with the same value. It stands
// in for the remote probe when no API is configured.
type StaticProbe bool

func (p StaticProbe) IsApiAccessEnabled(_ context.Context) (bool, error) {
	return bool(p), nil
}
