// Package geocode resolves free-text addresses to coordinates through
// Nominatim. Lookups run on their own short-lived goroutine and report back
// through a callback; at most one lookup is in flight per input field, and
// starting a new one cancels the previous so two callbacks never race on the
// same piece of caller state.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

type Result struct {
	Lat         float64
	Lon         float64
	DisplayName string
}

type Client struct {
	base string
	http *http.Client

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

func NewClient() *Client {
	return NewClientWithBase(defaultBaseURL)
}

func NewClientWithBase(base string) *Client {
	return &Client{
		base:     base,
		http:     &http.Client{Timeout: 10 * time.Second},
		inflight: make(map[string]context.CancelFunc),
	}
}

// Lookup starts a background lookup for the given input field. Any previous
// lookup for the same field is canceled first and its callback suppressed.
// The callback runs on the lookup goroutine.
func (c *Client) Lookup(field, address string, callback func(Result, error)) {
	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if prev, ok := c.inflight[field]; ok {
		prev()
	}
	c.inflight[field] = cancel
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			// Only clear the slot if it still belongs to this lookup.
			if _, ok := c.inflight[field]; ok && ctx.Err() == nil {
				delete(c.inflight, field)
			}
			c.mu.Unlock()
		}()

		result, err := c.search(ctx, address)
		if ctx.Err() != nil {
			return
		}
		callback(result, err)
	}()
}

// Cancel aborts the in-flight lookup for a field, if any. Safe to call with
// nothing outstanding and safe to call repeatedly.
func (c *Client) Cancel(field string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.inflight[field]; ok {
		cancel()
		delete(c.inflight, field)
	}
}

// CancelAll aborts every in-flight lookup.
func (c *Client) CancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for field, cancel := range c.inflight {
		cancel()
		delete(c.inflight, field)
	}
}

// Resolve performs a blocking lookup, for callers that are not tied to a
// single input field.
func (c *Client) Resolve(ctx context.Context, address string) (Result, error) {
	return c.search(ctx, address)
}

type nominatimHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (c *Client) search(ctx context.Context, address string) (Result, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", c.base, url.QueryEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, err
	}
	// Nominatim's usage policy requires an identifying agent.
	req.Header.Set("User-Agent", "fleetsmart/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("geocoding %q: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("geocoder returned %d for %q", resp.StatusCode, address)
	}

	var hits []nominatimHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return Result{}, fmt.Errorf("decoding geocoder response: %w", err)
	}
	if len(hits) == 0 {
		return Result{}, fmt.Errorf("no match for %q", address)
	}

	lat, err := strconv.ParseFloat(hits[0].Lat, 64)
	if err != nil {
		return Result{}, fmt.Errorf("bad latitude in geocoder response: %w", err)
	}
	lon, err := strconv.ParseFloat(hits[0].Lon, 64)
	if err != nil {
		return Result{}, fmt.Errorf("bad longitude in geocoder response: %w", err)
	}
	return Result{Lat: lat, Lon: lon, DisplayName: hits[0].DisplayName}, nil
}
