// Package handlers implements the HTTP handlers for the JSON API.
// Monetary values are decimals internally; conversion to float64
// happens here, at the presentation boundary.
package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dverbeek/portfolio-tracker/internal/api/response"
)

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	response.RespondJSON(w, status, data)
}

// respondServerError sends a 500 with the standard error shape.
func respondServerError(w http.ResponseWriter, message string, err error) {
	response.RespondError(w, http.StatusInternalServerError, message, err.Error())
}

// respondBadRequest sends a 400 with the standard error shape.
func respondBadRequest(w http.ResponseWriter, message string, err error) {
	response.RespondError(w, http.StatusBadRequest, message, err.Error())
}

// f converts a decimal to a float64 for the JSON boundary.
func f(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}

// fp converts an optional decimal, keeping nil as nil.
func fp(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := f(*d)
	return &v
}

// ResponseCache memoizes computed endpoint payloads for a short TTL so
// bursts of dashboard refreshes do not hammer the market data provider.
type ResponseCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	payload interface{}
	expires time.Time
}

// NewResponseCache creates an empty ResponseCache.
func NewResponseCache() *ResponseCache {
	return &ResponseCache{entries: make(map[string]cacheEntry)}
}

// fetch returns the cached payload for key, or computes, stores and
// returns a fresh one. Compute errors are never cached.
func (c *ResponseCache) fetch(key string, ttl time.Duration, compute func() (interface{}, error)) (interface{}, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && time.Now().Before(entry.expires) {
		return entry.payload, nil
	}

	payload, err := compute()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{payload: payload, expires: time.Now().Add(ttl)}
	c.mu.Unlock()
	return payload, nil
}

// invalidate drops every cached payload, used after reload/upload.
func (c *ResponseCache) invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
