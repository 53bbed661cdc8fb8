package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Provider is a read-only key lookup.
type Provider interface {
	Lookup(key string) (any, bool)
}

// MapProvider serves lookups from a flat map.
type MapProvider map[string]any

func (m MapProvider) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// Accessor memoizes lookups against a Provider until Invalidate is called.
type Accessor struct {
	mu       sync.Mutex
	provider Provider
	cache    map[string]lookup
}

type lookup struct {
	value any
	ok    bool
}

// NewAccessor wraps provider. A nil provider yields an accessor that always misses.
func NewAccessor(provider Provider) *Accessor {
	if provider == nil {
		provider = MapProvider{}
	}
	return &Accessor{provider: provider, cache: make(map[string]lookup)}
}

// Value returns the raw value for key, consulting the provider once per key.
func (a *Accessor) Value(key string) (any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if hit, ok := a.cache[key]; ok {
		return hit.value, hit.ok
	}
	v, ok := a.provider.Lookup(key)
	a.cache[key] = lookup{value: v, ok: ok}
	return v, ok
}

// Invalidate drops every memoized value.
func (a *Accessor) Invalidate() {
	a.mu.Lock()
	a.cache = make(map[string]lookup)
	a.mu.Unlock()
}

func (a *Accessor) String(key, fallback string) string {
	v, ok := a.Value(key)
	if !ok || v == nil {
		return fallback
	}
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func (a *Accessor) Bool(key string, fallback bool) bool {
	v, ok := a.Value(key)
	if !ok || v == nil {
		return fallback
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return fallback
		}
		return parsed
	default:
		return fallback
	}
}

func (a *Accessor) Int(key string, fallback int) int {
	v, ok := a.Value(key)
	if !ok || v == nil {
		return fallback
	}
	n, ok := toInt(v)
	if !ok {
		return fallback
	}
	return n
}

// OptionalInt reports false when key is missing or nil.
func (a *Accessor) OptionalInt(key string) (int, bool) {
	v, ok := a.Value(key)
	if !ok || v == nil {
		return 0, false
	}
	return toInt(v)
}

func (a *Accessor) Decimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v, ok := a.Value(key)
	if !ok || v == nil {
		return fallback
	}
	switch t := v.(type) {
	case decimal.Decimal:
		return t
	case float64:
		return decimal.NewFromFloat(t)
	case float32:
		return decimal.NewFromFloat32(t)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return fallback
		}
		return d
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return fallback
		}
		return d
	default:
		if n, ok := toInt(t); ok {
			return decimal.NewFromInt(int64(n))
		}
		return fallback
	}
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
