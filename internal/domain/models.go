package domain

import (
	"context"
	"encoding/json"
	"fmt"
)

// Kind selects which remote collection to fetch
type Kind string

const (
	KindPosts    Kind = "posts"
	KindComments Kind = "comments"
	KindUsers    Kind = "users"
)

// Kinds lists every fetchable kind in trigger order.
var Kinds = []Kind{KindPosts, KindComments, KindUsers}

// ParseKind validates a user supplied kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind: %q (use 'posts', 'comments', or 'users')", s)
}

// Record is an opaque JSON object. Only the "id" field has meaning here.
type Record map[string]any

// Collection is an ordered list of records, in fetch order.
type Collection []Record

// Label returns the primary display text: name, falling back to title.
func (r Record) Label() string {
	if s := r.text("name"); s != "" {
		return s
	}
	return r.text("title")
}

// Detail returns the secondary display text: email, falling back to body.
func (r Record) Detail() string {
	if s := r.text("email"); s != "" {
		return s
	}
	return r.text("body")
}

// text renders a field for display. Missing, null, false, zero and empty
// values count as absent so the caller falls back to the next field.
func (r Record) text(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if !v {
			return ""
		}
		return "true"
	case json.Number:
		if f, err := v.Float64(); err == nil && f == 0 {
			return ""
		}
		return v.String()
	case float64:
		if v == 0 {
			return ""
		}
	case int:
		if v == 0 {
			return ""
		}
	}
	return fmt.Sprint(r[field])
}

// Source defines the interface for remote data fetching
type Source interface {
	Fetch(ctx context.Context, kind Kind) (Collection, error)
}

// Store is a string key-value store holding the serialized cache.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}
