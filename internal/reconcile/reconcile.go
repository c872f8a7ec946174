// Package reconcile merges freshly fetched records with the cached copy.
//
// Reconcile is a pure function: the remote collection decides membership and
// order, cached records only contribute fields the remote copy does not carry.
package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"

	"github.com/qepting91/recordsync/internal/domain"
)

// Reconcile overlays each remote record on the first cached record sharing
// its id. Records only present in cached are dropped.
func Reconcile(remote, cached domain.Collection) domain.Collection {
	out := make(domain.Collection, 0, len(remote))
	for _, r := range remote {
		c := lookup(cached, r)
		if c == nil {
			out = append(out, r)
			continue
		}
		merged := make(domain.Record, len(c)+len(r))
		maps.Copy(merged, c)
		maps.Copy(merged, r)
		out = append(out, merged)
	}
	return out
}

func lookup(cached domain.Collection, r domain.Record) domain.Record {
	key, ok := idKey(r)
	if !ok {
		return nil
	}
	for _, c := range cached {
		if c == nil {
			continue
		}
		if ck, ok := idKey(c); ok && ck == key {
			return c
		}
	}
	return nil
}

// idKey maps an id to a comparable key. Numbers never equal strings, and
// object or array ids are not comparable at all.
func idKey(r domain.Record) (string, bool) {
	v, present := r["id"]
	if !present {
		return "absent", true
	}
	switch id := v.(type) {
	case nil:
		return "null", true
	case string:
		return "s:" + id, true
	case bool:
		return "b:" + strconv.FormatBool(id), true
	case json.Number:
		f, err := id.Float64()
		if err != nil {
			return "n:" + id.String(), true
		}
		return numKey(f), true
	case float64:
		return numKey(id), true
	case float32:
		return numKey(float64(id)), true
	case int:
		return numKey(float64(id)), true
	case int64:
		return numKey(float64(id)), true
	default:
		return "", false
	}
}

func numKey(f float64) string {
	return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
}

// Decode parses a cached payload. An empty or malformed payload, including
// an array holding anything other than objects, yields an empty collection;
// the error is returned only so callers can log it.
func Decode(payload string) (domain.Collection, error) {
	if payload == "" {
		return domain.Collection{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return domain.Collection{}, fmt.Errorf("decode cache: %w", err)
	}

	out := make(domain.Collection, 0, len(raw))
	for i, item := range raw {
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()
		var rec domain.Record
		if err := dec.Decode(&rec); err != nil {
			return domain.Collection{}, fmt.Errorf("decode cache element %d: %w", i, err)
		}
		if rec == nil {
			return domain.Collection{}, fmt.Errorf("decode cache element %d: not an object", i)
		}
		out = append(out, rec)
	}
	return out, nil
}

// DecodeOrEmpty is Decode with the error discarded.
func DecodeOrEmpty(payload string) domain.Collection {
	c, _ := Decode(payload)
	return c
}

// Encode serializes a collection as a single JSON array.
func Encode(c domain.Collection) (string, error) {
	if c == nil {
		c = domain.Collection{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode cache: %w", err)
	}
	return string(b), nil
}
