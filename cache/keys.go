package cache

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// ListKey builds a cache key for a paginated list query. Filter keys are
// sorted and empty values dropped, so two logically identical queries map to
// the same key no matter how the caller assembled the filter map.
func ListKey(prefix string, page, limit int, filters map[string]string) string {
	base := fmt.Sprintf("%s:%d:%d", prefix, page, limit)
	tail := encodeFilters(filters)
	if tail == "" {
		return base
	}
	return base + ":" + tail
}

// encodeFilters serializes the non-empty filters as JSON (the encoder emits
// map keys sorted) and base64-encodes the blob. JSON escaping keeps separator
// characters inside values from ever making two distinct filter sets collide.
func encodeFilters(filters map[string]string) string {
	pruned := make(map[string]string, len(filters))
	for k, v := range filters {
		if v != "" {
			pruned[k] = v
		}
	}
	if len(pruned) == 0 {
		return ""
	}
	data, err := json.Marshal(pruned)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DetailKey builds the key for a single-entity lookup.
func DetailKey(prefix string, id uint) string {
	return fmt.Sprintf("%s:%d", prefix, id)
}

// AnalyticsKey builds the key for an analytics query over a date range.
func AnalyticsKey(prefix string, from, to time.Time, interval string, extra map[string]string) string {
	key := fmt.Sprintf("%s:%s:%s:%s", prefix, from.Format("2006-01-02"), to.Format("2006-01-02"), interval)
	if tail := encodeFilters(extra); tail != "" {
		key += ":" + tail
	}
	return key
}
