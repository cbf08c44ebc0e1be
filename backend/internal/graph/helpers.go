package graph

import (
	"strconv"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// ============================================================================
// Helper Functions
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getInt64FromRecord(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return i
	}
	if i, ok := val.(int); ok {
		return int64(i)
	}
	if f, ok := val.(float64); ok {
		return int64(f)
	}
	return 0
}

func getFloat64FromRecord(record *neo4j.Record, key string) float64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0.0
	}
	if f, ok := val.(float64); ok {
		return f
	}
	if i, ok := val.(int64); ok {
		return float64(i)
	}
	return 0.0
}

func getStringSliceFromRecord(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return []string{}
	}
	if slice, ok := val.([]any); ok {
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok {
				result = append(result, str)
			}
		}
		return result
	}
	return []string{}
}

func getBoolFromRecord(record *neo4j.Record, key string) bool {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return false
	}
	b, _ := val.(bool)
	return b
}

func getNodeFromRecord(record *neo4j.Record, key string) (neo4j.Node, bool) {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return neo4j.Node{}, false
	}
	node, ok := val.(neo4j.Node)
	return node, ok
}

func getRelationshipFromRecord(record *neo4j.Record, key string) (neo4j.Relationship, bool) {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return neo4j.Relationship{}, false
	}
	rel, ok := val.(neo4j.Relationship)
	return rel, ok
}

// getTripleFromRecord reads the n, r, m columns every traversal query returns
func getTripleFromRecord(record *neo4j.Record) (Triple, bool) {
	start, ok := getNodeFromRecord(record, "n")
	if !ok {
		return Triple{}, false
	}
	rel, ok := getRelationshipFromRecord(record, "r")
	if !ok {
		return Triple{}, false
	}
	end, ok := getNodeFromRecord(record, "m")
	if !ok {
		return Triple{}, false
	}
	return Triple{Start: start, Rel: rel, End: end}, true
}

// getLikesFromRecord reads a collect({rel: l, target: t}) column. OPTIONAL
// MATCH misses come back as maps with null entries and are skipped.
func getLikesFromRecord(record *neo4j.Record, key string, owner neo4j.Node) []Triple {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	list, ok := val.([]any)
	if !ok {
		return nil
	}

	likes := make([]Triple, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rel, ok := entry["rel"].(neo4j.Relationship)
		if !ok {
			continue
		}
		target, ok := entry["target"].(neo4j.Node)
		if !ok {
			continue
		}
		likes = append(likes, Triple{Start: owner, Rel: rel, End: target})
	}
	return likes
}

func getStringFromMap(m map[string]any, key, defaultValue string) string {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}
	if str, ok := val.(string); ok {
		return str
	}
	return defaultValue
}

// elementID returns the driver element id, or the legacy numeric id for servers that do not send one
func elementID(elementId string, legacyID int64) string {
	if elementId != "" {
		return elementId
	}
	return strconv.FormatInt(legacyID, 10)
}

// normalizeValue converts driver temporal values into JSON-friendly strings.
// Integers are already int64 in Go, so nothing needs unboxing.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case dbtype.Date:
		return time.Time(val).Format("2006-01-02")
	case dbtype.LocalDateTime:
		return time.Time(val).Format("2006-01-02T15:04:05.999999999")
	case dbtype.LocalTime:
		return time.Time(val).Format("15:04:05.999999999")
	case dbtype.Time:
		return time.Time(val).Format("15:04:05.999999999Z07:00")
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case dbtype.Duration:
		return val.String()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
