package store

import (
	"fmt"
	"sort"
)

// SortDocs orders a snapshot by the query's OrderBy field. Numbers compare
// numerically, strings lexically (RFC 3339 timestamps sort correctly that
// way); ties break on id so snapshots are deterministic.
func SortDocs(docs []Document, q Query) {
	if q.OrderBy == "" {
		sort.SliceStable(docs, func(i, j int) bool {
			return docID(docs[i]) < docID(docs[j])
		})
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i][q.OrderBy], docs[j][q.OrderBy]
		c := compareValues(a, b)
		if c == 0 {
			return docID(docs[i]) < docID(docs[j])
		}
		if q.Desc {
			return c > 0
		}
		return c < 0
	})
}

func docID(doc Document) string {
	id, _ := doc["id"].(string)
	return id
}

func compareValues(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, bs := stringValue(a), stringValue(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
