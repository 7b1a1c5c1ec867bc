package worms

import (
	"bytes"
	"encoding/json"
)

// Kind classifies the shape of a WoRMS response body. Every endpoint reply
// is decoded exactly once, at the HTTP boundary, into one of these shapes;
// downstream code switches on Kind instead of re-parsing JSON.
type Kind int

const (
	// KindEmpty is a 204 response or an empty body. WoRMS answers 204 when
	// a lookup matches nothing.
	KindEmpty Kind = iota

	// KindObject is a single JSON object.
	KindObject

	// KindList is a JSON array of objects.
	KindList

	// KindGroups is a JSON array of arrays, the shape the batch
	// name-matching endpoint answers with: one inner array per input name.
	KindGroups

	// KindMalformed is a 2xx body that is not valid JSON, or JSON of an
	// unexpected top-level type.
	KindMalformed
)

// Payload is the decoded form of a WoRMS response.
type Payload struct {
	Kind   Kind
	Object map[string]any
	List   []map[string]any
	Groups [][]map[string]any
}

// Records returns the payload normalized to a list of objects: a bare
// object becomes a one-element list, an empty or malformed payload an
// empty list. This is the cardinality rule every list-shaped category
// shares.
func (p Payload) Records() []map[string]any {
	switch p.Kind {
	case KindObject:
		return []map[string]any{p.Object}
	case KindList:
		return p.List
	default:
		return nil
	}
}

// decodePayload classifies a response body. A nil or whitespace-only body
// is Empty; invalid JSON and unexpected top-level types are Malformed.
func decodePayload(body []byte) Payload {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Payload{Kind: KindEmpty}
	}

	var raw any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return Payload{Kind: KindMalformed}
	}

	switch v := raw.(type) {
	case map[string]any:
		return Payload{Kind: KindObject, Object: v}
	case []any:
		return decodeArray(v)
	default:
		return Payload{Kind: KindMalformed}
	}
}

// decodeArray classifies a top-level JSON array: objects form a record
// list, arrays of objects form groups (batch matching), anything else is
// malformed.
func decodeArray(v []any) Payload {
	if len(v) == 0 {
		return Payload{Kind: KindList, List: []map[string]any{}}
	}

	switch v[0].(type) {
	case map[string]any:
		list := make([]map[string]any, 0, len(v))
		for _, elem := range v {
			obj, ok := elem.(map[string]any)
			if !ok {
				return Payload{Kind: KindMalformed}
			}
			list = append(list, obj)
		}
		return Payload{Kind: KindList, List: list}
	case []any:
		groups := make([][]map[string]any, 0, len(v))
		for _, elem := range v {
			inner, ok := elem.([]any)
			if !ok {
				return Payload{Kind: KindMalformed}
			}
			group := make([]map[string]any, 0, len(inner))
			for _, e := range inner {
				if obj, ok := e.(map[string]any); ok {
					group = append(group, obj)
				}
			}
			groups = append(groups, group)
		}
		return Payload{Kind: KindGroups, Groups: groups}
	default:
		return Payload{Kind: KindMalformed}
	}
}
