package worms

// AphiaID is the WoRMS taxon identifier.
type AphiaID int64

// Record is the subset of an Aphia record the agent reads by name. The raw
// object is preserved alongside for artifact payloads; Record exists so
// summaries and cache keys never touch map[string]any directly.
type Record struct {
	AphiaID        AphiaID
	ScientificName string
	Status         string
	Rank           string
	ValidName      string
	Kingdom        string
	Phylum         string
	Class          string
	Order          string
	Family         string
	Genus          string
	MatchType      string
	IsMarine       bool
	IsExtinct      bool
}

// ParseRecord extracts the typed fields from a decoded Aphia record object.
// Missing or mistyped fields are left at their zero value.
func ParseRecord(obj map[string]any) Record {
	return Record{
		AphiaID:        AphiaID(asInt64(obj["AphiaID"])),
		ScientificName: asString(obj["scientificname"]),
		Status:         asString(obj["status"]),
		Rank:           asString(obj["rank"]),
		ValidName:      asString(obj["valid_name"]),
		Kingdom:        asString(obj["kingdom"]),
		Phylum:         asString(obj["phylum"]),
		Class:          asString(obj["class"]),
		Order:          asString(obj["order"]),
		Family:         asString(obj["family"]),
		Genus:          asString(obj["genus"]),
		MatchType:      asString(obj["match_type"]),
		IsMarine:       asBool(obj["isMarine"]),
		IsExtinct:      asBool(obj["isExtinct"]),
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asInt64 accepts the numeric encodings encoding/json produces for untyped
// decoding (float64) plus plain ints from tests.
func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

// asBool accepts the 0/1 integers WoRMS uses for boolean flags as well as
// real booleans.
func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case int:
		return b != 0
	default:
		return false
	}
}
