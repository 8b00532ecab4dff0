package gateway

import "encoding/json"

// emptyMetadata is the canonical serialization of "no user metadata". The
// catalog column is non-null, so absent metadata is stored as this.
const emptyMetadata = "{}"

// encodeMetadata serializes the user metadata map for the catalog. A nil or
// empty map encodes to "{}".
func encodeMetadata(m map[string]string) (string, error) {
	if len(m) == 0 {
		return emptyMetadata, nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodeMetadata reconstitutes the user metadata map from the catalog.
// Unparseable content yields an empty map rather than failing the read.
func decodeMetadata(raw string) map[string]string {
	if raw == "" || raw == emptyMetadata {
		return map[string]string{}
	}
	out := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]string{}
	}
	return out
}
