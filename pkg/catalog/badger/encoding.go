package badger

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/marmos91/shelf/pkg/catalog"
)

// Key namespace design.
//
// BadgerDB is a flat key-value store, so prefixed keys organize the three
// catalog tables into namespaces. Object keys embed a NUL separator between
// bucket and key: buckets never contain NUL and it sorts below every legal
// key byte, so a prefix scan over one bucket iterates its keys in ascending
// order. Part keys zero-pad the part number so the same property holds for
// part ordering.
//
// Data Type        Prefix  Key Format                      Value Type
// =====================================================================
// Object rows      "o:"    o:<bucket>\x00<key>             ObjectRecord (JSON)
// Upload rows      "u:"    u:<uploadID>                    MultipartRecord (JSON)
// Part rows        "p:"    p:<uploadID>:<number %010d>     PartRecord (JSON)

const (
	prefixObject = "o:"
	prefixUpload = "u:"
	prefixPart   = "p:"
)

const bucketSep = "\x00"

// keyObject generates a key for an object row: "o:<bucket>\x00<key>"
func keyObject(bucket, key string) []byte {
	return []byte(prefixObject + bucket + bucketSep + key)
}

// keyObjectPrefix generates the scan prefix for keys in a bucket starting
// with keyPrefix.
func keyObjectPrefix(bucket, keyPrefix string) []byte {
	return []byte(prefixObject + bucket + bucketSep + keyPrefix)
}

// splitObjectKey recovers (bucket, key) from an object row key.
func splitObjectKey(raw []byte) (bucket, key string, err error) {
	rest := bytes.TrimPrefix(raw, []byte(prefixObject))
	sep := bytes.Index(rest, []byte(bucketSep))
	if sep < 0 {
		return "", "", fmt.Errorf("malformed object key %q", raw)
	}
	return string(rest[:sep]), string(rest[sep+1:]), nil
}

// keyUpload generates a key for an upload row: "u:<uploadID>"
func keyUpload(uploadID string) []byte {
	return []byte(prefixUpload + uploadID)
}

// keyPart generates a key for a part row: "p:<uploadID>:<number %010d>"
func keyPart(uploadID string, partNumber int) []byte {
	return []byte(fmt.Sprintf("%s%s:%010d", prefixPart, uploadID, partNumber))
}

// keyPartPrefix generates the scan prefix for all parts of an upload.
func keyPartPrefix(uploadID string) []byte {
	return []byte(prefixPart + uploadID + ":")
}

func encodeObject(obj *catalog.ObjectRecord) ([]byte, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to encode object row: %w", err)
	}
	return data, nil
}

func decodeObject(data []byte) (*catalog.ObjectRecord, error) {
	var obj catalog.ObjectRecord
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode object row: %w", err)
	}
	return &obj, nil
}

func encodeUpload(upload *catalog.MultipartRecord) ([]byte, error) {
	data, err := json.Marshal(upload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload row: %w", err)
	}
	return data, nil
}

func decodeUpload(data []byte) (*catalog.MultipartRecord, error) {
	var upload catalog.MultipartRecord
	if err := json.Unmarshal(data, &upload); err != nil {
		return nil, fmt.Errorf("failed to decode upload row: %w", err)
	}
	return &upload, nil
}

func encodePart(part *catalog.PartRecord) ([]byte, error) {
	data, err := json.Marshal(part)
	if err != nil {
		return nil, fmt.Errorf("failed to encode part row: %w", err)
	}
	return data, nil
}

func decodePart(data []byte) (*catalog.PartRecord, error) {
	var part catalog.PartRecord
	if err := json.Unmarshal(data, &part); err != nil {
		return nil, fmt.Errorf("failed to decode part row: %w", err)
	}
	return &part, nil
}
