// Package checksum implements the hashing side of the write pipeline: an
// incremental MD5 for the ETag plus optionally-enabled channels for the four
// S3 checksum algorithms, and the conversion between the wire checksum set
// and its serialized catalog form (the internal_info column).
package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"hash/crc32"
)

// Algorithm identifies one of the S3 checksum algorithms.
type Algorithm string

const (
	CRC32  Algorithm = "crc32"
	CRC32C Algorithm = "crc32c"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
)

// Algorithms lists every supported algorithm in canonical order.
var Algorithms = []Algorithm{CRC32, CRC32C, SHA1, SHA256}

// Set carries one optional value per algorithm. Values are the standard
// base64 encoding of the raw digest bytes, as they appear in the
// x-amz-checksum-* headers. A nil field means the algorithm was not
// requested.
type Set struct {
	CRC32  *string
	CRC32C *string
	SHA1   *string
	SHA256 *string
}

// Get returns the value for one algorithm.
func (s Set) Get(a Algorithm) *string {
	switch a {
	case CRC32:
		return s.CRC32
	case CRC32C:
		return s.CRC32C
	case SHA1:
		return s.SHA1
	case SHA256:
		return s.SHA256
	}
	return nil
}

// set stores a value for one algorithm.
func (s *Set) set(a Algorithm, v string) {
	switch a {
	case CRC32:
		s.CRC32 = &v
	case CRC32C:
		s.CRC32C = &v
	case SHA1:
		s.SHA1 = &v
	case SHA256:
		s.SHA256 = &v
	}
}

// Enabled returns the algorithms with a value present, in canonical order.
func (s Set) Enabled() []Algorithm {
	var out []Algorithm
	for _, a := range Algorithms {
		if s.Get(a) != nil {
			out = append(out, a)
		}
	}
	return out
}

// IsZero reports whether no algorithm has a value.
func (s Set) IsZero() bool {
	return s.CRC32 == nil && s.CRC32C == nil && s.SHA1 == nil && s.SHA256 == nil
}

// Validate compares a computed set against the client-supplied one,
// field by field. Both absent passes; any other difference is a mismatch.
// The returned error names the failing column-style key, e.g.
// "checksum_sha256 mismatch".
func Validate(computed, supplied Set) error {
	for _, a := range Algorithms {
		want := supplied.Get(a)
		got := computed.Get(a)
		switch {
		case want == nil && got == nil:
		case want == nil || got == nil:
			return fmt.Errorf("checksum_%s mismatch", a)
		case *want != *got:
			return fmt.Errorf("checksum_%s mismatch", a)
		}
	}
	return nil
}

// Hasher tees a byte stream into MD5 plus one hash per enabled algorithm.
// It implements io.Writer so it can sit in an io.MultiWriter next to the
// file writer.
type Hasher struct {
	md5  hash.Hash
	sums map[Algorithm]hash.Hash
}

// NewHasher returns a hasher with a channel per requested algorithm. MD5 is
// always computed.
func NewHasher(algorithms ...Algorithm) *Hasher {
	h := &Hasher{
		md5:  md5.New(),
		sums: make(map[Algorithm]hash.Hash, len(algorithms)),
	}
	for _, a := range algorithms {
		h.sums[a] = newHash(a)
	}
	return h
}

func newHash(a Algorithm) hash.Hash {
	switch a {
	case CRC32:
		return crc32.New(crc32.MakeTable(crc32.IEEE))
	case CRC32C:
		return crc32.New(crc32.MakeTable(crc32.Castagnoli))
	case SHA1:
		return sha1.New()
	case SHA256:
		return sha256.New()
	}
	panic(fmt.Sprintf("checksum: unknown algorithm %q", a))
}

// Write feeds p into every enabled hash. It never fails.
func (h *Hasher) Write(p []byte) (int, error) {
	_, _ = h.md5.Write(p)
	for _, sum := range h.sums {
		_, _ = sum.Write(p)
	}
	return len(p), nil
}

// Sum finalizes the stream: the lowercase hex MD5 (the ETag) and the base64
// value of every enabled algorithm.
func (h *Hasher) Sum() (etag string, set Set) {
	etag = hex.EncodeToString(h.md5.Sum(nil))
	for a, sum := range h.sums {
		set.set(a, base64.StdEncoding.EncodeToString(sum.Sum(nil)))
	}
	return etag, set
}

// internalInfo is the catalog serialization of a Set: a JSON object whose
// keys are the four checksum_* names, absent algorithms absent.
type internalInfo struct {
	CRC32  *string `json:"checksum_crc32,omitempty"`
	CRC32C *string `json:"checksum_crc32c,omitempty"`
	SHA1   *string `json:"checksum_sha1,omitempty"`
	SHA256 *string `json:"checksum_sha256,omitempty"`
}

// EncodeInternalInfo serializes a Set for the internal_info column.
func EncodeInternalInfo(s Set) (string, error) {
	raw, err := json.Marshal(internalInfo{
		CRC32:  s.CRC32,
		CRC32C: s.CRC32C,
		SHA1:   s.SHA1,
		SHA256: s.SHA256,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode internal info: %w", err)
	}
	return string(raw), nil
}

// DecodeInternalInfo reconstitutes a Set from the internal_info column.
// Unknown keys are ignored; an empty string decodes to the zero Set.
func DecodeInternalInfo(raw string) (Set, error) {
	if raw == "" {
		return Set{}, nil
	}
	var info internalInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return Set{}, fmt.Errorf("failed to decode internal info: %w", err)
	}
	return Set{
		CRC32:  info.CRC32,
		CRC32C: info.CRC32C,
		SHA1:   info.SHA1,
		SHA256: info.SHA256,
	}, nil
}
