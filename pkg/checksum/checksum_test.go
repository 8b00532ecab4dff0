package checksum

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestHasherKnownVectors(t *testing.T) {
	h := NewHasher(CRC32, CRC32C, SHA1, SHA256)
	if _, err := h.Write([]byte("hello")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	etag, set := h.Sum()

	if etag != "5d41402abc4b2a76b9719d911017c592" {
		t.Errorf("etag = %q, want md5 of \"hello\"", etag)
	}

	cases := []struct {
		algorithm Algorithm
		want      string
	}{
		{CRC32, "NhCmhg=="},
		{CRC32C, "mnG7TA=="},
		{SHA1, "qvTGHdzF6KLavt4PO0gs2a6pQ00="},
		{SHA256, "LPJNul+wow4m6DsqxbninhsWHlwfp0JecwQzYpOLmCQ="},
	}
	for _, tc := range cases {
		got := set.Get(tc.algorithm)
		if got == nil {
			t.Errorf("%s: no value computed", tc.algorithm)
			continue
		}
		if *got != tc.want {
			t.Errorf("%s = %q, want %q", tc.algorithm, *got, tc.want)
		}
	}
}

func TestHasherOnlyEnabledChannels(t *testing.T) {
	h := NewHasher(SHA256)
	_, _ = h.Write([]byte("payload"))

	etag, set := h.Sum()
	if etag == "" {
		t.Error("etag is always computed")
	}
	if set.SHA256 == nil {
		t.Error("sha256 was requested but not computed")
	}
	if set.CRC32 != nil || set.CRC32C != nil || set.SHA1 != nil {
		t.Errorf("unrequested channels present: %+v", set)
	}
}

func TestHasherEmptyInput(t *testing.T) {
	h := NewHasher()
	etag, set := h.Sum()
	if etag != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Errorf("etag of empty input = %q", etag)
	}
	if !set.IsZero() {
		t.Errorf("expected zero set, got %+v", set)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		computed Set
		supplied Set
		wantErr  string
	}{
		{
			name: "all absent",
		},
		{
			name:     "match",
			computed: Set{SHA256: strPtr("abc")},
			supplied: Set{SHA256: strPtr("abc")},
		},
		{
			name:     "value mismatch",
			computed: Set{SHA256: strPtr("abc")},
			supplied: Set{SHA256: strPtr("AAAA")},
			wantErr:  "checksum_sha256 mismatch",
		},
		{
			name:     "supplied without computed",
			supplied: Set{CRC32: strPtr("NhCmhg==")},
			wantErr:  "checksum_crc32 mismatch",
		},
		{
			name:     "computed without supplied",
			computed: Set{CRC32C: strPtr("mnG7TA==")},
			wantErr:  "checksum_crc32c mismatch",
		},
		{
			name:     "first mismatch wins",
			computed: Set{CRC32: strPtr("x"), SHA1: strPtr("y")},
			supplied: Set{CRC32: strPtr("z"), SHA1: strPtr("y")},
			wantErr:  "checksum_crc32 mismatch",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.computed, tc.supplied)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %q, got nil", tc.wantErr)
			}
			if err.Error() != tc.wantErr {
				t.Errorf("error = %q, want %q", err, tc.wantErr)
			}
		})
	}
}

func TestInternalInfoRoundTrip(t *testing.T) {
	in := Set{
		CRC32:  strPtr("NhCmhg=="),
		SHA256: strPtr("LPJNul+wow4m6DsqxbninhsWHlwfp0JecwQzYpOLmCQ="),
	}

	raw, err := EncodeInternalInfo(in)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.Contains(raw, "checksum_crc32") || !strings.Contains(raw, "checksum_sha256") {
		t.Errorf("serialized form missing expected keys: %s", raw)
	}
	if strings.Contains(raw, "checksum_sha1") || strings.Contains(raw, "checksum_crc32c\"") {
		t.Errorf("absent algorithms must be absent keys: %s", raw)
	}

	out, err := DecodeInternalInfo(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if *out.CRC32 != *in.CRC32 || *out.SHA256 != *in.SHA256 {
		t.Errorf("round trip changed values: %+v", out)
	}
	if out.CRC32C != nil || out.SHA1 != nil {
		t.Errorf("round trip invented values: %+v", out)
	}
}

func TestDecodeInternalInfoEmpty(t *testing.T) {
	for _, raw := range []string{"", "{}"} {
		set, err := DecodeInternalInfo(raw)
		if err != nil {
			t.Fatalf("decode %q failed: %v", raw, err)
		}
		if !set.IsZero() {
			t.Errorf("decode %q = %+v, want zero set", raw, set)
		}
	}
}

func TestDecodeInternalInfoIgnoresUnknownKeys(t *testing.T) {
	set, err := DecodeInternalInfo(`{"checksum_sha1":"abc","future_field":17}`)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if set.SHA1 == nil || *set.SHA1 != "abc" {
		t.Errorf("sha1 = %v, want abc", set.SHA1)
	}
}
