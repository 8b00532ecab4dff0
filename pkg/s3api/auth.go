package s3api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/marmos91/shelf/pkg/gateway"
)

const (
	signAlgorithm   = "AWS4-HMAC-SHA256"
	unsignedPayload = "UNSIGNED-PAYLOAD"
	// streamingPrefix marks aws-chunked payload signing, which this server
	// does not speak.
	streamingPrefix = "STREAMING-"
)

type contextKey string

const accessKeyContextKey contextKey = "s3api.access_key"

// AccessKeyFrom returns the authenticated access key for the request, ""
// in anonymous mode.
func AccessKeyFrom(ctx context.Context) string {
	key, _ := ctx.Value(accessKeyContextKey).(string)
	return key
}

// withAccessKey stamps the caller identity onto the request context.
func withAccessKey(r *http.Request, accessKey string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), accessKeyContextKey, accessKey))
}

// authenticate verifies AWS Signature Version 4 against the single static
// credential. With no credential configured every request passes with the
// empty access key.
func authenticate(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Anonymous() {
				next.ServeHTTP(w, withAccessKey(r, ""))
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, r, string(gateway.CodeAccessDenied), "Access Denied.")
				return
			}

			auth, err := parseAuthorization(header)
			if err != nil {
				writeError(w, r, codeAuthorizationHeaderMalformed, err.Error())
				return
			}
			if auth.accessKey != cfg.AccessKey {
				writeError(w, r, codeInvalidAccessKeyID,
					"The AWS Access Key Id you provided does not exist in our records.")
				return
			}

			payloadHash := r.Header.Get("X-Amz-Content-Sha256")
			if strings.HasPrefix(payloadHash, streamingPrefix) {
				writeError(w, r, codeNotImplemented,
					"Chunked payload signing is not implemented.")
				return
			}
			if payloadHash == "" {
				payloadHash = unsignedPayload
			}

			want := signRequest(r, auth, cfg.SecretKey, payloadHash)
			if subtle.ConstantTimeCompare([]byte(want), []byte(auth.signature)) != 1 {
				writeError(w, r, codeSignatureDoesNotMatch,
					"The request signature we calculated does not match the signature you provided.")
				return
			}

			next.ServeHTTP(w, withAccessKey(r, auth.accessKey))
		})
	}
}

// authorization is the parsed AWS4-HMAC-SHA256 Authorization header.
type authorization struct {
	accessKey     string
	date          string // YYYYMMDD credential scope date
	region        string
	service       string
	signedHeaders []string
	signature     string
}

func parseAuthorization(header string) (*authorization, error) {
	rest, ok := strings.CutPrefix(header, signAlgorithm+" ")
	if !ok {
		return nil, &malformedAuthError{"unsupported authorization scheme"}
	}

	fields := map[string]string{}
	for _, part := range strings.Split(rest, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, &malformedAuthError{"malformed authorization field"}
		}
		fields[name] = value
	}

	credential := strings.Split(fields["Credential"], "/")
	// AKID/date/region/service/aws4_request
	if len(credential) != 5 || credential[4] != "aws4_request" {
		return nil, &malformedAuthError{"malformed credential scope"}
	}
	if fields["SignedHeaders"] == "" || fields["Signature"] == "" {
		return nil, &malformedAuthError{"missing SignedHeaders or Signature"}
	}

	return &authorization{
		accessKey:     credential[0],
		date:          credential[1],
		region:        credential[2],
		service:       credential[3],
		signedHeaders: strings.Split(fields["SignedHeaders"], ";"),
		signature:     fields["Signature"],
	}, nil
}

type malformedAuthError struct{ msg string }

func (e *malformedAuthError) Error() string { return e.msg }

// signRequest recomputes the hex SigV4 signature for the request.
func signRequest(r *http.Request, auth *authorization, secretKey, payloadHash string) string {
	canonical := strings.Join([]string{
		r.Method,
		canonicalURI(r),
		canonicalQuery(r.URL.Query()),
		canonicalHeaders(r, auth.signedHeaders),
		strings.Join(auth.signedHeaders, ";"),
		payloadHash,
	}, "\n")

	scope := strings.Join([]string{auth.date, auth.region, auth.service, "aws4_request"}, "/")
	amzDate := r.Header.Get("X-Amz-Date")
	if amzDate == "" {
		amzDate = r.Header.Get("Date")
	}

	stringToSign := strings.Join([]string{
		signAlgorithm,
		amzDate,
		scope,
		hexSHA256([]byte(canonical)),
	}, "\n")

	key := []byte("AWS4" + secretKey)
	for _, chunk := range []string{auth.date, auth.region, auth.service, "aws4_request"} {
		key = hmacSHA256(key, chunk)
	}
	return hex.EncodeToString(hmacSHA256(key, stringToSign))
}

// canonicalURI is the raw escaped path as the client signed it. S3-style
// signing does not double-encode the path.
func canonicalURI(r *http.Request) string {
	path := r.URL.EscapedPath()
	if path == "" {
		return "/"
	}
	return path
}

func canonicalQuery(query url.Values) string {
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		values := append([]string(nil), query[key]...)
		sort.Strings(values)
		for _, value := range values {
			parts = append(parts, uriEncode(key)+"="+uriEncode(value))
		}
	}
	return strings.Join(parts, "&")
}

func canonicalHeaders(r *http.Request, signedHeaders []string) string {
	var b strings.Builder
	for _, name := range signedHeaders {
		name = strings.ToLower(name)
		var value string
		if name == "host" {
			value = r.Host
		} else {
			value = strings.Join(r.Header.Values(name), ",")
		}
		b.WriteString(name)
		b.WriteString(":")
		b.WriteString(trimSpaces(value))
		b.WriteString("\n")
	}
	return b.String()
}

// trimSpaces collapses sequential whitespace, per the canonicalization
// rules.
func trimSpaces(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

// uriEncode is the AWS flavor of percent-encoding: unreserved characters
// stay, everything else becomes uppercase %XX.
func uriEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			b.WriteString("%")
			b.WriteString(strings.ToUpper(hex.EncodeToString([]byte{c})))
		}
	}
	return b.String()
}

func hexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}
