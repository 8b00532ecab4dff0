package s3api

import (
	"net"
	"net/http"
	"strings"
)

// hostRewrite translates virtual-host-style requests into path-style ones.
// For each configured domain, a Host of {bucket}.{domain} prefixes the
// bucket onto the path; the bare domain passes through untouched.
func hostRewrite(domains []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(domains) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := r.Host
			if h, _, err := net.SplitHostPort(host); err == nil {
				host = h
			}

			for _, domain := range domains {
				if host == domain {
					break
				}
				bucket, ok := strings.CutSuffix(host, "."+domain)
				if !ok || bucket == "" || strings.Contains(bucket, ".") {
					continue
				}
				r.URL.Path = "/" + bucket + r.URL.Path
				if r.URL.RawPath != "" {
					r.URL.RawPath = "/" + bucket + r.URL.RawPath
				}
				break
			}
			next.ServeHTTP(w, r)
		})
	}
}
