package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

// GenerateETag generates a strong ETag for the given content
func GenerateETag(content []byte) string {
	hash := sha256.Sum256(content)
	return fmt.Sprintf(`"%s"`, hex.EncodeToString(hash[:16]))
}

// ParseIfNoneMatch splits an If-None-Match header into its entity tags
func ParseIfNoneMatch(header string) []string {
	var etags []string
	for _, part := range strings.Split(header, ",") {
		if part = strings.TrimSpace(part); part != "" {
			etags = append(etags, part)
		}
	}
	return etags
}

// MatchesETag reports whether etag matches any candidate using weak comparison
func MatchesETag(etag string, candidates []string) bool {
	want := strings.TrimPrefix(etag, "W/")
	for _, c := range candidates {
		if c == "*" || strings.TrimPrefix(c, "W/") == want {
			return true
		}
	}
	return false
}

// NotModified reports whether the request's If-None-Match matches etag
func NotModified(r *http.Request, etag string) bool {
	header := r.Header.Get("If-None-Match")
	if header == "" || etag == "" {
		return false
	}
	return MatchesETag(etag, ParseIfNoneMatch(header))
}

// SetCacheHeaders sets ETag and Cache-Control on the response
func SetCacheHeaders(w http.ResponseWriter, etag, cacheControl string) {
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	if cacheControl != "" {
		w.Header().Set("Cache-Control", cacheControl)
	}
}
