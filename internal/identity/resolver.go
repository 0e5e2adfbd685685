// Package identity derives stable job keys and source tags from posting URLs.
//
// A key is "{platform}_{id}" when the URL belongs to a known job board that
// exposes a native posting ID, and "hash_{16 hex}" otherwise. Hash keys
// fingerprint the canonical host and path together with the title and
// company, so for unknown boards a later edit to the title or company yields
// a different key. That is an accepted limitation.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/runnerr0/jobtrack/internal/apperr"
	"github.com/runnerr0/jobtrack/internal/canonical"
)

const (
	hashKeyPrefix  = "hash_"
	hashKeyLength  = 16
	fingerprintSep = "|"
)

// Metadata is the optional page metadata that feeds the hash fallback.
type Metadata struct {
	Title   string
	Company string
}

// Resolver derives job keys. The zero value is not usable; use NewResolver.
type Resolver struct {
	platforms []Platform
	newHash   func() hash.Hash
}

// NewResolver returns a Resolver over the Platforms table. A nil newHash
// selects SHA-256.
func NewResolver(newHash func() hash.Hash) *Resolver {
	if newHash == nil {
		newHash = sha256.New
	}
	return &Resolver{platforms: Platforms, newHash: newHash}
}

var defaultResolver = NewResolver(nil)

// ResolveJobKey derives the job key for rawURL with the default Resolver.
func ResolveJobKey(rawURL string, meta Metadata) (string, error) {
	return defaultResolver.Resolve(rawURL, meta)
}

// Resolve returns the platform key for rawURL if one can be extracted, and
// the hash fallback key otherwise. The only error is a digest failure.
func (r *Resolver) Resolve(rawURL string, meta Metadata) (string, error) {
	canon := canonical.Canonicalize(rawURL)

	host, path := "", rawURL
	if u, ok := canonical.Parse(canon); ok {
		if key, ok := platformKey(r.platforms, u); ok {
			return key, nil
		}
		host, path = u.Hostname(), u.Path
	}

	fingerprint := strings.ToLower(strings.Join([]string{
		host,
		path,
		strings.TrimSpace(meta.Title),
		strings.TrimSpace(meta.Company),
	}, fingerprintSep))

	h := r.newHash()
	if _, err := io.WriteString(h, fingerprint); err != nil {
		return "", apperr.Internal("could not track this job", fmt.Errorf("digest: %w", err))
	}
	sum := hex.EncodeToString(h.Sum(nil))
	if len(sum) < hashKeyLength {
		return "", apperr.Internal("could not track this job", fmt.Errorf("digest too short: %d hex chars", len(sum)))
	}

	return hashKeyPrefix + sum[:hashKeyLength], nil
}

// DetectSource returns the tag of the first platform whose host matches
// rawURL, or SourceManual.
func DetectSource(rawURL string) string {
	host, ok := canonical.Hostname(rawURL)
	if !ok {
		return SourceManual
	}
	for _, p := range Platforms {
		if p.MatchesHost(host) {
			return p.Tag
		}
	}
	return SourceManual
}

// IsHashKey reports whether key came from the hash fallback.
func IsHashKey(key string) bool {
	return strings.HasPrefix(key, hashKeyPrefix)
}
