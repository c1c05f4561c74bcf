// Package device labels and fingerprints the user agent a refresh token was
// issued to.
package device

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/mssola/useragent"

	"guardian/internal/auth/models"
	"guardian/pkg/requestcontext"
)

const unknownDevice = "Unknown Device"

// Service derives device metadata for token records. Fingerprinting can be
// switched off per deployment.
type Service struct {
	fingerprinting bool
}

func NewService(fingerprinting bool) *Service {
	return &Service{fingerprinting: fingerprinting}
}

// ParseUserAgent renders a "Browser on OS" label.
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return unknownDevice
	}
	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	osName := ua.OS()
	if browser == "" {
		browser = "Unknown Browser"
	}
	if osName == "" {
		osName = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + strings.TrimSpace(osName))
}

// ComputeFingerprint hashes browser, major version, and OS so minor updates
// keep the same fingerprint.
func (s *Service) ComputeFingerprint(raw string) string {
	if !s.fingerprinting || raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	browser, version := ua.Browser()
	major, _, _ := strings.Cut(version, ".")
	sum := sha256.Sum256([]byte(browser + "|" + major + "|" + ua.OS() + "|" + ua.Platform()))
	return hex.EncodeToString(sum[:])
}

// CompareFingerprints reports whether stored and current match; drift is
// true when both are set and differ.
func (s *Service) CompareFingerprints(stored, current string) (matched bool, drift bool) {
	if stored == "" || current == "" {
		return stored == current, false
	}
	matched = subtle.ConstantTimeCompare([]byte(stored), []byte(current)) == 1
	return matched, !matched
}

// Metadata builds the device record for a token minted in ctx. source names
// the calling surface ("web", "app", ...).
func (s *Service) Metadata(ctx context.Context, source string) models.DeviceMetadata {
	ua := requestcontext.UserAgent(ctx)
	return models.DeviceMetadata{
		DeviceName: ParseUserAgent(ua),
		IP:         requestcontext.ClientIP(ctx),
		Source:     source,
		UserAgent:  ua,
	}
}
