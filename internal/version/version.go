// Package version parses and compares version strings, both of ossl builds
// and of the cryptography library a build talks to.
package version

import (
	"fmt"
	"strings"
)

// MinimumLibrary is the oldest OpenSSL release whose error API is supported.
const MinimumLibrary = "1.0.2"

// Library is what a library version banner says about the release.
type Library struct {
	// Banner is the text the library reports, e.g.
	// "OpenSSL 3.0.13 30 Jan 2024".
	Banner string
	// Version is the numeric release, e.g. "3.0.13". Empty when the banner
	// carries none, as with BoringSSL.
	Version string
	// Supported is false only when Version is known and older than
	// MinimumLibrary.
	Supported bool
}

// ParseLibrary extracts the release number from a library banner.
func ParseLibrary(banner string) Library {
	lib := Library{Banner: banner, Supported: true}
	for _, field := range strings.Fields(banner) {
		if field == "" || field[0] < '0' || field[0] > '9' || !strings.Contains(field, ".") {
			continue
		}
		lib.Version = field
		break
	}
	if lib.Version != "" {
		lib.Supported = CompareVersions(lib.Version, MinimumLibrary) >= 0
	}
	return lib
}

// CompareVersions compares two version strings
// Returns:
//   - 1 if v1 > v2
//   - 0 if v1 == v2
//   - -1 if v1 < v2
//
// Development builds and commit hashes sort before every release.
func CompareVersions(v1, v2 string) int {
	v1 = strings.TrimPrefix(v1, "v")
	v2 = strings.TrimPrefix(v2, "v")

	dev1, dev2 := isDev(v1), isDev(v2)
	switch {
	case dev1 && dev2:
		return 0
	case dev1:
		return -1
	case dev2:
		return 1
	}

	p1, p2 := parseVersion(v1), parseVersion(v2)
	for i := 0; i < 3; i++ {
		a, b := part(p1, i), part(p2, i)
		if a != b {
			if a > b {
				return 1
			}
			return -1
		}
	}
	return 0
}

func isDev(v string) bool {
	return v == "" || v == "dev" || isCommitHash(v)
}

func part(parts []int, i int) int {
	if i < len(parts) {
		return parts[i]
	}
	return 0
}

// parseVersion parses the leading digits of each dotted component, so an
// OpenSSL letter release such as "1.1.1w" reads as 1.1.1.
func parseVersion(version string) []int {
	if idx := strings.IndexAny(version, "-+"); idx != -1 {
		version = version[:idx]
	}

	parts := strings.Split(version, ".")
	result := make([]int, 0, len(parts))
	for _, p := range parts {
		var num int
		if _, err := fmt.Sscanf(p, "%d", &num); err == nil {
			result = append(result, num)
		}
	}
	return result
}

// NormalizeVersion removes a 'v' prefix, whitespace, and any pre-release or
// build metadata suffix (e.g. -rc1, -dirty, +build).
func NormalizeVersion(version string) string {
	if idx := strings.IndexAny(version, "-+"); idx != -1 {
		version = version[:idx]
	}
	for {
		trimmed := strings.TrimLeft(strings.TrimSpace(version), "v")
		if trimmed == version {
			return version
		}
		version = trimmed
	}
}

// isCommitHash reports whether s looks like an abbreviated or full git
// commit: 7-40 hex digits with at least one letter, so purely numeric
// versions such as "2024010100" are not mistaken for one.
func isCommitHash(s string) bool {
	s = strings.TrimSuffix(s, "-dirty")
	if len(s) < 7 || len(s) > 40 {
		return false
	}

	hasLetter := false
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
			hasLetter = true
		default:
			return false
		}
	}
	return hasLetter
}
