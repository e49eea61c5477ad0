// Package endpoint turns catalog endpoint templates into absolute URLs that
// match the transport the requesting client used.
package endpoint

import (
	"net/url"
	"strings"
)

// Placeholder is replaced by the requested release version.
const Placeholder = "{version}"

// Normalize substitutes the release version into template and anchors the
// result to origin. Bare paths get origin's scheme and authority. Absolute
// http(s) and ws(s) URLs keep their path, query and fragment but take the
// origin's authority and a scheme mirroring the origin's security. Other
// schemes only get the version substituted.
//
// The template is classified before the version goes in, and the version is
// path-escaped, so a version can never change how the result is read.
func Normalize(template, version string, origin Origin) string {
	scheme, rest := splitScheme(template)

	switch strings.ToLower(scheme) {
	case "":
		if strings.HasPrefix(rest, "//") {
			return origin.httpScheme() + "://" + origin.Authority() + substitute(stripAuthority(rest), version)
		}
		path := substitute(rest, version)
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return origin.httpScheme() + "://" + origin.Authority() + path
	case "http", "https":
		return origin.httpScheme() + "://" + origin.Authority() + substitute(stripAuthority(rest), version)
	case "ws", "wss":
		return origin.wsScheme() + "://" + origin.Authority() + substitute(stripAuthority(rest), version)
	default:
		return strings.ReplaceAll(template, Placeholder, version)
	}
}

func substitute(s, version string) string {
	return strings.ReplaceAll(s, Placeholder, url.PathEscape(version))
}

// splitScheme splits "scheme:rest" the way RFC 3986 reads a URI reference:
// a scheme is a letter followed by letters, digits, '+', '-' or '.', ended by
// the first ':'. Anything else is a relative reference with no scheme.
func splitScheme(raw string) (scheme, rest string) {
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' || c == '+' || c == '-' || c == '.':
			if i == 0 {
				return "", raw
			}
		case c == ':':
			if i == 0 {
				return "", raw
			}
			return raw[:i], raw[i+1:]
		default:
			return "", raw
		}
	}
	return "", raw
}

// stripAuthority drops a leading "//authority" and returns the path, query
// and fragment that follow it.
func stripAuthority(rest string) string {
	if !strings.HasPrefix(rest, "//") {
		return rest
	}
	rest = rest[2:]
	if idx := strings.IndexAny(rest, "/?#"); idx >= 0 {
		return rest[idx:]
	}
	return ""
}
