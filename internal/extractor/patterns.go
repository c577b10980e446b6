package extractor

import (
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// urlStopClass matches the run of characters a URL may contain once a
// start marker has been seen. Whitespace, angle/quote brackets, and the
// characters RFC 3986 forbids outright terminate a match; query and
// fragment punctuation (? & = # % - _ . ~ / :) is preserved.
const urlRunClass = `[^\s<>"{}|\\^` + "`" + `\[\]]`

// scanPattern is one entry of the ordered matcher set. Lower priority
// wins when two patterns produce the same span.
type scanPattern struct {
	re       *regexp.Regexp
	name     string
	kind     CandidateKind
	priority int
}

// scanPatterns returns the candidate patterns in priority order:
// explicit protocol first, then the shortener allow-list (rescuing hosts
// too short for the generic bare-domain minimums), then www hosts, then
// generic bare domains. All patterns are RE2 and therefore linear-time.
func scanPatterns() []scanPattern {
	return []scanPattern{
		{
			name:     "explicit-protocol",
			re:       regexp.MustCompile(`(?i)\b(?:https?|ftps?)://` + urlRunClass + `+`),
			kind:     KindExplicitProtocol,
			priority: 0,
		},
		{
			name:     "shortener",
			re:       regexp.MustCompile(`(?i)\b(?:bit\.ly|tinyurl\.com|t\.co|goo\.gl|short\.link|is\.gd|v\.gd|ow\.ly|buff\.ly|rebrand\.ly|tiny\.cc|shorturl\.at)/[a-zA-Z0-9]+`),
			kind:     KindShortener,
			priority: 1,
		},
		{
			name:     "www",
			re:       regexp.MustCompile(`(?i)\bwww\.` + urlRunClass + `+`),
			kind:     KindBareDomain,
			priority: 2,
		},
		{
			// Leading label must be at least two characters; very short
			// hosts are only rescued by the shortener allow-list.
			name:     "bare-domain",
			re:       regexp.MustCompile(`(?i)\b[a-z0-9][a-z0-9-]{0,61}[a-z0-9](?:\.[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?)*\.[a-z]{2,24}(?:/` + urlRunClass + `*)?`),
			kind:     KindBareDomain,
			priority: 3,
		},
	}
}

// schemeMarker locates protocol markers inside an already-matched span,
// used by the splitter and by the repeated-scheme structural check.
var schemeMarker = regexp.MustCompile(`(?i)(?:https?|ftps?)://`)

// partialEscape matches a truncated percent-escape at the end of a
// candidate (a lone "%" or "%H"), the signature of a clipped URL.
var partialEscape = regexp.MustCompile(`%[0-9A-Fa-f]?$`)

// splitTLDs are the suffixes recognized as domain boundaries when
// stacked URLs carry no protocol marker (".comwww.other.com"). Ordered
// longest-first so ".info" wins over ".in".
var splitTLDs = []string{
	".info", ".com", ".net", ".org", ".gov", ".edu", ".biz", ".dev",
	".io", ".co", ".us", ".uk", ".de", ".fr", ".jp", ".cn", ".ru",
	".au", ".ca", ".app", ".me",
}

// blacklistExtensions marks bare tokens that are almost certainly file
// names rather than hosts ("readme.md", "setup.py"): several common file
// extensions are also real ccTLDs, so the TLD shape check alone would
// pass them.
var blacklistExtensions = map[string]bool{
	"txt": true, "md": true, "png": true, "jpg": true, "jpeg": true,
	"gif": true, "svg": true, "pdf": true, "doc": true, "docx": true,
	"xls": true, "xlsx": true, "ppt": true, "pptx": true, "zip": true,
	"rar": true, "7z": true, "py": true, "js": true, "css": true,
	"html": true, "mp3": true, "mp4": true, "avi": true, "mov": true,
	"mkv": true, "exe": true, "dmg": true, "pkg": true, "deb": true,
	"rpm": true,
}

// plausibleTLD reports whether host ends in a suffix that could be a
// real public suffix: either one the ICANN section of the public suffix
// list knows, or a purely alphabetic label of 2-24 characters.
func plausibleTLD(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))

	idx := strings.LastIndexByte(host, '.')
	if idx < 0 || idx == len(host)-1 {
		return false
	}

	if _, icann := publicsuffix.PublicSuffix(host); icann {
		return true
	}

	last := host[idx+1:]
	if len(last) < 2 || len(last) > 24 {
		return false
	}

	for _, r := range last {
		if r < 'a' || r > 'z' {
			return false
		}
	}

	return true
}

// hostPart returns the authority portion of a candidate string, i.e.
// everything before the first path, query, or fragment delimiter.
func hostPart(s string) string {
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		return s[:i]
	}

	return s
}
