package extractor

import (
	"net/url"
	"regexp"
	"strings"
)

var schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// normalize runs the validation pipeline on a single candidate and
// returns the accepted normalized URL, or the reason it was rejected.
// It never fails in any other way: every candidate resolves to one of
// the two outcomes.
func (e *Extractor) normalize(c Candidate) (string, RejectReason, bool) {
	s := trimCandidate(c.Text)
	if s == "" {
		return "", ReasonMalformed, false
	}

	if schemePrefix.FindString(s) == "" {
		if reason, ok := e.repairProtocol(&s, c.Kind); !ok {
			return "", reason, false
		}
	}

	scheme := strings.ToLower(s[:strings.Index(s, "://")])
	if !e.protocols[scheme] {
		return "", ReasonUnsupportedProtocol, false
	}

	if len(s) > e.cfg.MaxURLLength {
		return "", ReasonTooLong, false
	}

	// Checked before parsing: url.Parse rejects a truncated escape as a
	// generic parse error, which would misreport clipped URLs.
	if partialEscape.MatchString(s) {
		return "", ReasonIncomplete, false
	}

	u, reason, ok := checkStructure(s)
	if !ok {
		return "", reason, false
	}

	return rebuild(u), "", true
}

// repairProtocol prepends https:// to protocol-less candidates that look
// like a domain. Repair is gated on AutoAddProtocol; without it the
// candidate rejects as no_protocol so the caller can report why the
// input produced nothing.
func (e *Extractor) repairProtocol(s *string, kind CandidateKind) (RejectReason, bool) {
	if fileLikeToken(*s, kind) {
		return ReasonFileExtension, false
	}

	if !e.cfg.AutoAddProtocol {
		return ReasonNoProtocol, false
	}

	if !looksLikeBareDomain(*s) {
		return ReasonNoProtocol, false
	}

	*s = "https://" + *s

	return "", true
}

// trimCandidate strips surrounding whitespace and the trailing
// punctuation humans attach to pasted URLs. Closing parens, brackets,
// and braces survive when they balance an opener inside the candidate,
// so wiki-style URLs like ".../Rust_(programming_language)" keep their
// final paren.
func trimCandidate(s string) string {
	s = strings.TrimSpace(s)

	for len(s) > 0 {
		last := s[len(s)-1]

		switch last {
		case '.', ',', ';', ':', '!', '?', '\'', '"':
			s = s[:len(s)-1]
		case ')':
			if strings.Count(s, "(") >= strings.Count(s, ")") {
				return s
			}

			s = s[:len(s)-1]
		case ']':
			if strings.Count(s, "[") >= strings.Count(s, "]") {
				return s
			}

			s = s[:len(s)-1]
		case '}':
			if strings.Count(s, "{") >= strings.Count(s, "}") {
				return s
			}

			s = s[:len(s)-1]
		default:
			return s
		}
	}

	return s
}

// fileLikeToken reports whether a bare candidate is a filename mistaken
// for a host: no protocol, no path, and a final label that is a common
// file extension. Several extensions (.md, .py) are also real ccTLDs,
// so the TLD shape check alone would let them through.
func fileLikeToken(s string, kind CandidateKind) bool {
	if kind != KindBareDomain && kind != KindSplitFragment {
		return false
	}

	if strings.Contains(s, "/") || strings.HasPrefix(strings.ToLower(s), "www.") {
		return false
	}

	host := hostPart(s)

	idx := strings.LastIndexByte(host, '.')
	if idx < 0 {
		return false
	}

	return blacklistExtensions[strings.ToLower(host[idx+1:])]
}

// looksLikeBareDomain reports whether a protocol-less candidate is
// plausible enough to repair: an alphanumeric start, at least one dot,
// and a believable tld.
func looksLikeBareDomain(s string) bool {
	host := hostPart(s)
	if host == "" || !isAlnumByte(host[0]) {
		return false
	}

	if !strings.Contains(host, ".") {
		return false
	}

	return plausibleTLD(host)
}

// checkStructure parses the candidate and applies the structural sanity
// checks: a real dotted host with an alphabetic tld, no raw whitespace
// or control bytes, and no repeated scheme markers left over from an
// unsplit stack.
func checkStructure(s string) (*url.URL, RejectReason, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 {
			return nil, ReasonMalformed, false
		}
	}

	if len(schemeMarker.FindAllStringIndex(s, -1)) > 1 {
		return nil, ReasonMalformed, false
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return nil, ReasonMalformed, false
	}

	host := u.Hostname()
	if host == "" || !strings.Contains(host, ".") || !plausibleTLD(host) {
		return nil, ReasonMalformed, false
	}

	return u, "", true
}

// rebuild reassembles the accepted URL with scheme and host lowercased;
// path, query, and fragment keep their case.
func rebuild(u *url.URL) string {
	var b strings.Builder

	b.WriteString(strings.ToLower(u.Scheme))
	b.WriteString("://")
	b.WriteString(strings.ToLower(u.Host))
	b.WriteString(u.EscapedPath())

	if u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(u.RawQuery)
	}

	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.EscapedFragment())
	}

	return b.String()
}
