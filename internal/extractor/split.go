package extractor

import "strings"

// split divides a candidate suspected of containing stacked URLs into
// discrete candidates. It returns the candidate unchanged when no split
// applies. Fragments of one character or less are discarded, never
// emitted.
func (e *Extractor) split(c Candidate) []Candidate {
	if !e.cfg.SplitConcatenated {
		return []Candidate{c}
	}

	parts := splitAtProtocolMarkers(c.Text)
	if len(parts) == 1 {
		parts = splitAtTLDBoundaries(c.Text)
	}

	if len(parts) == 1 {
		return []Candidate{c}
	}

	out := make([]Candidate, 0, len(parts))
	offset := 0

	for _, part := range parts {
		start := strings.Index(c.Text[offset:], part) + offset
		end := start + len(part)
		offset = end

		if len(part) <= 1 {
			continue
		}

		out = append(out, Candidate{
			Text:  part,
			Start: c.Start + start,
			End:   c.Start + end,
			Kind:  KindSplitFragment,
		})
	}

	if len(out) == 0 {
		return []Candidate{c}
	}

	return out
}

// splitAtProtocolMarkers cuts the string before every protocol marker
// occurring after position zero: "https://a.comhttps://b.com" becomes
// ["https://a.com", "https://b.com"].
func splitAtProtocolMarkers(s string) []string {
	locs := schemeMarker.FindAllStringIndex(s, -1)

	cuts := make([]int, 0, len(locs))
	for _, loc := range locs {
		if loc[0] > 0 {
			cuts = append(cuts, loc[0])
		}
	}

	if len(cuts) == 0 {
		return []string{s}
	}

	parts := make([]string, 0, len(cuts)+1)
	prev := 0

	for _, cut := range cuts {
		parts = append(parts, s[prev:cut])
		prev = cut
	}

	return append(parts, s[prev:])
}

// splitAtTLDBoundaries handles stacked URLs without protocol markers:
// a recognized tld suffix immediately followed by another domain start
// ("example.comwww.other.com") is a boundary. Chained suffixes resolve
// greedy-left, keeping the longer left-hand candidate, so ".co.ukwww."
// splits after ".uk".
func splitAtTLDBoundaries(s string) []string {
	lower := asciiLower(s)

	for i := 0; i < len(lower); i++ {
		end, ok := tldBoundaryAt(lower, i)
		if !ok {
			continue
		}

		// Greedy-left: advance through immediately chained tld suffixes
		// before cutting.
		for {
			next, ok := tldBoundaryAt(lower, end)
			if !ok || next <= end {
				break
			}

			end = next
		}

		rest := splitAtTLDBoundaries(s[end:])

		return append([]string{s[:end]}, rest...)
	}

	return []string{s}
}

// tldBoundaryAt reports whether a recognized tld suffix starts at i and
// is immediately followed by the start of another URL (a www. label or a
// scheme). It returns the index just past the suffix.
func tldBoundaryAt(lower string, i int) (int, bool) {
	for _, tld := range splitTLDs {
		if !strings.HasPrefix(lower[i:], tld) {
			continue
		}

		end := i + len(tld)
		rest := lower[end:]

		if strings.HasPrefix(rest, "www.") ||
			strings.HasPrefix(rest, "http://") ||
			strings.HasPrefix(rest, "https://") ||
			strings.HasPrefix(rest, "ftp://") ||
			strings.HasPrefix(rest, "ftps://") {
			return end, true
		}

		// A chained suffix (".co" then ".uk") also counts so the caller
		// can walk to the rightmost boundary of the run.
		if strings.HasPrefix(rest, ".") {
			if next, ok := tldBoundaryAt(lower, end); ok {
				return next, true
			}
		}
	}

	return 0, false
}

// asciiLower lowercases ASCII letters only, preserving byte offsets so
// boundary indexes found on the lowered copy apply to the original.
func asciiLower(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}

		b.WriteByte(c)
	}

	return b.String()
}
