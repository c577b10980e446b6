package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Preprocess normalizes raw pasted or dropped text into a flat string
// ready for candidate scanning. It never fails: when no heuristic
// applies the input passes through unchanged, and unparseable HTML is
// scanned as text with embedded tags.
func Preprocess(raw string, isHTML bool) string {
	if isHTML {
		raw = flattenHTML(raw)
	}

	text := stripInvisible(raw)
	text = rejoinBrokenLines(text)

	return strings.TrimSpace(collapseSpaces(text))
}

// flattenHTML extracts both anchor href values and the visible text
// content, concatenated, so linked hrefs and plain-text URLs embedded in
// the same paste are both captured.
func flattenHTML(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	var b strings.Builder

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok && href != "" {
			b.WriteString(href)
			b.WriteByte('\n')
		}
	})

	b.WriteString(doc.Text())

	return b.String()
}

// stripInvisible removes zero-width characters and maps the NBSP family
// and control characters to plain spaces. Printable Unicode outside
// these sets is kept: deleting it wholesale glues neighboring tokens
// together and corrupts adjacent URLs.
func stripInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\ufeff', '\u00ad':
			return -1
		case '\u00a0', '\u202f', '\u205f', '\u3000':
			return ' '
		case '\n', '\r':
			return r
		}

		if r < 0x20 {
			return ' '
		}

		return r
	}, s)
}

// rejoinBrokenLines repairs URLs that were wrapped across lines: when a
// line ends mid-token with no sentence punctuation and the next line
// starts with a URL-legal lower-case character, the line break is
// removed without inserting a space, reconstructing the token. All other
// line breaks become single spaces.
//
// The trailing token is tracked incrementally so the accumulated output
// is never rescanned; runtime stays linear no matter how many lines
// join.
func rejoinBrokenLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	if len(lines) == 1 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(lines[0])

	var tail tokenTail
	tail.reset(lines[0])

	for _, line := range lines[1:] {
		if tail.continues(line) {
			b.WriteString(line)
			tail.extend(line)

			continue
		}

		b.WriteByte(' ')
		b.WriteString(line)
		tail.reset(line)
	}

	return b.String()
}

// tokenTail tracks the trailing whitespace-delimited token of the output
// written so far. urlish is monotone under joins: appending bytes can
// only add URL markers, never remove the ones already seen, so the
// verdict carries across joined lines without re-reading them.
type tokenTail struct {
	text   string
	urlish bool
}

func (t *tokenTail) reset(line string) {
	line = strings.TrimRight(line, " \t")
	if i := strings.LastIndexAny(line, " \t"); i >= 0 {
		line = line[i+1:]
	}

	t.text = line
	t.urlish = looksURLish(line)
}

// extend updates the tail after line was joined onto the current token.
func (t *tokenTail) extend(line string) {
	trimmed := strings.TrimRight(line, " \t")
	if trimmed == "" {
		return
	}

	if i := strings.LastIndexAny(trimmed, " \t"); i >= 0 {
		// The joined line carries whitespace of its own; the trailing
		// token starts fresh after its last space.
		t.text = trimmed[i+1:]
		t.urlish = looksURLish(t.text)

		return
	}

	// Joins only happen on URLish tails, so the verdict stands; only the
	// trailing bytes matter for the next decision.
	t.text = trimmed
}

// continues decides whether next is the continuation of a URL token
// broken at the end of the current output.
func (t *tokenTail) continues(next string) bool {
	if t.text == "" || next == "" {
		return false
	}

	last := t.text[len(t.text)-1]
	if !isURLByte(last) || strings.ContainsRune(".,;:!?", rune(last)) {
		return false
	}

	first := next[0]
	if first == ' ' || first == '\t' || (first >= 'A' && first <= 'Z') {
		// A new sentence signature, not a wrapped token.
		return false
	}

	if !isURLByte(first) {
		return false
	}

	// Only rejoin when the tail actually looks like the middle of a URL,
	// not an arbitrary hyphenated word.
	return t.urlish
}

// looksURLish reports whether token carries a URL start marker or a
// host-like interior dot.
func looksURLish(token string) bool {
	lower := strings.ToLower(token)

	if strings.Contains(lower, "://") || strings.HasPrefix(lower, "www.") {
		return true
	}

	// An interior dot between alphanumerics suggests a host name.
	for i := 1; i < len(lower)-1; i++ {
		if lower[i] == '.' && isAlnumByte(lower[i-1]) && isAlnumByte(lower[i+1]) {
			return true
		}
	}

	return false
}

// collapseSpaces reduces runs of spaces and tabs to single spaces.
// Spaces never appear inside a URL, so this cannot damage candidates.
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' {
			space = true
			continue
		}

		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}

		space = false

		b.WriteByte(c)
	}

	return b.String()
}

func isURLByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}

	return strings.IndexByte("-._~:/?#[]@!$&'()*+,;=%", c) >= 0
}

func isAlnumByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
