package extractor

import (
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// scanWindow is the chunk size for pattern matching on large inputs.
// Windows overlap by MaxURLLength so no candidate can straddle a seam
// unseen.
const scanWindow = 64 << 10

// Extractor runs the extraction pipeline with a fixed configuration. It
// is safe for concurrent use: all per-call state lives on the stack of
// Extract.
type Extractor struct {
	cfg       Config
	protocols map[string]bool
	patterns  []scanPattern
}

// New builds an Extractor, failing fast on configuration errors.
func New(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Extractor{
		cfg:       cfg,
		protocols: cfg.protocolSet(),
		patterns:  scanPatterns(),
	}, nil
}

// Extract is a convenience wrapper for one-shot callers.
func Extract(text string, isHTML bool, cfg Config) (*Result, error) {
	e, err := New(cfg)
	if err != nil {
		return nil, err
	}

	return e.Extract(text, isHTML), nil
}

// Extract runs the full pipeline: preprocess, scan for candidates,
// split stacked candidates, then validate and normalize each one. It
// never fails; hostile or empty input yields an empty result.
func (e *Extractor) Extract(text string, isHTML bool) *Result {
	original := text

	if e.cfg.MaxTextLength > 0 && len(text) > e.cfg.MaxTextLength {
		log.Warn().
			Int("size", len(text)).
			Int("limit", e.cfg.MaxTextLength).
			Msg("input exceeds size limit, truncating before scan")

		text = text[:e.cfg.MaxTextLength]
	}

	clean := Preprocess(text, isHTML)

	scanned, degraded := e.scanWithTimeout(clean)

	candidates := make([]Candidate, 0, len(scanned))
	for _, c := range scanned {
		candidates = append(candidates, e.split(c)...)
	}

	result := &Result{
		OriginalText: original,
		URLs:         []string{},
		Stats:        make(map[string]int, 5),
	}

	seen := make(map[string]bool, len(candidates))
	duplicates := 0
	invalid := 0

	for _, c := range candidates {
		normalized, reason, ok := e.normalize(c)
		if !ok {
			invalid++
			result.Rejected = append(result.Rejected, Rejection{Candidate: c.Text, Reason: reason})

			continue
		}

		if seen[normalized] && e.cfg.Dedupe {
			duplicates++
			result.Rejected = append(result.Rejected, Rejection{Candidate: c.Text, Reason: ReasonDuplicate})

			continue
		}

		seen[normalized] = true
		result.URLs = append(result.URLs, normalized)
	}

	result.Stats[StatCandidatesFound] = len(candidates)
	result.Stats[StatDuplicatesRemoved] = duplicates
	result.Stats[StatInvalidRemoved] = invalid
	result.Stats[StatFinalCount] = len(result.URLs)

	if degraded {
		result.Stats[StatDegradedMode] = 1
	}

	log.Debug().
		Int("candidates", len(candidates)).
		Int("urls", len(result.URLs)).
		Int("rejected", len(result.Rejected)).
		Msg("extraction complete")

	return result
}

// scanWithTimeout races the full pattern scan against the configured
// timeout. All patterns are RE2 and linear-time, so expiry indicates an
// extreme input rather than backtracking; the fallback rescans with the
// hand-written explicit-protocol scanner so obvious URLs still come out.
func (e *Extractor) scanWithTimeout(text string) ([]Candidate, bool) {
	done := make(chan []Candidate, 1)

	go func() {
		done <- e.scan(text)
	}()

	select {
	case candidates := <-done:
		return candidates, false
	case <-time.After(e.cfg.MatchTimeout):
		log.Warn().
			Dur("timeout", e.cfg.MatchTimeout).
			Int("size", len(text)).
			Msg("pattern scan timed out, degrading to explicit-protocol scan")

		return scanExplicitOnly(text), true
	}
}

// rawMatch pairs a located candidate with its pattern priority for
// overlap resolution.
type rawMatch struct {
	c        Candidate
	priority int
}

// scan locates candidates across the whole input, windowing large texts
// so regexp working memory stays bounded.
func (e *Extractor) scan(text string) []Candidate {
	overlap := e.cfg.MaxURLLength

	if len(text) <= scanWindow || overlap*2 >= scanWindow {
		return resolveOverlaps(e.matchAll(text, 0))
	}

	step := scanWindow - overlap

	var raw []rawMatch

	for base := 0; ; base += step {
		end := base + scanWindow
		if end >= len(text) {
			raw = append(raw, e.matchAll(text[base:], base)...)

			break
		}

		raw = append(raw, e.matchAll(text[base:end], base)...)
	}

	return resolveOverlaps(dedupeSpans(raw))
}

// matchAll runs every pattern over one window and returns the raw
// matches with offsets shifted to the full input.
func (e *Extractor) matchAll(window string, base int) []rawMatch {
	var raw []rawMatch

	for _, p := range e.patterns {
		for _, loc := range p.re.FindAllStringIndex(window, -1) {
			start, end := loc[0], loc[1]

			// A bare domain glued to the scheme of the next URL
			// ("a.comhttps://b.com") matches short of the marker; extend
			// it so the splitter sees the whole stacked token.
			if p.kind == KindBareDomain {
				end = extendSchemeSuffix(window, end)
			}

			raw = append(raw, rawMatch{
				c: Candidate{
					Text:  window[start:end],
					Start: base + start,
					End:   base + end,
					Kind:  p.kind,
				},
				priority: p.priority,
			})
		}
	}

	return raw
}

// extendSchemeSuffix grows a match that ends in a scheme name directly
// followed by "://" to cover the rest of the URL run.
func extendSchemeSuffix(window string, end int) int {
	if !strings.HasPrefix(window[end:], "://") {
		return end
	}

	tail := asciiLower(window[max(0, end-5):end])
	if !strings.HasSuffix(tail, "http") && !strings.HasSuffix(tail, "https") &&
		!strings.HasSuffix(tail, "ftp") && !strings.HasSuffix(tail, "ftps") {
		return end
	}

	j := end + 3
	for j < len(window) && isRunByte(window[j]) {
		j++
	}

	return j
}

// resolveOverlaps picks the surviving candidates from overlapping raw
// matches: earliest start wins, then longest span, then pattern
// priority. Survivors come back sorted by position.
func resolveOverlaps(raw []rawMatch) []Candidate {
	sort.SliceStable(raw, func(i, j int) bool {
		a, b := raw[i], raw[j]
		if a.c.Start != b.c.Start {
			return a.c.Start < b.c.Start
		}

		if a.c.End != b.c.End {
			return a.c.End > b.c.End
		}

		return a.priority < b.priority
	})

	out := make([]Candidate, 0, len(raw))
	lastEnd := 0

	for _, m := range raw {
		if m.c.Start < lastEnd {
			continue
		}

		out = append(out, m.c)
		lastEnd = m.c.End
	}

	return out
}

// dedupeSpans removes duplicate matches produced by overlapping scan
// windows seeing the same candidate.
func dedupeSpans(raw []rawMatch) []rawMatch {
	type span struct{ start, end int }

	seen := make(map[span]bool, len(raw))
	out := raw[:0]

	for _, m := range raw {
		key := span{m.c.Start, m.c.End}
		if seen[key] {
			continue
		}

		seen[key] = true

		out = append(out, m)
	}

	return out
}

// scanExplicitOnly is the degraded-mode scanner: a single linear pass
// with no regexp machinery that finds only URLs carrying an explicit
// protocol marker.
func scanExplicitOnly(text string) []Candidate {
	var out []Candidate

	i := 0

	for {
		rel := strings.Index(text[i:], "://")
		if rel < 0 {
			break
		}

		marker := i + rel

		start := -1

		for _, scheme := range [...]string{"https", "http", "ftps", "ftp"} {
			n := len(scheme)
			if marker < n || asciiLower(text[marker-n:marker]) != scheme {
				continue
			}

			if marker > n && isAlnumByte(text[marker-n-1]) {
				continue
			}

			start = marker - n

			break
		}

		if start < 0 {
			i = marker + 3

			continue
		}

		end := marker + 3
		for end < len(text) && isRunByte(text[end]) {
			end++
		}

		out = append(out, Candidate{
			Text:  text[start:end],
			Start: start,
			End:   end,
			Kind:  KindExplicitProtocol,
		})

		i = end
	}

	return out
}

// isRunByte reports whether a byte may appear inside a URL run; it
// mirrors the negated character class the patterns use. Bytes outside
// ASCII are part of the run, matching how the regexps treat multibyte
// runes.
func isRunByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f',
		'<', '>', '"', '{', '}', '|', '\\', '^', '`', '[', ']':
		return false
	}

	return true
}
