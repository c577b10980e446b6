package extractor

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func mustExtractor(t *testing.T, cfg Config) *Extractor {
	t.Helper()

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	return e
}

func TestExtractBasic(t *testing.T) {
	e := mustExtractor(t, DefaultConfig())

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "explicit and bare mixed",
			input:    "Check out https://example.com and www.github.com!",
			expected: []string{"https://example.com", "https://www.github.com"},
		},
		{
			name:     "order of first appearance",
			input:    "first https://a.com then https://b.com then https://c.com",
			expected: []string{"https://a.com", "https://b.com", "https://c.com"},
		},
		{
			name:     "trailing sentence punctuation stripped",
			input:    "Go to https://example.com.",
			expected: []string{"https://example.com"},
		},
		{
			name:     "shortener without protocol",
			input:    "link: bit.ly/abc123 end",
			expected: []string{"https://bit.ly/abc123"},
		},
		{
			name:     "bare domain repaired",
			input:    "docs at golang.org/doc today",
			expected: []string{"https://golang.org/doc"},
		},
		{
			name:     "ftp kept",
			input:    "mirror: ftp://ftp.example.org/pub/",
			expected: []string{"ftp://ftp.example.org/pub/"},
		},
		{
			name:     "zero width junk inside url",
			input:    "https://exam\u200bple.com/page",
			expected: []string{"https://example.com/page"},
		},
		{
			name:     "url wrapped across lines",
			input:    "read https://example.com/long\npath now",
			expected: []string{"https://example.com/longpath"},
		},
		{
			name:     "no urls",
			input:    "nothing to see in this sentence",
			expected: []string{},
		},
		{
			name:     "empty input",
			input:    "",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := e.Extract(tt.input, false)
			if !reflect.DeepEqual(result.URLs, tt.expected) {
				t.Errorf("Extract(%q).URLs = %v, expected %v", tt.input, result.URLs, tt.expected)
			}

			if result.Stats[StatFinalCount] != len(tt.expected) {
				t.Errorf("final_count = %d, expected %d", result.Stats[StatFinalCount], len(tt.expected))
			}
		})
	}
}

func TestExtractConcatenated(t *testing.T) {
	e := mustExtractor(t, DefaultConfig())

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "glued at protocol marker",
			input:    "see https://site1.comhttps://site2.com here",
			expected: []string{"https://site1.com", "https://site2.com"},
		},
		{
			name:     "bare domain glued to explicit url",
			input:    "site1.comhttps://site2.com",
			expected: []string{"https://site1.com", "https://site2.com"},
		},
		{
			name:     "bare domains glued at tld boundary",
			input:    "example.comwww.other.com",
			expected: []string{"https://example.com", "https://www.other.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := e.Extract(tt.input, false)
			if !reflect.DeepEqual(result.URLs, tt.expected) {
				t.Errorf("Extract(%q).URLs = %v, expected %v", tt.input, result.URLs, tt.expected)
			}
		})
	}
}

func TestExtractSplitDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SplitConcatenated = false

	e := mustExtractor(t, cfg)

	result := e.Extract("https://a.comhttps://b.com", false)

	if len(result.URLs) != 0 {
		t.Errorf("URLs = %v, expected none with splitting disabled", result.URLs)
	}

	if len(result.Rejected) != 1 || result.Rejected[0].Reason != ReasonMalformed {
		t.Errorf("Rejected = %v, expected one malformed rejection", result.Rejected)
	}
}

func TestExtractDedupe(t *testing.T) {
	e := mustExtractor(t, DefaultConfig())

	result := e.Extract("https://a.com and https://A.com again", false)

	if !reflect.DeepEqual(result.URLs, []string{"https://a.com"}) {
		t.Errorf("URLs = %v, expected single https://a.com", result.URLs)
	}

	if result.Stats[StatDuplicatesRemoved] != 1 {
		t.Errorf("duplicates_removed = %d, expected 1", result.Stats[StatDuplicatesRemoved])
	}

	if len(result.Rejected) != 1 || result.Rejected[0].Reason != ReasonDuplicate {
		t.Errorf("Rejected = %v, expected one duplicate rejection", result.Rejected)
	}
}

func TestExtractDedupeDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dedupe = false

	e := mustExtractor(t, cfg)

	result := e.Extract("https://a.com https://a.com", false)

	expected := []string{"https://a.com", "https://a.com"}
	if !reflect.DeepEqual(result.URLs, expected) {
		t.Errorf("URLs = %v, expected %v", result.URLs, expected)
	}

	if result.Stats[StatDuplicatesRemoved] != 0 {
		t.Errorf("duplicates_removed = %d, expected 0", result.Stats[StatDuplicatesRemoved])
	}
}

func TestExtractProtocolRepairDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoAddProtocol = false

	e := mustExtractor(t, cfg)

	result := e.Extract("visit example.com now", false)

	if len(result.URLs) != 0 {
		t.Errorf("URLs = %v, expected none with repair disabled", result.URLs)
	}

	if len(result.Rejected) != 1 || result.Rejected[0].Reason != ReasonNoProtocol {
		t.Errorf("Rejected = %v, expected one no_protocol rejection", result.Rejected)
	}

	if result.Stats[StatInvalidRemoved] != 1 {
		t.Errorf("invalid_removed = %d, expected 1", result.Stats[StatInvalidRemoved])
	}
}

func TestExtractMaxURLLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxURLLength = 30

	e := mustExtractor(t, cfg)

	url := "https://example.com/" + strings.Repeat("a", 20)

	result := e.Extract("see "+url+" there", false)

	if len(result.URLs) != 0 {
		t.Errorf("URLs = %v, expected none over the length limit", result.URLs)
	}

	if len(result.Rejected) != 1 || result.Rejected[0].Reason != ReasonTooLong {
		t.Errorf("Rejected = %v, expected one too_long rejection", result.Rejected)
	}
}

func TestExtractHTML(t *testing.T) {
	html := `<html><body><a href="https://x.com">https://y.com</a></body></html>`

	e := mustExtractor(t, DefaultConfig())

	result := e.Extract(html, true)

	expected := []string{"https://x.com", "https://y.com"}
	if !reflect.DeepEqual(result.URLs, expected) {
		t.Errorf("URLs = %v, expected both the href and the anchor text", result.URLs)
	}
}

func TestExtractFileExtensionRejection(t *testing.T) {
	e := mustExtractor(t, DefaultConfig())

	result := e.Extract("open readme.md and setup.py first", false)

	if len(result.URLs) != 0 {
		t.Errorf("URLs = %v, expected filenames to be rejected", result.URLs)
	}

	for _, rej := range result.Rejected {
		if rej.Reason != ReasonFileExtension {
			t.Errorf("rejection %q reason = %q, expected %q", rej.Candidate, rej.Reason, ReasonFileExtension)
		}
	}
}

func TestExtractIdempotent(t *testing.T) {
	e := mustExtractor(t, DefaultConfig())

	first := e.Extract("https://a.com www.b.com bit.ly/xyz9 plus text", false)
	second := e.Extract(strings.Join(first.URLs, " "), false)

	if !reflect.DeepEqual(first.URLs, second.URLs) {
		t.Errorf("re-extraction changed the result: %v vs %v", first.URLs, second.URLs)
	}
}

func TestExtractStatsConsistency(t *testing.T) {
	e := mustExtractor(t, DefaultConfig())

	result := e.Extract("https://a.com https://a.com notaurl.xyz12345 readme.md", false)

	stats := result.Stats

	accounted := stats[StatFinalCount] + stats[StatDuplicatesRemoved] + stats[StatInvalidRemoved]
	if accounted != stats[StatCandidatesFound] {
		t.Errorf("stats do not add up: %d final + %d dup + %d invalid != %d candidates",
			stats[StatFinalCount], stats[StatDuplicatesRemoved], stats[StatInvalidRemoved],
			stats[StatCandidatesFound])
	}

	if len(result.Rejected) != stats[StatDuplicatesRemoved]+stats[StatInvalidRemoved] {
		t.Errorf("Rejected length %d does not match stats", len(result.Rejected))
	}
}

func TestExtractLargeInput(t *testing.T) {
	e := mustExtractor(t, DefaultConfig())

	padding := strings.Repeat("lorem ipsum dolor sit amet ", 3000)

	text := "https://first.example.com " + padding +
		" https://middle.example.com " + padding +
		" https://last.example.com"

	result := e.Extract(text, false)

	expected := []string{
		"https://first.example.com",
		"https://middle.example.com",
		"https://last.example.com",
	}
	if !reflect.DeepEqual(result.URLs, expected) {
		t.Errorf("URLs = %v, expected all three across scan windows", result.URLs)
	}
}

func TestExtractManyBrokenLinesReturnsPromptly(t *testing.T) {
	cfg := DefaultConfig()
	e := mustExtractor(t, cfg)

	// ~480 KB of lines that all rejoin into one giant token, well under
	// MaxTextLength. The whole call, preprocessing included, must come
	// back inside the matching time budget.
	input := strings.Repeat("a.b\n", 120000)

	start := time.Now()
	result := e.Extract(input, false)

	if elapsed := time.Since(start); elapsed > cfg.MatchTimeout {
		t.Fatalf("Extract took %v, expected under the %v budget", elapsed, cfg.MatchTimeout)
	}

	if result.Stats[StatFinalCount] != 0 {
		t.Errorf("final_count = %d, expected 0 from the glued token", result.Stats[StatFinalCount])
	}
}

func TestExtractMaxTextLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTextLength = 10

	e := mustExtractor(t, cfg)

	result := e.Extract("aaaa bbbb https://example.com", false)

	if len(result.URLs) != 0 {
		t.Errorf("URLs = %v, expected the URL to be cut off by truncation", result.URLs)
	}
}

func TestExtractDegradedMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MatchTimeout = time.Nanosecond

	e := mustExtractor(t, cfg)

	padding := strings.Repeat("lorem ipsum dolor sit amet ", 3000)

	result := e.Extract("see https://example.com/page in "+padding, false)

	if result.Stats[StatDegradedMode] != 1 {
		t.Fatalf("degraded_mode = %d, expected 1", result.Stats[StatDegradedMode])
	}

	if !reflect.DeepEqual(result.URLs, []string{"https://example.com/page"}) {
		t.Errorf("URLs = %v, expected the explicit URL to survive degraded mode", result.URLs)
	}
}

func TestScanExplicitOnly(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "plain explicit urls",
			input:    "see https://a.com and FTP://b.org/x here",
			expected: []string{"https://a.com", "FTP://b.org/x"},
		},
		{
			name:     "unknown scheme skipped",
			input:    "gopher://old.example.com stays out",
			expected: nil,
		},
		{
			name:     "marker inside a word skipped",
			input:    "weirdhttps://not.example.com token",
			expected: nil,
		},
		{
			name:     "no markers",
			input:    "www.example.com has no marker",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, c := range scanExplicitOnly(tt.input) {
				got = append(got, c.Text)
			}

			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("scanExplicitOnly(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max url length", func(c *Config) { c.MaxURLLength = 0 }},
		{"negative max url length", func(c *Config) { c.MaxURLLength = -1 }},
		{"empty protocol list", func(c *Config) { c.SupportedProtocols = nil }},
		{"protocol with separator", func(c *Config) { c.SupportedProtocols = []string{"https://"} }},
		{"empty protocol entry", func(c *Config) { c.SupportedProtocols = []string{""} }},
		{"zero match timeout", func(c *Config) { c.MatchTimeout = 0 }},
		{"negative max text length", func(c *Config) { c.MaxTextLength = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			if _, err := New(cfg); err == nil {
				t.Error("expected a configuration error, got nil")
			}
		})
	}

	if _, err := New(DefaultConfig()); err != nil {
		t.Errorf("default config rejected: %v", err)
	}
}

func TestExtractFunction(t *testing.T) {
	result, err := Extract("ping https://example.com", false, DefaultConfig())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if !reflect.DeepEqual(result.URLs, []string{"https://example.com"}) {
		t.Errorf("URLs = %v, expected [https://example.com]", result.URLs)
	}

	if _, err := Extract("x", false, Config{}); err == nil {
		t.Error("expected zero config to be rejected")
	}
}
