package extractor

import (
	"fmt"
	"strings"
	"time"
)

// Config controls one extraction call. It is passed by value at the call
// boundary; there is no process-wide mutable toggle, so concurrent
// callers can use different configurations.
type Config struct {
	// SplitConcatenated enables splitting of stacked URLs that appear
	// with no separating whitespace ("https://a.comhttps://b.com").
	SplitConcatenated bool `json:"split_concatenated"`

	// AutoAddProtocol prepends https:// to protocol-less candidates that
	// otherwise look like a domain.
	AutoAddProtocol bool `json:"auto_add_protocol"`

	// Dedupe removes duplicate normalized URLs, preserving first-seen order.
	Dedupe bool `json:"dedupe"`

	// MaxURLLength rejects candidates longer than this after trimming.
	MaxURLLength int `json:"max_url_length"`

	// SupportedProtocols is the scheme allow-list, lower case, without "://".
	SupportedProtocols []string `json:"supported_protocols"`

	// MatchTimeout bounds pattern-matching work on pathological inputs.
	// On expiry the extractor retries with the explicit-protocol scanner
	// only and records degraded mode in the result stats.
	MatchTimeout time.Duration `json:"match_timeout"`

	// MaxTextLength truncates input beyond this many bytes before
	// scanning. Zero means no limit.
	MaxTextLength int `json:"max_text_length"`
}

// DefaultConfig returns the extraction defaults.
func DefaultConfig() Config {
	return Config{
		SplitConcatenated:  true,
		AutoAddProtocol:    true,
		Dedupe:             true,
		MaxURLLength:       2048,
		SupportedProtocols: []string{"http", "https", "ftp", "ftps"},
		MatchTimeout:       5 * time.Second,
		MaxTextLength:      1 << 20,
	}
}

// Validate reports configuration errors. These are programmer errors and
// fail fast before any per-candidate processing happens.
func (c Config) Validate() error {
	if c.MaxURLLength <= 0 {
		return fmt.Errorf("max url length must be positive, got %d", c.MaxURLLength)
	}

	if len(c.SupportedProtocols) == 0 {
		return fmt.Errorf("supported protocols must not be empty")
	}

	for _, p := range c.SupportedProtocols {
		if p == "" || strings.ContainsAny(p, ":/ ") {
			return fmt.Errorf("invalid protocol %q: expected a bare scheme like \"https\"", p)
		}
	}

	if c.MatchTimeout <= 0 {
		return fmt.Errorf("match timeout must be positive, got %v", c.MatchTimeout)
	}

	if c.MaxTextLength < 0 {
		return fmt.Errorf("max text length must not be negative, got %d", c.MaxTextLength)
	}

	return nil
}

// protocolSet returns the allow-list as a lower-case lookup set.
func (c Config) protocolSet() map[string]bool {
	set := make(map[string]bool, len(c.SupportedProtocols))
	for _, p := range c.SupportedProtocols {
		set[strings.ToLower(p)] = true
	}

	return set
}
