package extractor

// CandidateKind tags how a candidate was matched, which later stages use
// to decide how much repair it is allowed.
type CandidateKind string

const (
	KindExplicitProtocol CandidateKind = "explicit-protocol"
	KindBareDomain       CandidateKind = "bare-domain"
	KindShortener        CandidateKind = "shortener"
	KindSplitFragment    CandidateKind = "split-fragment"
)

// Candidate is a URL-shaped substring located in the input before
// validation. Offsets refer to the preprocessed text and exist for
// diagnostics and ordering only; a Candidate does not outlive the
// extraction call that produced it.
type Candidate struct {
	Text  string        `json:"text"`
	Start int           `json:"start"`
	End   int           `json:"end"`
	Kind  CandidateKind `json:"kind"`
}

// RejectReason classifies why a candidate was filtered out.
type RejectReason string

const (
	ReasonNoProtocol          RejectReason = "no_protocol"
	ReasonUnsupportedProtocol RejectReason = "unsupported_protocol"
	ReasonTooLong             RejectReason = "too_long"
	ReasonMalformed           RejectReason = "malformed"
	ReasonIncomplete          RejectReason = "incomplete"
	ReasonDuplicate           RejectReason = "duplicate"
	ReasonFileExtension       RejectReason = "file_extension"
)

// Rejection records one filtered candidate together with its cause.
type Rejection struct {
	Candidate string       `json:"candidate"`
	Reason    RejectReason `json:"reason"`
}

// Keys present in Result.Stats.
const (
	StatCandidatesFound   = "candidates_found"
	StatDuplicatesRemoved = "duplicates_removed"
	StatInvalidRemoved    = "invalid_removed"
	StatFinalCount        = "final_count"
	StatDegradedMode      = "degraded_mode"
)

// Result is the complete outcome of one extraction call. URLs holds the
// accepted, normalized URLs in first-occurrence order. A Result is fully
// determined by (OriginalText, Config) and is immutable once returned.
type Result struct {
	OriginalText string         `json:"original_text"`
	URLs         []string       `json:"urls"`
	Rejected     []Rejection    `json:"rejected,omitempty"`
	Stats        map[string]int `json:"stats"`
}
