package constants

// DocStatus is the terminal status of one processed file.
type DocStatus string

// Stable values (also used as JSON values by the API).
const (
	DocStatusSuccess DocStatus = "success"
	DocStatusError   DocStatus = "error"
	DocStatusSkipped DocStatus = "skipped"
)

// StatusKind classifies an operator-facing status message.
type StatusKind string

const (
	StatusInfo    StatusKind = "info"
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// Synthetic document type labels.
const (
	DocTypeOneShot = "One-shot Regex"
	DocTypeFailed  = "FAILED"
	DocTypeSkipped = "SKIPPED"
)

// CanonicalWidth is the column count every default-extractor row is normalized to.
const CanonicalWidth = 7

// CustomSuffix disambiguates custom parsers from built-ins with the same name.
const CustomSuffix = " (Custom)"

// CustomParsersKey is the store key holding the custom parser list.
const CustomParsersKey = "dataExtractorCustomParsers"
