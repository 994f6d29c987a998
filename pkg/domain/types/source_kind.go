package types

import "fmt"

// SourceKind is the kind of raw material a capture was made from
type SourceKind string

const (
	SourceKindText  SourceKind = "text"
	SourceKindURL   SourceKind = "url"
	SourceKindImage SourceKind = "image"
)

// IsValid checks if the source kind is valid
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceKindText,
		SourceKindURL,
		SourceKindImage:
		return true
	default:
		return false
	}
}

// String returns the string representation of the source kind
func (k SourceKind) String() string {
	return string(k)
}

// ParseSourceKind parses a string into a SourceKind
func ParseSourceKind(s string) (SourceKind, error) {
	kind := SourceKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid source kind: %s", s)
	}
	return kind, nil
}
