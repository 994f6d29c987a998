package types

import "fmt"

// InboxStatus represents the processing status of an inbox record
type InboxStatus string

const (
	InboxStatusNew       InboxStatus = "New"
	InboxStatusProcessed InboxStatus = "Processed"
)

// IsValid checks if the inbox status is valid
func (s InboxStatus) IsValid() bool {
	switch s {
	case InboxStatusNew,
		InboxStatusProcessed:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the status may move to next. The only transition is
// New to Processed.
func (s InboxStatus) CanTransitionTo(next InboxStatus) bool {
	return s == InboxStatusNew && next == InboxStatusProcessed
}

// String returns the string representation of the inbox status
func (s InboxStatus) String() string {
	return string(s)
}

// ParseInboxStatus parses a string into an InboxStatus
func ParseInboxStatus(s string) (InboxStatus, error) {
	status := InboxStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid inbox status: %s", s)
	}
	return status, nil
}

// KnowledgeStatus represents the status of a knowledge node
type KnowledgeStatus string

const (
	KnowledgeStatusActive KnowledgeStatus = "Active"
)

// String returns the string representation of the knowledge status
func (s KnowledgeStatus) String() string {
	return string(s)
}
