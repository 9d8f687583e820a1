package models

import "strings"

// CollectionKind names one of the three pending collections.
type CollectionKind string

const (
	CollectionAdditions CollectionKind = "addition"
	CollectionEdits     CollectionKind = "edit"
	CollectionDeletions CollectionKind = "deletion"
)

// EmailAction returns the action label the approval e-mail endpoint expects.
func (k CollectionKind) EmailAction() string {
	switch k {
	case CollectionEdits:
		return "edit"
	case CollectionDeletions:
		return "delete"
	default:
		return "add"
	}
}

// ApprovalAction is the decision carried by an approval link.
type ApprovalAction string

const (
	ApprovalActionApprove ApprovalAction = "approve"
	ApprovalActionReject  ApprovalAction = "reject"
)

// ParseApprovalAction validates a raw action string.
func ParseApprovalAction(raw string) (ApprovalAction, bool) {
	switch ApprovalAction(strings.ToLower(strings.TrimSpace(raw))) {
	case ApprovalActionApprove:
		return ApprovalActionApprove, true
	case ApprovalActionReject:
		return ApprovalActionReject, true
	}
	return "", false
}

// TokenMatch locates a token inside the pending collections.
type TokenMatch struct {
	Kind  CollectionKind
	Index int
}

// ApprovalOutcome describes the result of resolving an approval link.
type ApprovalOutcome struct {
	Kind         CollectionKind `json:"kind"`
	Action       ApprovalAction `json:"action"`
	ClassName    string         `json:"className"`
	ClassID      string         `json:"classId,omitempty"`
	Committed    bool           `json:"committed"`
	RemoteSynced bool           `json:"remoteSynced"`
	Notification string         `json:"notification"`
}

// SubmissionReceipt is returned to the submitter of a change.
type SubmissionReceipt struct {
	Kind          CollectionKind `json:"kind"`
	ClassID       string         `json:"classId"`
	ApprovalToken string         `json:"-"`
	RemoteSynced  bool           `json:"remoteSynced"`
	Notification  string         `json:"notification"`
}
