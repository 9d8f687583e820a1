package models

// Pending status markers carried by each staging collection.
const (
	PendingStatusAddition = "pending"
	PendingStatusEdit     = "pending_edit"
	PendingStatusDeletion = "pending_delete"
)

// PendingAddition is a proposed new class awaiting approval.
type PendingAddition struct {
	ClassRecord
	Status        string `json:"status"`
	SubmittedAt   string `json:"submittedAt"`
	ApprovalToken string `json:"approvalToken"`
}

// ToClassRecord drops status, submittedAt and approvalToken.
func (p PendingAddition) ToClassRecord() ClassRecord {
	return p.ClassRecord.Clone()
}

// PendingEdit is a full replacement proposal for a committed class.
type PendingEdit struct {
	ClassRecord
	OriginalID      string      `json:"originalId"`
	OriginalData    ClassRecord `json:"originalData"`
	Status          string      `json:"status"`
	EditRequestedAt string      `json:"editRequestedAt"`
	ApprovalToken   string      `json:"approvalToken"`
}

// ToClassRecord drops originalId, originalData, status, editRequestedAt and
// approvalToken, and resets the id to originalId.
func (p PendingEdit) ToClassRecord() ClassRecord {
	record := p.ClassRecord.Clone()
	record.ID = p.OriginalID
	return record
}

// PendingDeletion is a snapshot of a committed class proposed for removal.
type PendingDeletion struct {
	ClassRecord
	OriginalID        string `json:"originalId"`
	Status            string `json:"status"`
	DeleteRequestedAt string `json:"deleteRequestedAt"`
	ApprovalToken     string `json:"approvalToken"`
}

// PendingSnapshot groups the three staging collections.
type PendingSnapshot struct {
	Additions []PendingAddition `json:"additions"`
	Edits     []PendingEdit     `json:"edits"`
	Deletions []PendingDeletion `json:"deletions"`
}
