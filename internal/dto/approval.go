package dto

// ApprovalQuery carries the parameters of an approval link.
type ApprovalQuery struct {
	Action string `form:"approvalAction"`
	Token  string `form:"approvalToken"`
}

// Present reports whether both approval parameters were supplied.
func (q ApprovalQuery) Present() bool {
	return q.Action != "" && q.Token != ""
}
