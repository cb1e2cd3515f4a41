package models

type ChannelStatus string

const (
	ChannelNotAttempted ChannelStatus = "NOT_ATTEMPTED"
	ChannelSent         ChannelStatus = "SENT"
	ChannelFailed       ChannelStatus = "FAILED"
)

// ChannelResult is the per-channel half of a dispatch outcome. Reason
// is set only when Status is ChannelFailed.
type ChannelResult struct {
	Status ChannelStatus
	Reason string
}

func Sent() ChannelResult {
	return ChannelResult{Status: ChannelSent}
}

func NotAttempted() ChannelResult {
	return ChannelResult{Status: ChannelNotAttempted}
}

func Failed(reason string) ChannelResult {
	return ChannelResult{Status: ChannelFailed, Reason: reason}
}

// DispatchOutcome records what happened for one recipient in one
// alerting pass. Transport failures live here, never as errors.
type DispatchOutcome struct {
	RecipientID string
	SMS         ChannelResult
	Email       ChannelResult
}

// Delivered reports whether at least one channel went out.
func (o DispatchOutcome) Delivered() bool {
	return o.SMS.Status == ChannelSent || o.Email.Status == ChannelSent
}

// BatchResult aggregates one alerting pass across all eligible
// recipients. Counts are a commutative sum; order of completion does
// not matter.
type BatchResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}
