package constants

// AttemptStatus is the canonical status for a single extraction attempt.
type AttemptStatus string

// Stable values (store these exact strings).
const (
	AttemptRunning  AttemptStatus = "RUNNING"  // in progress
	AttemptAccepted AttemptStatus = "ACCEPTED" // passed the quality gate
	AttemptRejected AttemptStatus = "REJECTED" // failed the quality gate; safe to retry
	AttemptFailed   AttemptStatus = "FAILED"   // vision model failure, retry with backoff
)

// AssignmentMethod records how a category was chosen for a line item.
type AssignmentMethod string

const (
	MethodUserCorrection AssignmentMethod = "user_correction"
	MethodKeywordRule    AssignmentMethod = "keyword_rule"
	MethodDefault        AssignmentMethod = "default"
)
