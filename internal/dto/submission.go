package dto

// SubmissionParams captures the path parameters shared by the upload and
// status endpoints.
type SubmissionParams struct {
	UserID     string `uri:"userId" binding:"required"`
	Topic      string `uri:"topic" binding:"required"`
	ActivityNo int    `uri:"activityNo" binding:"required,gt=0"`
}

// SubmissionStatusDetails reports per-kind submission existence.
type SubmissionStatusDetails struct {
	PhotoSubmitted bool `json:"photoSubmitted"`
	VideoSubmitted bool `json:"videoSubmitted"`
}

// SubmissionStatusResponse mirrors the status endpoint contract.
type SubmissionStatusResponse struct {
	Submitted bool                    `json:"submitted"`
	Details   SubmissionStatusDetails `json:"details"`
}
