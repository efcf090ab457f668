package request

// Grant defines parameters for issuing a referral bonus.
type Grant struct {
	ReferrerID int64 `json:"referrer_id"`
	ReferredID int64 `json:"referred_id"`
}

// CreateExport defines parameters for queueing a CSV export job.
type CreateExport struct {
	Kind string `json:"kind"`
}
