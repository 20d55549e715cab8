package connection

import "time"

// Result records the outcome of the most recent connectivity probe for one
// (delegate, criteria) pair. LastUpdatedAt is epoch millis to match the
// heartbeat representation delegates report in.
type Result struct {
	AccountID     string `json:"account_id"`
	DelegateID    string `json:"delegate_id"`
	Criteria      string `json:"criteria"`
	Validated     bool   `json:"validated"`
	LastUpdatedAt int64  `json:"last_updated_at"`
}

// OlderThan reports whether the result was last updated more than age ago.
func (r Result) OlderThan(age time.Duration, now time.Time) bool {
	return now.UnixMilli()-r.LastUpdatedAt > age.Milliseconds()
}
