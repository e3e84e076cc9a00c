package history

import "time"

// Outcome of a successful extraction; failures use the failure kind name.
const OutcomeOK = "ok"

// Record is one extraction attempt.
type Record struct {
	ID         string        `json:"id"`
	SourceName string        `json:"source_name"`
	SourceSize int64         `json:"source_size"`
	Digest     string        `json:"digest"`
	SplitPoint int64         `json:"split_point"` // -1 when the extraction failed
	Outcome    string        `json:"outcome"`
	Strategy   string        `json:"strategy"`
	PhotoMIME  string        `json:"photo_mime,omitempty"`
	Cached     bool          `json:"cached"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	CreatedAt  time.Time     `json:"created_at"`
}

// OK reports whether the extraction succeeded.
func (r *Record) OK() bool {
	return r.Outcome == OutcomeOK
}
