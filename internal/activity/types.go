package activity

import "time"

// Entry is one audit record of a handled request. UserID is a weak reference
// to the acting account and may be nil for unauthenticated requests.
type Entry struct {
	ID         int64     `json:"id"`
	UserID     *int64    `json:"userId"`
	Action     string    `json:"action"`
	Method     string    `json:"method"`
	Endpoint   string    `json:"endpoint"`
	StatusCode int       `json:"statusCode"`
	UserAgent  string    `json:"userAgent,omitempty"`
	IP         string    `json:"ip,omitempty"`
	Duration   string    `json:"duration"`
	Timestamp  time.Time `json:"timestamp"`
}

// RecordID implements store.Record.
func (e *Entry) RecordID() int64 { return e.ID }

// SetRecordID implements store.Record.
func (e *Entry) SetRecordID(id int64) { e.ID = id }

// StampNew implements store.Record.
func (e *Entry) StampNew(now time.Time) {
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
}

// StampUpdated implements store.Record. Entries are append-only; nothing to refresh.
func (e *Entry) StampUpdated(time.Time) {}
