package models

// Stream names carried in ProgressUpdate.Stream.
const (
	StreamRecords   = "records"
	StreamStatus    = "status"
	StreamProgress  = "progress"
	StreamErrors    = "errors"
	StreamAggregate = "aggregate"
	StreamJob       = "job"
)

// ProgressUpdate is the message pushed to websocket consumers. Data always
// holds the complete current value of the stream, never a delta.
type ProgressUpdate struct {
	Stream     string      `json:"stream"`
	Generation uint64      `json:"generation,omitempty"`
	Data       interface{} `json:"data"`
	// Optional fields used by job updates
	Message string `json:"message,omitempty"`
	Done    bool   `json:"done,omitempty"`
}
