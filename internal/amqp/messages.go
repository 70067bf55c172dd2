package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Job names the background work a rebuild message requests.
type Job string

const (
	// JobIngest pulls fresh statements from the store and inserts them.
	JobIngest Job = "ingest"
	// JobReassign reapplies the rule set to every non-manual transaction.
	JobReassign Job = "reassign"
)

// RebuildMessage asks the worker to run one background job. It carries no
// payload beyond the job name; the worker reads everything else from the
// database, so a stale message can never apply stale data.
type RebuildMessage struct {
	Job       Job       `json:"job"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRebuildMessage(job Job, reason string) *RebuildMessage {
	return &RebuildMessage{
		Job:       job,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

func (m *RebuildMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RebuildMessageFromJSON(data []byte) (*RebuildMessage, error) {
	var msg RebuildMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Job {
	case JobIngest, JobReassign:
	default:
		return nil, fmt.Errorf("unknown rebuild job %q", msg.Job)
	}
	return &msg, nil
}
