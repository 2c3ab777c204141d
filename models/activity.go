package models

type ActivityType string

const (
	ActivityAdd     ActivityType = "ADD"
	ActivityEdit    ActivityType = "EDIT"
	ActivityDelete  ActivityType = "DELETE"
	ActivityRestore ActivityType = "RESTORE"
)

// ActivityRecord is an append-only audit entry. ID is the store key and is
// only filled in on read.
type ActivityRecord struct {
	ID            string       `json:"id,omitempty"`
	Type          ActivityType `json:"type"`
	UserID        string       `json:"userId"`
	UserName      string       `json:"userName"`
	UserEmail     string       `json:"userEmail"`
	UserRole      Role         `json:"userRole"`
	UnitID        string       `json:"unitId"`
	UnitTitle     string       `json:"unitTitle"`
	QuestionIndex int          `json:"questionIndex"`
	QuestionText  string       `json:"questionText"`
	OldData       any          `json:"oldData"`
	NewData       any          `json:"newData"`
	Timestamp     int64        `json:"timestamp"`
	LocalTime     string       `json:"localTime"`
}

// ActivityPayload is what callers hand to the activity logger. OldData and
// NewData may be any JSON-serialisable value; they are sanitised before storage.
type ActivityPayload struct {
	UnitID        string
	UnitTitle     string
	QuestionIndex int
	QuestionText  string
	OldData       any
	NewData       any
}

// ActivityFilter narrows the activity log. Empty or "all" disables a dimension.
type ActivityFilter struct {
	Type   string `form:"type"`
	UserID string `form:"userId"`
	UnitID string `form:"unitId"`
}
