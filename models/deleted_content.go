package models

import "encoding/json"

// DeletedContent keeps a deleted question so it can be put back at its
// original position. It is keyed by (UnitID, QuestionIndex).
type DeletedContent struct {
	UnitID         string          `json:"unitId"`
	UnitTitle      string          `json:"unitTitle"`
	UnitType       UnitType        `json:"unitType"`
	QuestionIndex  int             `json:"questionIndex"`
	QuestionData   json.RawMessage `json:"questionData"`
	DeletedBy      ActorSnapshot   `json:"deletedBy"`
	DeletedAt      int64           `json:"deletedAt"`
	DeletedAtLocal string          `json:"deletedAtLocal"`
	CanRestore     bool            `json:"canRestore"`
}
