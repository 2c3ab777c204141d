package models

// DefaultUnitIcon is used when a unit carries no icon.
const DefaultUnitIcon = "📚"

// Unit groups the questions of one collection under a display title.
// Its identity does not depend on the collection content.
type Unit struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Type  UnitType `json:"type"`
	Icon  string   `json:"icon"`
}

// UnitView is the derived projection of a unit over the current collections.
type UnitView struct {
	Unit
	Questions []Question `json:"questions"`
}

// DefaultUnits is the unit set used when none has been persisted yet.
func DefaultUnits() []Unit {
	return []Unit{
		{ID: "1", Title: "True or False", Type: TypeTrueFalse, Icon: "✅"},
		{ID: "2", Title: "Single Choice", Type: TypeSingleChoice, Icon: "🔘"},
		{ID: "3", Title: "Multiple Choice", Type: TypeMultiChoice, Icon: "☑️"},
		{ID: "4", Title: "Questions and Answers", Type: TypeQA, Icon: DefaultUnitIcon},
	}
}
