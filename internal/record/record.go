// Package record defines the indexable log entry, its closed kind and
// category enumerations, and the data source the search engine builds from.
package record

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Category is the coarse classification of a record. The set is closed.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryActivity
	CategoryLearning
	CategoryWellbeing
	CategoryPlanning
)

// Categories lists every valid category in declaration order.
func Categories() []Category {
	return []Category{CategoryActivity, CategoryLearning, CategoryWellbeing, CategoryPlanning}
}

func (c Category) String() string {
	switch c {
	case CategoryActivity:
		return "activity"
	case CategoryLearning:
		return "learning"
	case CategoryWellbeing:
		return "wellbeing"
	case CategoryPlanning:
		return "planning"
	default:
		return "unknown"
	}
}

// Label is the display name indexed as search terms.
func (c Category) Label() string {
	switch c {
	case CategoryActivity:
		return "Activity"
	case CategoryLearning:
		return "Learning"
	case CategoryWellbeing:
		return "Wellbeing"
	case CategoryPlanning:
		return "Planning"
	default:
		return ""
	}
}

func (c Category) Valid() bool { return c >= CategoryActivity && c <= CategoryPlanning }

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return CategoryUnknown, fmt.Errorf("unknown category %q", s)
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Kind is the fine-grained classification of a record. Every kind belongs
// to exactly one category.
type Kind int

const (
	KindUnknown Kind = iota
	KindWorkout
	KindRun
	KindStudy
	KindReading
	KindPractice
	KindMeditation
	KindMood
	KindSleep
	KindMilestone
	KindTask
	KindNote
)

// Kinds lists every valid kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindWorkout, KindRun,
		KindStudy, KindReading, KindPractice,
		KindMeditation, KindMood, KindSleep,
		KindMilestone, KindTask, KindNote,
	}
}

// Category maps a kind to its category. The mapping is total over valid
// kinds; KindUnknown maps to CategoryUnknown.
func (k Kind) Category() Category {
	switch k {
	case KindWorkout, KindRun:
		return CategoryActivity
	case KindStudy, KindReading, KindPractice:
		return CategoryLearning
	case KindMeditation, KindMood, KindSleep:
		return CategoryWellbeing
	case KindMilestone, KindTask, KindNote:
		return CategoryPlanning
	default:
		return CategoryUnknown
	}
}

func (k Kind) String() string {
	switch k {
	case KindWorkout:
		return "workout"
	case KindRun:
		return "run"
	case KindStudy:
		return "study"
	case KindReading:
		return "reading"
	case KindPractice:
		return "practice"
	case KindMeditation:
		return "meditation"
	case KindMood:
		return "mood"
	case KindSleep:
		return "sleep"
	case KindMilestone:
		return "milestone"
	case KindTask:
		return "task"
	case KindNote:
		return "note"
	default:
		return "unknown"
	}
}

// Label is the display name; it is indexed and scored against queries.
func (k Kind) Label() string {
	switch k {
	case KindWorkout:
		return "Workout"
	case KindRun:
		return "Run"
	case KindStudy:
		return "Study Session"
	case KindReading:
		return "Reading"
	case KindPractice:
		return "Practice"
	case KindMeditation:
		return "Meditation"
	case KindMood:
		return "Mood Check-in"
	case KindSleep:
		return "Sleep"
	case KindMilestone:
		return "Milestone"
	case KindTask:
		return "Task"
	case KindNote:
		return "Note"
	default:
		return ""
	}
}

func (k Kind) Valid() bool { return k >= KindWorkout && k <= KindNote }

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Record is one short user-authored log entry.
type Record struct {
	ID        string    `json:"id"`
	ScopeID   string    `json:"scope_id,omitempty"`
	Text      string    `json:"text"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// Category is derived from Kind and never stored separately.
func (r Record) Category() Category { return r.Kind.Category() }

// MarshalJSON adds the derived category so clients need not know the
// mapping.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		plain
		Category Category `json:"category"`
	}{plain(r), r.Category()})
}
