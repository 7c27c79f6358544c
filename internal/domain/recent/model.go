package recent

// ItemType is the category of a recently viewed entity.
type ItemType string

const (
	TypeAppointment ItemType = "appointment"
	TypeMedication  ItemType = "medication"
	TypeRecord      ItemType = "record"
	TypeDoctor      ItemType = "doctor"
	TypeOther       ItemType = "other"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case TypeAppointment, TypeMedication, TypeRecord, TypeDoctor, TypeOther:
		return true
	}
	return false
}

// Item is a reference to a recently viewed entity. ID and Type together form
// the uniqueness key. Timestamp is the last-viewed time in Unix milliseconds.
type Item struct {
	ID        string   `json:"id"`
	Type      ItemType `json:"type"`
	Title     string   `json:"title"`
	Subtitle  string   `json:"subtitle,omitempty"`
	Path      string   `json:"path"`
	Timestamp int64    `json:"timestamp"`
	Pinned    bool     `json:"pinned,omitempty"`
	Color     string   `json:"color,omitempty"`
}

func (i Item) sameKey(other Item) bool {
	return i.ID == other.ID && i.Type == other.Type
}

// AddRequest describes a view to record.
type AddRequest struct {
	ID       string
	Type     ItemType
	Title    string
	Subtitle string
	Path     string
	Pinned   bool
	Color    string
}

// View is the display slice of the collection.
type View struct {
	Items   []Item `json:"items"`
	Total   int    `json:"total"`
	HasMore bool   `json:"has_more"`
}
