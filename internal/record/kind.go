package record

import (
	"fmt"
	"strings"
)

// Kind selects the record category: it fixes the table, the field schema and the API paths.
type Kind int

const (
	Directory Kind = iota + 1
	Event
)

// Kinds lists every supported kind in display order.
var Kinds = []Kind{Directory, Event}

// ParseKind accepts the API slug ("annuaire", "evenement") or the plural list name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "annuaire", "directory":
		return Directory, nil
	case "evenement", "evenements", "event", "events":
		return Event, nil
	default:
		return 0, fmt.Errorf("record: unknown kind %q", s)
	}
}

func (k Kind) String() string {
	switch k {
	case Directory:
		return "annuaire"
	case Event:
		return "evenement"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) Valid() bool {
	return k == Directory || k == Event
}

// Table is the relational table backing the kind.
func (k Kind) Table() string {
	return k.String()
}

func (k Kind) ListPath() string {
	if k == Event {
		return "/evenements"
	}
	return "/annuaire"
}

func (k Kind) SubmitPath() string  { return "/process-" + k.String() }
func (k Kind) CreatePath() string  { return "/add-" + k.String() }
func (k Kind) ReplacePath() string { return "/replace-" + k.String() }

// Schema returns the ordered editable fields of the kind.
func (k Kind) Schema() Schema {
	if k == Event {
		return eventSchema
	}
	return directorySchema
}

// MatchField is the column compared by similarity during duplicate detection.
func (k Kind) MatchField() string {
	if k == Event {
		return "nom_evenement"
	}
	return "nom"
}

// PrefixField must share its first letter with the candidate for a match to count.
func (k Kind) PrefixField() string {
	if k == Event {
		return "nom_evenement"
	}
	return "prenom"
}

// Required lists the fields a parsed candidate must carry to be kept.
func (k Kind) Required() []string {
	if k == Event {
		return []string{"nom_evenement"}
	}
	return []string{"nom", "prenom"}
}
