package record

import "errors"

// ConflictItem pairs an unpersisted candidate with the stored records it collides with.
type ConflictItem struct {
	NewEntry        Record   `json:"new_entry"`
	ExistingEntries []Record `json:"existing_entries"`
}

// ConflictBatch keeps the order in which candidates were parsed.
type ConflictBatch []ConflictItem

var ErrNoExisting = errors.New("record: conflict item has no existing entries")

// Validate checks that every item names at least one colliding record.
func (b ConflictBatch) Validate() error {
	for _, item := range b {
		if len(item.ExistingEntries) == 0 {
			return ErrNoExisting
		}
	}
	return nil
}
