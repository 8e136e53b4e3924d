// Package store persists named datasets: a point list plus the method
// selection it was fitted with. Fitted models are never stored; they are
// recomputed when a dataset is loaded.
package store

// Store defines dataset persistence. Implementations must be safe for
// concurrent use.
//
// Load and Delete return ErrNotFound for unknown names. Other failures wrap
// the underlying error with context.
type Store interface {
	// Save writes a dataset, replacing any previous one with the same name.
	// The write is atomic: readers see either the old or the new content.
	Save(d *Dataset) error

	// Load reads a dataset by name.
	Load(name string) (*Dataset, error)

	// List returns metadata for every readable dataset. Unreadable entries
	// are skipped.
	List() ([]DatasetInfo, error)

	// Delete removes a dataset together with its history.
	Delete(name string) error

	// AppendHistory records one fit outcome for a dataset.
	AppendHistory(name string, entry HistoryEntry) error

	// History returns the recorded fit outcomes of a dataset, oldest first.
	// A dataset without history yields an empty slice.
	History(name string) ([]HistoryEntry, error)
}

// ErrNotFound is returned when a requested dataset does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing dataset.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	if e.Name != "" {
		return "dataset not found: " + e.Name
	}
	return "dataset not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
