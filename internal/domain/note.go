package domain

import "time"

// Note is a single Zettelkasten note.
//
// ID is the internal, globally unique identifier. LocalID is the number the
// owner sees: it starts at 1 for every user and grows with each new note.
type Note struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	LocalID   int64      `json:"local_id"`
	Title     string     `json:"title"`
	Text      string     `json:"text"` // Markdown
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
	Tags      TagSet     `json:"-"`
}

// TagTexts returns the texts of the note's tags in ascending order.
func (n *Note) TagTexts() []string {
	return n.Tags.Texts()
}

// NoteLink is the partial view of a note returned by backlink queries.
type NoteLink struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	LocalID int64  `json:"local_id"`
	Title   string `json:"title"`
}

// NoteUpdate carries the desired state of a note after an edit.
// Each field is compared against the stored note; only differences are written.
type NoteUpdate struct {
	Title string
	Text  string
	Tags  []string
}

// UpdateStatus is the outcome of a note update.
type UpdateStatus int

const (
	// UpdateStatusUpdated means at least one field or tag changed and was saved.
	UpdateStatusUpdated UpdateStatus = iota
	// UpdateStatusNoChange means the update matched the stored note exactly.
	UpdateStatusNoChange
	// UpdateStatusNotFound means the note does not exist.
	UpdateStatusNotFound
)

// String returns the lowercase name of the status.
func (s UpdateStatus) String() string {
	switch s {
	case UpdateStatusUpdated:
		return "updated"
	case UpdateStatusNoChange:
		return "unchanged"
	case UpdateStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// UpdateResult is returned by note updates. Note is set only for
// UpdateStatusUpdated.
type UpdateResult struct {
	Status UpdateStatus
	Note   *Note
}

// Updated returns a result for a saved update.
func Updated(n *Note) UpdateResult {
	return UpdateResult{Status: UpdateStatusUpdated, Note: n}
}

// NoChange returns a result for an update that had nothing to write.
func NoChange() UpdateResult {
	return UpdateResult{Status: UpdateStatusNoChange}
}

// NotFound returns a result for an update of a missing note.
func NotFound() UpdateResult {
	return UpdateResult{Status: UpdateStatusNotFound}
}
