package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/zettelapp/zettel-server/internal/domain"
	"github.com/zettelapp/zettel-server/internal/id"
)

// noteColumns is the ordered list of columns selected in note queries.
// Must match the scan order in scanNote.
const noteColumns = `id, user_id, local_id, title, text, created_at, edited_at`

// scanNote scans a sql.Row (or sql.Rows via its Scan method) into a domain.Note.
// Tags are left empty; the caller loads them.
func scanNote(scanner interface{ Scan(dest ...any) error }) (*domain.Note, error) {
	var (
		n         domain.Note
		createdAt string
		editedAt  sql.NullString
	)

	err := scanner.Scan(
		&n.ID,
		&n.UserID,
		&n.LocalID,
		&n.Title,
		&n.Text,
		&createdAt,
		&editedAt,
	)
	if err != nil {
		return nil, err
	}

	n.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	n.EditedAt, err = parseNullableTime(editedAt)
	if err != nil {
		return nil, err
	}

	n.Tags = domain.NewTagSet()
	return &n, nil
}

// AddNote creates a note with the next local ID for the user and attaches
// the given tags.
func (s *Store) AddNote(ctx context.Context, userID, title, text string, tags []string) (*domain.Note, error) {
	return updateResult(ctx, s, func(tx *Tx) (*domain.Note, error) {
		return tx.AddNote(ctx, userID, title, text, tags)
	})
}

// UpdateNote writes the differences between the stored note and update.
func (s *Store) UpdateNote(ctx context.Context, noteID string, update domain.NoteUpdate) (domain.UpdateResult, error) {
	return updateResult(ctx, s, func(tx *Tx) (domain.UpdateResult, error) {
		return tx.UpdateNote(ctx, noteID, update)
	})
}

// DeleteNote removes a note and its tag associations.
func (s *Store) DeleteNote(ctx context.Context, noteID string) error {
	return s.update(ctx, func(tx *Tx) error {
		return tx.DeleteNote(ctx, noteID)
	})
}

// GetNote retrieves a note by the owner's local ID.
func (s *Store) GetNote(ctx context.Context, userID string, localID int64) (*domain.Note, bool, error) {
	return lookup(ctx, s, func(tx *Tx) (*domain.Note, bool, error) {
		return tx.GetNote(ctx, userID, localID)
	})
}

// GetUserNotes returns all of the user's notes ordered by local ID.
func (s *Store) GetUserNotes(ctx context.Context, userID string) ([]*domain.Note, error) {
	return viewResult(ctx, s, func(tx *Tx) ([]*domain.Note, error) {
		return tx.GetUserNotes(ctx, userID)
	})
}

// SearchNotes returns the user's notes whose title or text contains query,
// ignoring case, ordered by local ID.
func (s *Store) SearchNotes(ctx context.Context, userID, query string) ([]*domain.Note, error) {
	return viewResult(ctx, s, func(tx *Tx) ([]*domain.Note, error) {
		return tx.SearchNotes(ctx, userID, query)
	})
}

// GetNotesWithTag returns the notes carrying a tag ordered by local ID.
func (s *Store) GetNotesWithTag(ctx context.Context, tagID string) ([]*domain.Note, error) {
	return viewResult(ctx, s, func(tx *Tx) ([]*domain.Note, error) {
		return tx.GetNotesWithTag(ctx, tagID)
	})
}

// GetNotesLinkedTo returns the user's notes that link to the note with localID.
func (s *Store) GetNotesLinkedTo(ctx context.Context, userID string, localID int64) ([]domain.NoteLink, error) {
	return viewResult(ctx, s, func(tx *Tx) ([]domain.NoteLink, error) {
		return tx.GetNotesLinkedTo(ctx, userID, localID)
	})
}

// AddNote creates a note with the next local ID for the user and attaches
// the given tags. Duplicate tag texts are attached once.
func (t *Tx) AddNote(ctx context.Context, userID, title, text string, tags []string) (*domain.Note, error) {
	noteID, err := id.Generate(id.PrefixNote)
	if err != nil {
		return nil, fmt.Errorf("generate note id: %w", err)
	}

	n := &domain.Note{
		ID:        noteID,
		UserID:    userID,
		Title:     title,
		Text:      text,
		CreatedAt: time.Now().UTC(),
		Tags:      domain.NewTagSet(),
	}

	// The local ID is computed in the insert itself so no other writer can
	// claim the same number between a read and the write.
	err = t.tx.QueryRowContext(ctx, `
		INSERT INTO notes (id, user_id, local_id, title, text, created_at)
		SELECT ?, ?, COALESCE(MAX(local_id), 0) + 1, ?, ?, ?
		FROM notes WHERE user_id = ?
		RETURNING local_id`,
		n.ID,
		n.UserID,
		n.Title,
		n.Text,
		formatTime(n.CreatedAt),
		n.UserID,
	).Scan(&n.LocalID)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}

	for _, tagText := range domain.SortedTexts(tags) {
		tag, err := t.AssociateTag(ctx, userID, n.ID, tagText)
		if err != nil {
			return nil, err
		}
		n.Tags.Add(tag)
	}

	t.logger.Debug("note created", "note_id", n.ID, "user_id", userID, "local_id", n.LocalID)
	return n, nil
}

// UpdateNote compares update with the stored note. Title and text are each
// written only if they differ, tags are compared by their sorted texts, and
// edited_at is stamped whenever anything changed. Tags present on both sides
// are left alone.
func (t *Tx) UpdateNote(ctx context.Context, noteID string, update domain.NoteUpdate) (domain.UpdateResult, error) {
	current, found, err := t.getNoteByID(ctx, noteID)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	if !found {
		return domain.NotFound(), nil
	}

	oldTexts := current.Tags.Texts()
	newTexts := domain.SortedTexts(update.Tags)

	titleChanged := update.Title != current.Title
	textChanged := update.Text != current.Text
	tagsChanged := !slices.Equal(oldTexts, newTexts)

	if !titleChanged && !textChanged && !tagsChanged {
		return domain.NoChange(), nil
	}

	var (
		sets []string
		args []any
	)
	if titleChanged {
		sets = append(sets, "title = ?")
		args = append(args, update.Title)
	}
	if textChanged {
		sets = append(sets, "text = ?")
		args = append(args, update.Text)
	}
	sets = append(sets, "edited_at = ?")
	args = append(args, formatTime(time.Now().UTC()), noteID)

	_, err = t.tx.ExecContext(ctx,
		`UPDATE notes SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("update note: %w", err)
	}

	if tagsChanged {
		byText := current.Tags.ByText()
		for _, text := range oldTexts {
			if !slices.Contains(newTexts, text) {
				if err := t.DissociateTag(ctx, byText[text].ID, noteID); err != nil {
					return domain.UpdateResult{}, err
				}
			}
		}
		for _, text := range newTexts {
			if _, ok := byText[text]; !ok {
				if _, err := t.AssociateTag(ctx, current.UserID, noteID, text); err != nil {
					return domain.UpdateResult{}, err
				}
			}
		}
	}

	updated, _, err := t.getNoteByID(ctx, noteID)
	if err != nil {
		return domain.UpdateResult{}, err
	}

	t.logger.Debug("note updated",
		"note_id", noteID,
		"title_changed", titleChanged,
		"text_changed", textChanged,
		"tags_changed", tagsChanged,
	)
	return domain.Updated(updated), nil
}

// DeleteNote removes a note. Its note_tags rows go with it; tag rows stay.
// Deleting a missing note is not an error.
func (t *Tx) DeleteNote(ctx context.Context, noteID string) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, noteID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	t.logger.Debug("note deleted", "note_id", noteID)
	return nil
}

// GetNote retrieves a note by the owner's local ID.
func (t *Tx) GetNote(ctx context.Context, userID string, localID int64) (*domain.Note, bool, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = ? AND local_id = ?`, userID, localID)
	return t.noteFromRow(ctx, row)
}

func (t *Tx) getNoteByID(ctx context.Context, noteID string) (*domain.Note, bool, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ?`, noteID)
	return t.noteFromRow(ctx, row)
}

func (t *Tx) noteFromRow(ctx context.Context, row *sql.Row) (*domain.Note, bool, error) {
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get note: %w", err)
	}

	n.Tags, err = t.TagsForNote(ctx, n.ID)
	if err != nil {
		return nil, false, err
	}
	return n, true, nil
}

// GetUserNotes returns all of the user's notes ordered by local ID.
func (t *Tx) GetUserNotes(ctx context.Context, userID string) ([]*domain.Note, error) {
	return t.queryNotes(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE user_id = ?
		ORDER BY local_id ASC`, userID)
}

// SearchNotes returns the user's notes whose title or text contains query,
// ignoring case, ordered by local ID. Matching uses full Unicode case
// folding, so "ЗАМЕТКА" finds "заметка".
func (t *Tx) SearchNotes(ctx context.Context, userID, query string) ([]*domain.Note, error) {
	return t.queryNotes(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE user_id = ?
		  AND (instr(casefold(title), casefold(?)) > 0 OR instr(casefold(text), casefold(?)) > 0)
		ORDER BY local_id ASC`, userID, query, query)
}

// GetNotesWithTag returns the notes carrying a tag ordered by local ID.
// The tag's owner is not checked here.
func (t *Tx) GetNotesWithTag(ctx context.Context, tagID string) ([]*domain.Note, error) {
	return t.queryNotes(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE id IN (SELECT note_id FROM note_tags WHERE tag_id = ?)
		ORDER BY local_id ASC`, tagID)
}

// GetNotesLinkedTo returns the user's notes whose text contains a Markdown
// link "[...](localID)". The match is textual, so a literal "](7)" outside
// a link also counts.
func (t *Tx) GetNotesLinkedTo(ctx context.Context, userID string, localID int64) ([]domain.NoteLink, error) {
	pattern := "%[%](" + strconv.FormatInt(localID, 10) + ")%"

	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, user_id, local_id, title FROM notes
		WHERE user_id = ? AND text LIKE ?
		ORDER BY local_id ASC`, userID, pattern)
	if err != nil {
		return nil, fmt.Errorf("query backlinks: %w", err)
	}
	defer rows.Close()

	links := []domain.NoteLink{}
	for rows.Next() {
		var l domain.NoteLink
		if err := rows.Scan(&l.ID, &l.UserID, &l.LocalID, &l.Title); err != nil {
			return nil, fmt.Errorf("scan backlink: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return links, nil
}

// queryNotes runs a note query and attaches every note's tags with one
// additional query.
func (t *Tx) queryNotes(ctx context.Context, query string, args ...any) ([]*domain.Note, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	notes := []*domain.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	rows.Close()

	noteIDs := make([]string, len(notes))
	for i, n := range notes {
		noteIDs[i] = n.ID
	}
	byNote, err := t.loadTags(ctx, noteIDs)
	if err != nil {
		return nil, err
	}
	for _, n := range notes {
		if tags, ok := byNote[n.ID]; ok {
			n.Tags = tags
		}
	}
	return notes, nil
}
