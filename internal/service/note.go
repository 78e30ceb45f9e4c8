package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zettelapp/zettel-server/internal/domain"
	domainerrors "github.com/zettelapp/zettel-server/internal/errors"
	"github.com/zettelapp/zettel-server/internal/store"
	"github.com/zettelapp/zettel-server/internal/validation"
)

// NoteService orchestrates note operations for a signed-in user.
// Notes are addressed by their per-user number, never by internal id.
type NoteService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewNoteService creates a new note service.
func NewNoteService(store store.Store, validator *validation.Validator, logger *slog.Logger) *NoteService {
	return &NoteService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// NoteRequest is the content of a note as sent by the client, used for
// both creation and update. Length limits count characters, not bytes.
type NoteRequest struct {
	Title string   `json:"title" validate:"required,notblank,max=200"`
	Text  string   `json:"text" validate:"max=100000"`
	Tags  []string `json:"tags" validate:"max=100,dive,max=50"`
}

// normalize trims the title and tags, drops empty tags and collapses
// duplicates while keeping the first occurrence order.
func (r *NoteRequest) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Tags = NormalizeTags(r.Tags)
}

// NormalizeTags trims each tag text, drops empty ones and removes duplicates.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Create adds a note for the user and returns it with its assigned number.
func (s *NoteService) Create(ctx context.Context, userID string, req NoteRequest) (*domain.Note, error) {
	req.normalize()
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	note, err := s.store.AddNote(ctx, userID, req.Title, req.Text, req.Tags)
	if err != nil {
		return nil, fmt.Errorf("add note: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Note created", "user_id", userID, "note", note.LocalID, "tags", note.Tags.Len())
	}

	return note, nil
}

// Update replaces the content of note number localID. The result is
// NoChange, with the stored note, when the request matches what is stored.
// Lookup and update run in one unit of work.
func (s *NoteService) Update(ctx context.Context, userID string, localID int64, req NoteRequest) (domain.UpdateResult, error) {
	req.normalize()
	if err := s.validator.Validate(req); err != nil {
		return domain.UpdateResult{}, err
	}

	var result domain.UpdateResult
	err := s.store.InTx(ctx, func(nb store.Notebook) error {
		note, found, err := nb.GetNote(ctx, userID, localID)
		if err != nil {
			return err
		}
		if !found {
			result = domain.NotFound()
			return nil
		}

		result, err = nb.UpdateNote(ctx, note.ID, domain.NoteUpdate{
			Title: req.Title,
			Text:  req.Text,
			Tags:  req.Tags,
		})
		if err != nil {
			return err
		}
		if result.Status == domain.UpdateStatusNoChange {
			result.Note = note
		}
		return nil
	})
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("update note: %w", err)
	}

	switch result.Status {
	case domain.UpdateStatusNotFound:
		return result, notFoundNote(localID)
	case domain.UpdateStatusUpdated:
		if s.logger != nil {
			s.logger.Info("Note updated", "user_id", userID, "note", localID)
		}
	}

	return result, nil
}

// Delete removes note number localID. Its tags stay registered.
func (s *NoteService) Delete(ctx context.Context, userID string, localID int64) error {
	var found bool
	err := s.store.InTx(ctx, func(nb store.Notebook) error {
		var note *domain.Note
		var err error
		note, found, err = nb.GetNote(ctx, userID, localID)
		if err != nil || !found {
			return err
		}
		return nb.DeleteNote(ctx, note.ID)
	})
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if !found {
		return notFoundNote(localID)
	}

	if s.logger != nil {
		s.logger.Info("Note deleted", "user_id", userID, "note", localID)
	}

	return nil
}

// Get returns note number localID.
func (s *NoteService) Get(ctx context.Context, userID string, localID int64) (*domain.Note, error) {
	note, found, err := s.store.GetNote(ctx, userID, localID)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	if !found {
		return nil, notFoundNote(localID)
	}
	return note, nil
}

// List returns all of the user's notes in number order.
func (s *NoteService) List(ctx context.Context, userID string) ([]*domain.Note, error) {
	notes, err := s.store.GetUserNotes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// Search returns the user's notes whose title or text contains query,
// ignoring case. A blank query lists every note.
func (s *NoteService) Search(ctx context.Context, userID, query string) ([]*domain.Note, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx, userID)
	}

	notes, err := s.store.SearchNotes(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	return notes, nil
}

// NotesWithTag returns the user's notes carrying tagID. A tag owned by
// someone else is reported as not found.
func (s *NoteService) NotesWithTag(ctx context.Context, userID, tagID string) ([]*domain.Note, error) {
	tag, found, err := s.store.GetTag(ctx, tagID)
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	if !found || tag.UserID != userID {
		return nil, domainerrors.NotFound("tag not found")
	}

	notes, err := s.store.GetNotesWithTag(ctx, tagID)
	if err != nil {
		return nil, fmt.Errorf("notes with tag: %w", err)
	}
	return notes, nil
}

// Backlinks returns the notes that link to note number localID with a
// markdown link of the form [label](localID). The target note must exist.
func (s *NoteService) Backlinks(ctx context.Context, userID string, localID int64) ([]domain.NoteLink, error) {
	if _, err := s.Get(ctx, userID, localID); err != nil {
		return nil, err
	}

	links, err := s.store.GetNotesLinkedTo(ctx, userID, localID)
	if err != nil {
		return nil, fmt.Errorf("backlinks: %w", err)
	}
	return links, nil
}

func notFoundNote(localID int64) error {
	return domainerrors.NotFoundf("note %d not found", localID)
}
