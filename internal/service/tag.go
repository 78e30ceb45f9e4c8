package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zettelapp/zettel-server/internal/domain"
	"github.com/zettelapp/zettel-server/internal/store"
)

// TagService exposes a user's tags read-only. Tags are created and
// attached through notes.
type TagService struct {
	store  store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, logger *slog.Logger) *TagService {
	return &TagService{
		store:  store,
		logger: logger,
	}
}

// ListTags returns the user's tags in use, most used first.
func (s *TagService) ListTags(ctx context.Context, userID string) ([]domain.TagUsage, error) {
	tags, err := s.store.TagsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// TagsForNote returns the tags of note number localID, ordered by text.
func (s *TagService) TagsForNote(ctx context.Context, userID string, localID int64) ([]domain.Tag, error) {
	note, found, err := s.store.GetNote(ctx, userID, localID)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	if !found {
		return nil, notFoundNote(localID)
	}

	tags, err := s.store.TagsForNote(ctx, note.ID)
	if err != nil {
		return nil, fmt.Errorf("tags for note: %w", err)
	}
	return tags.Sorted(), nil
}
