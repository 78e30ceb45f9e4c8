package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zettelapp/zettel-server/internal/domain"
	"github.com/zettelapp/zettel-server/internal/id"
	"github.com/zettelapp/zettel-server/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `t.id, t.user_id, t.text`

func scanTag(scanner interface{ Scan(dest ...any) error }) (domain.Tag, error) {
	var tag domain.Tag
	err := scanner.Scan(&tag.ID, &tag.UserID, &tag.Text)
	return tag, err
}

// ResolveOrCreateTag returns the ID of the user's tag with this text,
// creating the tag if the user has never used the text.
func (s *Store) ResolveOrCreateTag(ctx context.Context, userID, text string) (string, error) {
	return updateResult(ctx, s, func(tx *Tx) (string, error) {
		return tx.ResolveOrCreateTag(ctx, userID, text)
	})
}

// AssociateTag attaches the tag with this text to a note.
// Returns store.ErrAlreadyExists if the note already carries it.
func (s *Store) AssociateTag(ctx context.Context, userID, noteID, text string) (domain.Tag, error) {
	return updateResult(ctx, s, func(tx *Tx) (domain.Tag, error) {
		return tx.AssociateTag(ctx, userID, noteID, text)
	})
}

// DissociateTag removes one tag from one note. The tag itself is kept.
func (s *Store) DissociateTag(ctx context.Context, tagID, noteID string) error {
	return s.update(ctx, func(tx *Tx) error {
		return tx.DissociateTag(ctx, tagID, noteID)
	})
}

// GetTag retrieves a tag by ID.
func (s *Store) GetTag(ctx context.Context, tagID string) (domain.Tag, bool, error) {
	return lookup(ctx, s, func(tx *Tx) (domain.Tag, bool, error) {
		return tx.GetTag(ctx, tagID)
	})
}

// TagsForNote returns the tags attached to a note.
func (s *Store) TagsForNote(ctx context.Context, noteID string) (domain.TagSet, error) {
	return viewResult(ctx, s, func(tx *Tx) (domain.TagSet, error) {
		return tx.TagsForNote(ctx, noteID)
	})
}

// TagsForUser returns the user's tags that are attached to at least one
// note, most used first and then by text.
func (s *Store) TagsForUser(ctx context.Context, userID string) ([]domain.TagUsage, error) {
	return viewResult(ctx, s, func(tx *Tx) ([]domain.TagUsage, error) {
		return tx.TagsForUser(ctx, userID)
	})
}

// ResolveOrCreateTag returns the ID of the user's tag with this text,
// creating the tag if the user has never used the text.
func (t *Tx) ResolveOrCreateTag(ctx context.Context, userID, text string) (string, error) {
	var tagID string
	err := t.tx.QueryRowContext(ctx,
		`SELECT id FROM user_tags WHERE user_id = ? AND text = ?`, userID, text).Scan(&tagID)
	if err == nil {
		return tagID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("resolve tag: %w", err)
	}

	tagID, err = id.Generate(id.PrefixTag)
	if err != nil {
		return "", fmt.Errorf("generate tag id: %w", err)
	}

	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO user_tags (id, user_id, text) VALUES (?, ?, ?)`, tagID, userID, text)
	if err != nil {
		return "", fmt.Errorf("insert tag: %w", err)
	}

	t.logger.Debug("tag created", "tag_id", tagID, "user_id", userID)
	return tagID, nil
}

// AssociateTag attaches the tag with this text to a note.
// Returns store.ErrAlreadyExists if the note already carries it.
func (t *Tx) AssociateTag(ctx context.Context, userID, noteID, text string) (domain.Tag, error) {
	tagID, err := t.ResolveOrCreateTag(ctx, userID, text)
	if err != nil {
		return domain.Tag{}, err
	}

	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO note_tags (tag_id, note_id) VALUES (?, ?)`, tagID, noteID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Tag{}, store.ErrAlreadyExists.
				WithMessage(fmt.Sprintf("note already tagged %q", text)).
				WithCause(err)
		}
		return domain.Tag{}, fmt.Errorf("associate tag: %w", err)
	}

	return domain.Tag{ID: tagID, UserID: userID, Text: text}, nil
}

// DissociateTag removes one tag from one note. The tag row stays behind
// even when no note references it any more.
func (t *Tx) DissociateTag(ctx context.Context, tagID, noteID string) error {
	_, err := t.tx.ExecContext(ctx,
		`DELETE FROM note_tags WHERE tag_id = ? AND note_id = ?`, tagID, noteID)
	if err != nil {
		return fmt.Errorf("dissociate tag: %w", err)
	}
	return nil
}

// GetTag retrieves a tag by ID.
func (t *Tx) GetTag(ctx context.Context, tagID string) (domain.Tag, bool, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM user_tags t WHERE t.id = ?`, tagID)

	tag, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Tag{}, false, nil
	}
	if err != nil {
		return domain.Tag{}, false, fmt.Errorf("get tag: %w", err)
	}
	return tag, true, nil
}

// TagsForNote returns the tags attached to a note.
func (t *Tx) TagsForNote(ctx context.Context, noteID string) (domain.TagSet, error) {
	byNote, err := t.loadTags(ctx, []string{noteID})
	if err != nil {
		return nil, err
	}
	if tags, ok := byNote[noteID]; ok {
		return tags, nil
	}
	return domain.NewTagSet(), nil
}

// TagsForUser returns the user's tags that are attached to at least one
// note, ordered by usage count descending and then by text ascending.
func (t *Tx) TagsForUser(ctx context.Context, userID string) ([]domain.TagUsage, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+tagColumns+`, COUNT(nt.note_id) AS usage
		FROM user_tags t
		JOIN note_tags nt ON nt.tag_id = t.id
		WHERE t.user_id = ?
		GROUP BY t.id
		ORDER BY usage DESC, t.text ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user tags: %w", err)
	}
	defer rows.Close()

	usage := []domain.TagUsage{}
	for rows.Next() {
		var u domain.TagUsage
		if err := rows.Scan(&u.ID, &u.UserID, &u.Text, &u.Count); err != nil {
			return nil, fmt.Errorf("scan user tag: %w", err)
		}
		usage = append(usage, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return usage, nil
}

// loadTags returns the tags of each given note, keyed by note ID.
// Notes without tags are absent from the map.
func (t *Tx) loadTags(ctx context.Context, noteIDs []string) (map[string]domain.TagSet, error) {
	byNote := make(map[string]domain.TagSet, len(noteIDs))
	if len(noteIDs) == 0 {
		return byNote, nil
	}

	args := make([]any, len(noteIDs))
	for i, noteID := range noteIDs {
		args[i] = noteID
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT nt.note_id, `+tagColumns+`
		FROM note_tags nt
		JOIN user_tags t ON t.id = nt.tag_id
		WHERE nt.note_id IN (`+placeholders(len(noteIDs))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query note tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			noteID string
			tag    domain.Tag
		)
		if err := rows.Scan(&noteID, &tag.ID, &tag.UserID, &tag.Text); err != nil {
			return nil, fmt.Errorf("scan note tag: %w", err)
		}
		set, ok := byNote[noteID]
		if !ok {
			set = domain.NewTagSet()
			byNote[noteID] = set
		}
		set.Add(tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return byNote, nil
}
