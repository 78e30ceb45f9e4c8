package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zettelapp/zettel-server/internal/domain"
	domainerrors "github.com/zettelapp/zettel-server/internal/errors"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"trims", []string{"  go ", "db"}, []string{"go", "db"}},
		{"drops empty", []string{"", "   ", "x"}, []string{"x"}},
		{"dedupes after trim", []string{"x", " x", "y", "x "}, []string{"x", "y"}},
		{"case sensitive", []string{"Go", "go"}, []string{"Go", "go"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTags(tt.in))
		})
	}
}

func TestNoteService_Create(t *testing.T) {
	ts := setupServices(t)
	user := ts.registerUser(t, "a@example.com")

	note := ts.createNote(t, user.ID, "  Title ", "Body", " b", "a", "b", "")

	assert.Equal(t, int64(1), note.LocalID)
	assert.Equal(t, "Title", note.Title)
	assert.Equal(t, "Body", note.Text)
	assert.Equal(t, []string{"a", "b"}, note.TagTexts())
	assert.Nil(t, note.EditedAt)

	second := ts.createNote(t, user.ID, "Second", "")
	assert.Equal(t, int64(2), second.LocalID)
}

func TestNoteService_Create_Validation(t *testing.T) {
	ts := setupServices(t)
	user := ts.registerUser(t, "a@example.com")

	tooManyTags := make([]string, 101)
	for i := range tooManyTags {
		tooManyTags[i] = fmt.Sprintf("t%d", i)
	}

	tests := []struct {
		name  string
		req   NoteRequest
		field string
	}{
		{"blank title", NoteRequest{Title: "   "}, "title"},
		{"long title", NoteRequest{Title: strings.Repeat("x", 201)}, "title"},
		{"long tag", NoteRequest{Title: "ok", Tags: []string{"fine", strings.Repeat("é", 51)}}, "tags[1]"},
		{"too many tags", NoteRequest{Title: "ok", Tags: tooManyTags}, "tags"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.notes.Create(context.Background(), user.ID, tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)

			var derr *domainerrors.Error
			require.ErrorAs(t, err, &derr)
			assert.Contains(t, derr.Details, tt.field)
		})
	}

	notes, err := ts.notes.List(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestNoteService_Create_TagLengthCountsCharacters(t *testing.T) {
	ts := setupServices(t)
	user := ts.registerUser(t, "a@example.com")

	// 50 two-byte characters is within the limit.
	tag := strings.Repeat("é", 50)
	note := ts.createNote(t, user.ID, "Accents", "", tag)
	assert.Equal(t, []string{tag}, note.TagTexts())
}

func TestNoteService_Update(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	user := ts.registerUser(t, "a@example.com")
	ts.createNote(t, user.ID, "Title", "Body", "x", "y")

	t.Run("no change", func(t *testing.T) {
		res, err := ts.notes.Update(ctx, user.ID, 1, NoteRequest{
			Title: "Title",
			Text:  "Body",
			Tags:  []string{"y", "x", " x "},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.UpdateStatusNoChange, res.Status)
		require.NotNil(t, res.Note)
		assert.Equal(t, int64(1), res.Note.LocalID)
		assert.Nil(t, res.Note.EditedAt)
	})

	t.Run("updated", func(t *testing.T) {
		res, err := ts.notes.Update(ctx, user.ID, 1, NoteRequest{
			Title: "New title",
			Text:  "Body",
			Tags:  []string{"y", "z"},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.UpdateStatusUpdated, res.Status)
		require.NotNil(t, res.Note)
		assert.Equal(t, "New title", res.Note.Title)
		assert.Equal(t, "Body", res.Note.Text)
		assert.Equal(t, []string{"y", "z"}, res.Note.TagTexts())
		assert.NotNil(t, res.Note.EditedAt)
	})

	t.Run("not found", func(t *testing.T) {
		res, err := ts.notes.Update(ctx, user.ID, 99, NoteRequest{Title: "x"})
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
		assert.Equal(t, domain.UpdateStatusNotFound, res.Status)
	})

	t.Run("other user's number", func(t *testing.T) {
		other := ts.registerUser(t, "b@example.com")
		_, err := ts.notes.Update(ctx, other.ID, 1, NoteRequest{Title: "hijack"})
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)

		note, err := ts.notes.Get(ctx, user.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, "New title", note.Title)
	})
}

func TestNoteService_Delete(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	user := ts.registerUser(t, "a@example.com")
	ts.createNote(t, user.ID, "Doomed", "", "keep")

	require.NoError(t, ts.notes.Delete(ctx, user.ID, 1))

	_, err := ts.notes.Get(ctx, user.ID, 1)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	err = ts.notes.Delete(ctx, user.ID, 1)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	// The tag row survives and is reused.
	tagID, err := ts.store.ResolveOrCreateTag(ctx, user.ID, "keep")
	require.NoError(t, err)
	again := ts.createNote(t, user.ID, "Reborn", "", "keep")
	assert.Equal(t, tagID, again.Tags.Sorted()[0].ID)
}

func TestNoteService_Search(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	user := ts.registerUser(t, "a@example.com")
	ts.createNote(t, user.ID, "Shopping", "eggs and milk")
	ts.createNote(t, user.ID, "Go notes", "channels")
	ts.createNote(t, user.ID, "Groceries", "more EGGS")

	notes, err := ts.notes.Search(ctx, user.ID, "eggs")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, localIDs(notes))

	notes, err = ts.notes.Search(ctx, user.ID, "  ")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, localIDs(notes))

	notes, err = ts.notes.Search(ctx, user.ID, "absent")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestNoteService_NotesWithTag(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	alice := ts.registerUser(t, "alice@example.com")
	bob := ts.registerUser(t, "bob@example.com")

	first := ts.createNote(t, alice.ID, "One", "", "shared")
	ts.createNote(t, alice.ID, "Two", "")
	ts.createNote(t, alice.ID, "Three", "", "shared")
	tagID := first.Tags.Sorted()[0].ID

	notes, err := ts.notes.NotesWithTag(ctx, alice.ID, tagID)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, localIDs(notes))

	// Bob cannot read Alice's notes by guessing her tag id.
	_, err = ts.notes.NotesWithTag(ctx, bob.ID, tagID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = ts.notes.NotesWithTag(ctx, alice.ID, "tag-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestNoteService_Backlinks(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	user := ts.registerUser(t, "a@example.com")

	ts.createNote(t, user.ID, "Target", "")
	ts.createNote(t, user.ID, "Links", "see [target](1)")
	ts.createNote(t, user.ID, "Unrelated", "nothing (1) here")

	links, err := ts.notes.Backlinks(ctx, user.ID, 1)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, int64(2), links[0].LocalID)
	assert.Equal(t, "Links", links[0].Title)

	_, err = ts.notes.Backlinks(ctx, user.ID, 42)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func localIDs(notes []*domain.Note) []int64 {
	ids := make([]int64, len(notes))
	for i, n := range notes {
		ids[i] = n.LocalID
	}
	return ids
}
