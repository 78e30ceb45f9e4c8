package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/zettelapp/zettel-server/internal/errors"
)

func TestTagService_ListTags(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	user := ts.registerUser(t, "a@example.com")

	ts.createNote(t, user.ID, "1", "", "a", "b")
	ts.createNote(t, user.ID, "2", "", "a", "c")

	tags, err := ts.tags.ListTags(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, tags, 3)

	assert.Equal(t, "a", tags[0].Text)
	assert.Equal(t, 2, tags[0].Count)
	assert.Equal(t, "b", tags[1].Text)
	assert.Equal(t, "c", tags[2].Text)
}

func TestTagService_ListTags_Empty(t *testing.T) {
	ts := setupServices(t)
	user := ts.registerUser(t, "a@example.com")

	tags, err := ts.tags.ListTags(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
}

func TestTagService_TagsForNote(t *testing.T) {
	ts := setupServices(t)
	ctx := context.Background()
	user := ts.registerUser(t, "a@example.com")
	ts.createNote(t, user.ID, "Tagged", "", "zeta", "alpha")

	tags, err := ts.tags.TagsForNote(ctx, user.ID, 1)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "alpha", tags[0].Text)
	assert.Equal(t, "zeta", tags[1].Text)
	assert.Equal(t, user.ID, tags[0].UserID)

	_, err = ts.tags.TagsForNote(ctx, user.ID, 7)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
