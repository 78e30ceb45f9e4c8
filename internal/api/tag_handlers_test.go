package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTags(t *testing.T) {
	ts := setupTestServer(t, generousLimits)
	header := ts.createUser(t, "a@example.com")

	ts.createNote(t, header, "One", "", "go", "sql")
	ts.createNote(t, header, "Two", "", "go")

	resp := ts.api.Get("/api/v1/tags", header)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	body := decode[ListTagsResponse](t, resp.Body.Bytes())
	require.Len(t, body.Tags, 2)
	assert.Equal(t, "go", body.Tags[0].Text)
	assert.Equal(t, 2, body.Tags[0].Count)
	assert.Equal(t, "sql", body.Tags[1].Text)
	assert.Equal(t, 1, body.Tags[1].Count)
}

func TestListTags_Empty(t *testing.T) {
	ts := setupTestServer(t, generousLimits)
	header := ts.createUser(t, "a@example.com")

	resp := ts.api.Get("/api/v1/tags", header)
	require.Equal(t, http.StatusOK, resp.Code)

	body := decode[ListTagsResponse](t, resp.Body.Bytes())
	assert.Empty(t, body.Tags)

	// An empty list, not null.
	raw := decode[map[string]json.RawMessage](t, resp.Body.Bytes())
	assert.JSONEq(t, `[]`, string(raw["tags"]))
}

func TestGetTagNotes(t *testing.T) {
	ts := setupTestServer(t, generousLimits)
	alice := ts.createUser(t, "alice@example.com")
	bob := ts.createUser(t, "bob@example.com")

	ts.createNote(t, alice, "One", "", "go")
	ts.createNote(t, alice, "Two", "", "rust")
	ts.createNote(t, alice, "Three", "", "go", "rust")

	resp := ts.api.Get("/api/v1/tags", alice)
	require.Equal(t, http.StatusOK, resp.Code)
	tags := decode[ListTagsResponse](t, resp.Body.Bytes())

	var goID string
	for _, tag := range tags.Tags {
		if tag.Text == "go" {
			goID = tag.ID
		}
	}
	require.NotEmpty(t, goID)

	resp = ts.api.Get("/api/v1/tags/"+goID+"/notes", alice)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	notes := decode[ListNotesResponse](t, resp.Body.Bytes())
	assert.Equal(t, []int64{1, 3}, numbers(notes.Notes))

	// Tags belong to their owner.
	resp = ts.api.Get("/api/v1/tags/"+goID+"/notes", bob)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/api/v1/tags/tag-missing/notes", alice)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetNoteTags(t *testing.T) {
	ts := setupTestServer(t, generousLimits)
	header := ts.createUser(t, "a@example.com")
	ts.createNote(t, header, "Tagged", "", "zeta", "alpha")

	resp := ts.api.Get("/api/v1/notes/1/tags", header)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	body := decode[NoteTagsResponse](t, resp.Body.Bytes())
	require.Len(t, body.Tags, 2)
	assert.Equal(t, "alpha", body.Tags[0].Text)
	assert.Equal(t, "zeta", body.Tags[1].Text)
	assert.NotEmpty(t, body.Tags[0].ID)

	resp = ts.api.Get("/api/v1/notes/2/tags", header)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
