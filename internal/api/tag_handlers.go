package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns the user's tags with note counts, most used first",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTagNotes",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{id}/notes",
		Summary:     "Get tag notes",
		Description: "Returns the user's notes carrying this tag",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetTagNotes)

	huma.Register(s.api, huma.Operation{
		OperationID: "getNoteTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/notes/{number}/tags",
		Summary:     "Get note tags",
		Description: "Returns the tags of a note ordered by text",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetNoteTags)
}

// === DTOs ===

// ListTagsInput contains parameters for listing tags.
type ListTagsInput struct {
	Authorization string `header:"Authorization"`
}

// TagResponse contains tag data in API responses.
type TagResponse struct {
	ID    string `json:"id" doc:"Tag ID"`
	Text  string `json:"text" doc:"Tag text"`
	Count int    `json:"count" doc:"Number of notes carrying the tag"`
}

// ListTagsResponse contains a list of tags.
type ListTagsResponse struct {
	Tags []TagResponse `json:"tags" doc:"List of tags"`
}

// ListTagsOutput wraps the list tags response for Huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

// GetTagNotesInput contains parameters for getting tag notes.
type GetTagNotesInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Tag ID"`
}

// NoteTagResponse is a tag attached to a note.
type NoteTagResponse struct {
	ID   string `json:"id" doc:"Tag ID"`
	Text string `json:"text" doc:"Tag text"`
}

// NoteTagsResponse contains the tags of a note.
type NoteTagsResponse struct {
	Tags []NoteTagResponse `json:"tags" doc:"Tags ordered by text"`
}

// NoteTagsOutput wraps the note tags response for Huma.
type NoteTagsOutput struct {
	Body NoteTagsResponse
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, input *ListTagsInput) (*ListTagsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.ListTags(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]TagResponse, len(tags))
	for i, t := range tags {
		resp[i] = TagResponse{
			ID:    t.ID,
			Text:  t.Text,
			Count: t.Count,
		}
	}

	return &ListTagsOutput{Body: ListTagsResponse{Tags: resp}}, nil
}

func (s *Server) handleGetTagNotes(ctx context.Context, input *GetTagNotesInput) (*ListNotesOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	notes, err := s.services.Note.NotesWithTag(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &ListNotesOutput{Body: ListNotesResponse{Notes: mapNotes(notes)}}, nil
}

func (s *Server) handleGetNoteTags(ctx context.Context, input *NoteNumberInput) (*NoteTagsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.TagsForNote(ctx, userID, input.Number)
	if err != nil {
		return nil, err
	}

	resp := make([]NoteTagResponse, len(tags))
	for i, t := range tags {
		resp[i] = NoteTagResponse{ID: t.ID, Text: t.Text}
	}

	return &NoteTagsOutput{Body: NoteTagsResponse{Tags: resp}}, nil
}
