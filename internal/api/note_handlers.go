package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/zettelapp/zettel-server/internal/domain"
	"github.com/zettelapp/zettel-server/internal/service"
)

func (s *Server) registerNoteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listNotes",
		Method:      http.MethodGet,
		Path:        "/api/v1/notes",
		Summary:     "List notes",
		Description: "Returns the user's notes ordered by number. With q, only notes whose title or text contains q, ignoring case.",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListNotes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createNote",
		Method:        http.MethodPost,
		Path:          "/api/v1/notes",
		Summary:       "Create note",
		Description:   "Creates a note and assigns it the user's next note number",
		Tags:          []string{"Notes"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "getNote",
		Method:      http.MethodGet,
		Path:        "/api/v1/notes/{number}",
		Summary:     "Get note",
		Description: "Returns a note by its number",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateNote",
		Method:      http.MethodPut,
		Path:        "/api/v1/notes/{number}",
		Summary:     "Update note",
		Description: "Replaces title, text and tags. Reports \"unchanged\" when nothing differs from the stored note.",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateNote)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteNote",
		Method:        http.MethodDelete,
		Path:          "/api/v1/notes/{number}",
		Summary:       "Delete note",
		Description:   "Deletes a note. Its tags are kept.",
		Tags:          []string{"Notes"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "getNoteBacklinks",
		Method:      http.MethodGet,
		Path:        "/api/v1/notes/{number}/backlinks",
		Summary:     "Get backlinks",
		Description: "Returns the notes whose text links to this note as [label](number)",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBacklinks)
}

// === DTOs ===

// NoteRequest is the request body for creating or replacing a note.
type NoteRequest struct {
	Title string   `json:"title" maxLength:"200" doc:"Note title"`
	Text  string   `json:"text,omitempty" maxLength:"100000" doc:"Markdown body"`
	Tags  []string `json:"tags,omitempty" maxItems:"100" doc:"Tag texts; blanks and duplicates are ignored"`
}

// NoteResponse contains note data in API responses.
type NoteResponse struct {
	ID        string     `json:"id" doc:"Note ID"`
	Number    int64      `json:"number" doc:"Per-user note number"`
	Title     string     `json:"title" doc:"Note title"`
	Text      string     `json:"text" doc:"Markdown body"`
	Tags      []string   `json:"tags" doc:"Tag texts in ascending order"`
	CreatedAt time.Time  `json:"created_at" doc:"Creation time"`
	EditedAt  *time.Time `json:"edited_at,omitempty" doc:"Last edit time"`
}

// ListNotesInput contains parameters for listing notes.
type ListNotesInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" maxLength:"1000" doc:"Case-insensitive substring to search for"`
}

// ListNotesResponse contains a list of notes.
type ListNotesResponse struct {
	Notes []NoteResponse `json:"notes" doc:"Notes ordered by number"`
}

// ListNotesOutput wraps the list notes response for Huma.
type ListNotesOutput struct {
	Body ListNotesResponse
}

// CreateNoteInput wraps the create note request for Huma.
type CreateNoteInput struct {
	Authorization string `header:"Authorization"`
	Body          NoteRequest
}

// NoteOutput wraps the note response for Huma.
type NoteOutput struct {
	Body NoteResponse
}

// NoteNumberInput addresses a single note.
type NoteNumberInput struct {
	Authorization string `header:"Authorization"`
	Number        int64  `path:"number" minimum:"1" doc:"Per-user note number"`
}

// UpdateNoteInput wraps the update note request for Huma.
type UpdateNoteInput struct {
	Authorization string `header:"Authorization"`
	Number        int64  `path:"number" minimum:"1" doc:"Per-user note number"`
	Body          NoteRequest
}

// UpdateNoteResponse reports the outcome of an update.
type UpdateNoteResponse struct {
	Status string       `json:"status" enum:"updated,unchanged" doc:"Whether anything was written"`
	Note   NoteResponse `json:"note" doc:"The note as stored after the request"`
}

// UpdateNoteOutput wraps the update note response for Huma.
type UpdateNoteOutput struct {
	Body UpdateNoteResponse
}

// NoteLinkResponse is a note that links to another note.
type NoteLinkResponse struct {
	ID     string `json:"id" doc:"Note ID"`
	Number int64  `json:"number" doc:"Per-user note number"`
	Title  string `json:"title" doc:"Note title"`
}

// BacklinksResponse contains the notes linking to a note.
type BacklinksResponse struct {
	Notes []NoteLinkResponse `json:"notes" doc:"Linking notes ordered by number"`
}

// BacklinksOutput wraps the backlinks response for Huma.
type BacklinksOutput struct {
	Body BacklinksResponse
}

// === Handlers ===

func (s *Server) handleListNotes(ctx context.Context, input *ListNotesInput) (*ListNotesOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	notes, err := s.services.Note.Search(ctx, userID, input.Query)
	if err != nil {
		return nil, err
	}

	return &ListNotesOutput{Body: ListNotesResponse{Notes: mapNotes(notes)}}, nil
}

func (s *Server) handleCreateNote(ctx context.Context, input *CreateNoteInput) (*NoteOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	note, err := s.services.Note.Create(ctx, userID, toServiceNote(input.Body))
	if err != nil {
		return nil, err
	}

	return &NoteOutput{Body: mapNote(note)}, nil
}

func (s *Server) handleGetNote(ctx context.Context, input *NoteNumberInput) (*NoteOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	note, err := s.services.Note.Get(ctx, userID, input.Number)
	if err != nil {
		return nil, err
	}

	return &NoteOutput{Body: mapNote(note)}, nil
}

func (s *Server) handleUpdateNote(ctx context.Context, input *UpdateNoteInput) (*UpdateNoteOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	res, err := s.services.Note.Update(ctx, userID, input.Number, toServiceNote(input.Body))
	if err != nil {
		return nil, err
	}

	return &UpdateNoteOutput{
		Body: UpdateNoteResponse{
			Status: res.Status.String(),
			Note:   mapNote(res.Note),
		},
	}, nil
}

func (s *Server) handleDeleteNote(ctx context.Context, input *NoteNumberInput) (*struct{}, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Note.Delete(ctx, userID, input.Number); err != nil {
		return nil, err
	}

	return nil, nil
}

func (s *Server) handleGetBacklinks(ctx context.Context, input *NoteNumberInput) (*BacklinksOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	links, err := s.services.Note.Backlinks(ctx, userID, input.Number)
	if err != nil {
		return nil, err
	}

	resp := make([]NoteLinkResponse, len(links))
	for i, l := range links {
		resp[i] = NoteLinkResponse{
			ID:     l.ID,
			Number: l.LocalID,
			Title:  l.Title,
		}
	}

	return &BacklinksOutput{Body: BacklinksResponse{Notes: resp}}, nil
}

// === Helpers ===

func toServiceNote(req NoteRequest) service.NoteRequest {
	return service.NoteRequest{
		Title: req.Title,
		Text:  req.Text,
		Tags:  req.Tags,
	}
}

func mapNote(n *domain.Note) NoteResponse {
	return NoteResponse{
		ID:        n.ID,
		Number:    n.LocalID,
		Title:     n.Title,
		Text:      n.Text,
		Tags:      n.TagTexts(),
		CreatedAt: n.CreatedAt,
		EditedAt:  n.EditedAt,
	}
}

func mapNotes(notes []*domain.Note) []NoteResponse {
	resp := make([]NoteResponse, len(notes))
	for i, n := range notes {
		resp[i] = mapNote(n)
	}
	return resp
}
