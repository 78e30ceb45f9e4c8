package api

import "github.com/zettelapp/zettel-server/internal/service"

// Services groups all business logic services used by the API server.
type Services struct {
	Auth *service.AuthService
	Note *service.NoteService
	Tag  *service.TagService
}
