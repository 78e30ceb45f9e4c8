package providers

import (
	"github.com/samber/do/v2"

	"github.com/zettelapp/zettel-server/internal/auth"
	"github.com/zettelapp/zettel-server/internal/logger"
	"github.com/zettelapp/zettel-server/internal/service"
	"github.com/zettelapp/zettel-server/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, v, log.Logger), nil
}

// ProvideNoteService provides the note service.
func ProvideNoteService(i do.Injector) (*service.NoteService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNoteService(storeHandle.Store, v, log.Logger), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, log.Logger), nil
}
