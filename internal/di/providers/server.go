package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/zettelapp/zettel-server/internal/api"
	"github.com/zettelapp/zettel-server/internal/config"
	"github.com/zettelapp/zettel-server/internal/logger"
	"github.com/zettelapp/zettel-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth: do.MustInvoke[*service.AuthService](i),
		Note: do.MustInvoke[*service.NoteService](i),
		Tag:  do.MustInvoke[*service.TagService](i),
	}

	handler := api.NewServer(storeHandle.Store, services, api.Options{
		CORSOrigins:       cfg.Server.CORSOrigins,
		AuthRatePerMinute: cfg.RateLimit.AuthPerMinute,
		AuthRateBurst:     cfg.RateLimit.AuthBurst,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	srvLog := log.WithField("addr", srv.Addr)
	go func() {
		srvLog.Info("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvLog.WithError(err).Error("HTTP server error")
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
