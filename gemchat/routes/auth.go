// gemchat/routes/auth.go
package routes

import (
	"net/http"

	"gemchat/gemchat/config"
	"gemchat/gemchat/middlewares"
	"gemchat/gemchat/sources/session"
	httputils "gemchat/gemchat/utils/http"

	"github.com/go-chi/chi/v5"
)

func AuthRoutes(cfg config.Config, sessions *session.Store) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.SessionMiddleware(cfg, sessions))

	// GET /api/auth/me : current identity, minting a guest one if absent
	r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middlewares.IdentityFrom(r.Context())
		if !ok {
			httputils.WriteError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		httputils.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": identity})
	})

	return r
}
