// gemchat/routes/chat.go
package routes

import (
	"errors"
	"net/http"

	"gemchat/gemchat/config"
	"gemchat/gemchat/controllers"
	"gemchat/gemchat/middlewares"
	"gemchat/gemchat/services/gemini"
	"gemchat/gemchat/sources/filestore"
	"gemchat/gemchat/sources/session"
	"gemchat/gemchat/types"
	httputils "gemchat/gemchat/utils/http"

	"github.com/go-chi/chi/v5"
)

// Fixed user-facing messages per failure taxonomy entry.
const (
	msgChatNotFound   = "Chat not found"
	msgInvalidAPIKey  = "Invalid Gemini API key. Please check your GEMINI_API_KEY."
	msgRateLimited    = "Rate limit reached. Please wait a moment and try again."
	msgUnavailable    = "Gemini is temporarily unavailable. Please try again shortly."
	msgUpstreamFailed = "Failed to get AI response. Please try again."
	msgInternal       = "internal server error"
)

func writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, filestore.ErrNotFound):
		httputils.WriteError(w, http.StatusNotFound, msgChatNotFound)
	case errors.Is(err, gemini.ErrInvalidCredential):
		httputils.WriteError(w, http.StatusInternalServerError, msgInvalidAPIKey)
	case errors.Is(err, gemini.ErrRateLimited):
		httputils.WriteError(w, http.StatusInternalServerError, msgRateLimited)
	case errors.Is(err, gemini.ErrUnavailable):
		httputils.WriteError(w, http.StatusInternalServerError, msgUnavailable)
	case errors.Is(err, gemini.ErrUnknown):
		httputils.WriteError(w, http.StatusInternalServerError, msgUpstreamFailed)
	default:
		httputils.WriteError(w, http.StatusInternalServerError, msgInternal)
	}
}

func ChatRoutes(ctrl *controllers.ChatController, cfg config.Config, sessions *session.Store) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.SessionMiddleware(cfg, sessions))

	// GET /api/chat/history : list the caller's chats
	r.Get("/history", func(w http.ResponseWriter, r *http.Request) {
		identity, _ := middlewares.IdentityFrom(r.Context())
		chats, err := ctrl.History(r.Context(), identity.ID)
		if err != nil {
			writeChatError(w, err)
			return
		}
		httputils.WriteJSON(w, http.StatusOK, map[string]interface{}{"chats": chats})
	})

	// POST /api/chat/new : create an empty chat
	r.Post("/new", func(w http.ResponseWriter, r *http.Request) {
		identity, _ := middlewares.IdentityFrom(r.Context())
		chat, err := ctrl.New(r.Context(), identity.ID)
		if err != nil {
			writeChatError(w, err)
			return
		}
		httputils.WriteJSON(w, http.StatusOK, map[string]interface{}{"chat": chat.Summary()})
	})

	// POST /api/chat/send : append user turn, call the model, append reply
	r.Post("/send", func(w http.ResponseWriter, r *http.Request) {
		var req types.SendRequest
		if err := httputils.DecodeJSON(r, &req); err != nil {
			httputils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.ChatID == "" || req.Message == "" {
			httputils.WriteError(w, http.StatusBadRequest, "chatId and message are required")
			return
		}
		identity, _ := middlewares.IdentityFrom(r.Context())
		result, err := ctrl.Send(r.Context(), identity.ID, req.ChatID, req.Message)
		if err != nil {
			writeChatError(w, err)
			return
		}
		httputils.WriteJSON(w, http.StatusOK, result)
	})

	// GET /api/chat/{chat_id} : fetch one chat
	r.Get("/{chat_id}", func(w http.ResponseWriter, r *http.Request) {
		identity, _ := middlewares.IdentityFrom(r.Context())
		chat, err := ctrl.Get(r.Context(), identity.ID, chi.URLParam(r, "chat_id"))
		if err != nil {
			writeChatError(w, err)
			return
		}
		httputils.WriteJSON(w, http.StatusOK, map[string]interface{}{"chat": chat})
	})

	// DELETE /api/chat/{chat_id} : idempotent delete
	r.Delete("/{chat_id}", func(w http.ResponseWriter, r *http.Request) {
		identity, _ := middlewares.IdentityFrom(r.Context())
		if err := ctrl.Delete(r.Context(), identity.ID, chi.URLParam(r, "chat_id")); err != nil {
			writeChatError(w, err)
			return
		}
		httputils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
	})

	// PUT /api/chat/{chat_id}/rename : overwrite the title
	r.Put("/{chat_id}/rename", func(w http.ResponseWriter, r *http.Request) {
		var req types.RenameRequest
		if err := httputils.DecodeJSON(r, &req); err != nil {
			httputils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		identity, _ := middlewares.IdentityFrom(r.Context())
		if err := ctrl.Rename(r.Context(), identity.ID, chi.URLParam(r, "chat_id"), req.Title); err != nil {
			writeChatError(w, err)
			return
		}
		httputils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
	})

	return r
}
