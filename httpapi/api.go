// Package httpapi exposes the credential engine over HTTP. Handlers are thin:
// they decode JSON, call one engine or store operation, and translate the
// typed error into a status code. No business rule lives here.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/MrEthical07/credauth"
	"github.com/MrEthical07/credauth/store"
)

// API holds the dependencies shared by all handlers.
type API struct {
	engine *credauth.Engine
	notes  store.NoteStore
	logger *slog.Logger
}

// New binds the API to an engine and a note store. A nil logger discards
// request logs.
func New(engine *credauth.Engine, notes store.NoteStore, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &API{engine: engine, notes: notes, logger: logger}
}

// Routes returns the fully wired handler.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", a.handleRegister)
	mux.HandleFunc("POST /api/auth/verify-email", a.handleVerifyEmail)
	mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	mux.HandleFunc("POST /api/auth/reset-password/send-otp", a.handleResetSendOTP)
	mux.HandleFunc("POST /api/auth/reset-password/verify-otp", a.handleResetVerifyOTP)
	mux.HandleFunc("POST /api/auth/reset-password/save-new-password", a.handleResetSavePassword)

	mux.Handle("GET /api/users/me", a.requireSession(a.handleMe))

	mux.Handle("POST /api/notes", a.requireSession(a.handleCreateNote))
	mux.Handle("GET /api/notes", a.requireSession(a.handleListNotes))
	mux.Handle("GET /api/notes/{id}", a.requireSession(a.handleGetNote))
	mux.Handle("PUT /api/notes/{id}", a.requireSession(a.handleUpdateNote))
	mux.Handle("DELETE /api/notes/{id}", a.requireSession(a.handleDeleteNote))

	return a.logRequests(mux)
}
