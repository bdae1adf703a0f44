package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"novai-server/internal/domain/ports/repository"
	"novai-server/internal/usecase"
)

// Server wires the use cases to the HTTP surface: cookie-session auth,
// account endpoints, the live chat endpoints and the saved-chat CRUD.
type Server struct {
	users       usecase.UserUseCase
	chat        usecase.ChatUseCase
	transcripts usecase.TranscriptUseCase
	sessions    repository.SessionRepository

	cookieName   string
	sessionTTL   time.Duration
	secureCookie bool
	modelName    string

	log *zerolog.Logger
}

func NewServer(
	users usecase.UserUseCase,
	chat usecase.ChatUseCase,
	transcripts usecase.TranscriptUseCase,
	sessions repository.SessionRepository,
	cookieName string,
	sessionTTL time.Duration,
	secureCookie bool,
	modelName string,
	logger *zerolog.Logger,
) *Server {
	webLog := logger.With().Str("component", "web").Logger()
	return &Server{
		users:        users,
		chat:         chat,
		transcripts:  transcripts,
		sessions:     sessions,
		cookieName:   cookieName,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
		modelName:    modelName,
		log:          &webLog,
	}
}

// Routes builds the chi router. Session-protected endpoints sit under one
// group; signup/login/change-password and the status probes stay open.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Post("/signup", s.handleSignup)
	r.Post("/login", s.handleLogin)
	r.Post("/change-password", s.handleChangePassword)
	r.Get("/check-auth", s.handleCheckAuth)
	r.Get("/ai-status", s.handleAIStatus)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Post("/logout", s.handleLogout)
		r.Post("/chat", s.handleChat)
		r.Get("/conversation", s.handleConversation)
		r.Post("/save-chat", s.handleSaveChat)
		r.Get("/chats", s.handleListChats)
		r.Get("/chat/{id}", s.handleGetChat)
		r.Put("/chat/{id}", s.handleRenameChat)
		r.Delete("/chat/{id}", s.handleDeleteChat)
	})

	return r
}

// ===== Session cookie primitives =====

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
