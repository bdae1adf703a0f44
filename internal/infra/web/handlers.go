package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"novai-server/internal/domain"
	"novai-server/internal/domain/model"
	"novai-server/internal/domain/ports/adapter"
)

// ===== Accounts =====

type signupRequest struct {
	Nickname string `json:"nickname"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Nickname) == "" || strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	_, err := s.users.Register(r.Context(), req.Nickname, req.Username, req.Password)
	if err != nil {
		// Duplicate usernames answer 401, a quirk kept from the original
		// frontend contract.
		if errors.Is(err, domain.ErrAlreadyExists) {
			writeMessage(w, http.StatusUnauthorized, "Username already exists")
			return
		}
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeMessage(w, http.StatusBadRequest, "All fields are required")
			return
		}
		s.serverError(w, r, err, "signup failed")
		return
	}
	writeMessage(w, http.StatusOK, "Registration complete")
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	user, err := s.users.Verify(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.serverError(w, r, err, "login failed")
		return
	}

	token, err := s.sessions.Create(r.Context(), model.Identity{
		Username: user.Username,
		Nickname: user.Nickname,
	})
	if err != nil {
		s.serverError(w, r, err, "session create failed")
		return
	}
	s.setSessionCookie(w, token)

	writeJSON(w, http.StatusOK, struct {
		Message  string `json:"message"`
		Username string `json:"username"`
		Nickname string `json:"nickname"`
	}{"Login OK", user.Username, user.Nickname})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	_, token, err := s.sessionFrom(r)
	if err != nil {
		// requireSession already vouched for the session; a failure here is
		// a store problem, not an auth one.
		s.serverError(w, r, err, "logout failed")
		return
	}
	if err := s.sessions.Destroy(r.Context(), token); err != nil {
		s.serverError(w, r, err, "logout failed")
		return
	}
	s.clearSessionCookie(w)
	writeMessage(w, http.StatusOK, "Logged out")
}

func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	type logged struct {
		Logged bool `json:"logged"`
	}
	if _, _, err := s.sessionFrom(r); err != nil {
		writeJSON(w, http.StatusUnauthorized, logged{false})
		return
	}
	writeJSON(w, http.StatusOK, logged{true})
}

type changePasswordRequest struct {
	Username    string `json:"username"`
	Nickname    string `json:"nickname"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Nickname) == "" || req.NewPassword == "" {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return
	}

	err := s.users.ChangePassword(r.Context(), req.Username, req.Nickname, req.NewPassword)
	switch {
	case err == nil:
		writeMessage(w, http.StatusOK, "Password updated")
	case errors.Is(err, domain.ErrNotFound):
		writeMessage(w, http.StatusUnauthorized, "User not found")
	case errors.Is(err, domain.ErrSamePassword):
		writeMessage(w, http.StatusBadRequest, "The new password cannot match the current one")
	default:
		s.serverError(w, r, err, "change password failed")
	}
}

// ===== Live chat =====

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeMessage(w, http.StatusBadRequest, "Empty message")
		return
	}

	reply, ts, err := s.chat.SendMessage(r.Context(), identity.Username, req.Message)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeMessage(w, http.StatusBadRequest, "Empty message")
			return
		}
		s.log.Error().Err(err).Str("username", identity.Username).Msg("chat failed")
		writeJSON(w, http.StatusInternalServerError, struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}{"AI error: " + err.Error(), err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Reply     string `json:"reply"`
		Timestamp string `json:"timestamp"`
	}{reply, ts.UTC().Format("2006-01-02T15:04:05.000Z")})
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	writeJSON(w, http.StatusOK, struct {
		Conversation []model.Message `json:"conversation"`
	}{s.chat.Conversation(identity.Username)})
}

func (s *Server) handleAIStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.chat.Status(r.Context())
	if err != nil {
		s.log.Warn().Err(err).Msg("ai status probe failed")
		writeJSON(w, http.StatusServiceUnavailable, struct {
			Status        string `json:"status"`
			OllamaRunning bool   `json:"ollamaRunning"`
			Model         string `json:"model"`
			Error         string `json:"error"`
			ErrorCode     string `json:"errorCode"`
			InstallGuide  string `json:"installGuide"`
		}{
			Status:        "offline",
			OllamaRunning: false,
			Model:         s.modelName,
			Error:         err.Error(),
			ErrorCode:     adapter.Kind(err),
			InstallGuide: fmt.Sprintf("1. Install Ollama from https://ollama.com\n2. Run: ollama pull %s\n3. Run: ollama run %s",
				s.modelName, s.modelName),
		})
		return
	}

	models := status.AvailableModels
	if models == nil {
		models = []string{}
	}
	writeJSON(w, http.StatusOK, struct {
		Status          string   `json:"status"`
		OllamaRunning   bool     `json:"ollamaRunning"`
		Model           string   `json:"model"`
		ModelAvailable  bool     `json:"modelAvailable"`
		AvailableModels []string `json:"availableModels"`
	}{"online", status.Running, status.Model, status.ModelAvailable, models})
}

// ===== Saved chats =====

type saveChatRequest struct {
	Title    string          `json:"title"`
	Messages []model.Message `json:"messages"`
}

func (s *Server) handleSaveChat(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	var req saveChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" || req.Messages == nil {
		writeMessage(w, http.StatusBadRequest, "Missing data")
		return
	}

	tr, err := s.transcripts.Save(r.Context(), identity.Username, req.Title, req.Messages)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeMessage(w, http.StatusBadRequest, "Missing data")
			return
		}
		s.serverError(w, r, err, "save chat failed")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string            `json:"message"`
		Chat    *model.Transcript `json:"chat"`
	}{"Chat saved", tr})
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	chats, err := s.transcripts.List(r.Context(), identity.Username)
	if err != nil {
		s.serverError(w, r, err, "list chats failed")
		return
	}
	if chats == nil {
		chats = []model.TranscriptSummary{}
	}
	writeJSON(w, http.StatusOK, struct {
		Chats []model.TranscriptSummary `json:"chats"`
	}{chats})
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	tr, err := s.transcripts.Get(r.Context(), identity.Username, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Chat not found")
			return
		}
		s.serverError(w, r, err, "get chat failed")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Chat *model.Transcript `json:"chat"`
	}{tr})
}

type renameChatRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleRenameChat(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	var req renameChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeMessage(w, http.StatusBadRequest, "Missing title")
		return
	}

	tr, err := s.transcripts.Rename(r.Context(), identity.Username, chi.URLParam(r, "id"), req.Title)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Chat not found")
			return
		}
		s.serverError(w, r, err, "rename chat failed")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string            `json:"message"`
		Chat    *model.Transcript `json:"chat"`
	}{"Chat renamed", tr})
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	err := s.transcripts.Delete(r.Context(), identity.Username, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Chat not found")
			return
		}
		s.serverError(w, r, err, "delete chat failed")
		return
	}
	writeMessage(w, http.StatusOK, "Chat deleted")
}

// serverError hides internals behind a generic 500 and logs the detail.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	s.log.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	writeMessage(w, http.StatusInternalServerError, "Server error")
}
