package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	sessionservice "scrawl/contexts/identity/session-service"
	sessionerrors "scrawl/contexts/identity/session-service/domain/errors"
	sessionhttp "scrawl/contexts/identity/session-service/transport/http"
	"scrawl/contexts/identity/session-service/ports"
	articleservice "scrawl/contexts/publishing/article-service"
	blogerrors "scrawl/contexts/publishing/article-service/domain/errors"
	bloghttp "scrawl/contexts/publishing/article-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "scrawl/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	sessions   sessionservice.Module
	blog       articleservice.Module
	cookieName string
	cookieTTL  time.Duration
}

func New(
	sessions sessionservice.Module,
	blog articleservice.Module,
	logger *slog.Logger,
	addr string,
	cookieName string,
	cookieTTL time.Duration,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	if cookieName == "" {
		cookieName = "scrawl_session"
	}
	if cookieTTL <= 0 {
		cookieTTL = 24 * time.Hour
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		sessions:   sessions,
		blog:       blog,
		cookieName: cookieName,
		cookieTTL:  cookieTTL,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routed mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/auth/v1/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/v1/login", s.withSession(s.handleLogin))
	s.mux.HandleFunc("POST /api/auth/v1/logoff", s.withSession(s.handleLogoff))
	s.mux.HandleFunc("GET /api/auth/v1/me", s.withSession(s.handleMe))

	s.mux.HandleFunc("GET /api/blog/v1/articles", s.withSession(s.handleVisibleArticles))
	s.mux.HandleFunc("GET /api/blog/v1/articles/mine", s.withSession(s.handleOwnArticles))
	s.mux.HandleFunc("GET /api/blog/v1/articles/{article_id}", s.withSession(s.handleGetArticle))
	s.mux.HandleFunc("POST /api/blog/v1/articles", s.withSession(s.handleCreateArticle))
	s.mux.HandleFunc("PATCH /api/blog/v1/articles/{article_id}", s.withSession(s.handleUpdateArticle))
	s.mux.HandleFunc("DELETE /api/blog/v1/articles/{article_id}", s.withSession(s.handleDeleteArticle))
	s.mux.HandleFunc("POST /api/blog/v1/articles/{article_id}/share", s.withSession(s.handleShareArticle))
	s.mux.HandleFunc("DELETE /api/blog/v1/articles/{article_id}/share", s.withSession(s.handleRevokeShare))

	s.mux.HandleFunc("POST /api/blog/v1/groups", s.withSession(s.handleCreateGroup))
	s.mux.HandleFunc("DELETE /api/blog/v1/groups/{group_id}", s.withSession(s.handleDeleteGroup))
	s.mux.HandleFunc("POST /api/blog/v1/groups/{group_id}/join", s.withSession(s.handleJoinGroup))
	s.mux.HandleFunc("POST /api/blog/v1/groups/{group_id}/leave", s.withSession(s.handleLeaveGroup))
}

// sessionHandler receives the resolved session and, when one is bound,
// the logged-in user. A zero principal (empty ID) is an anonymous
// caller.
type sessionHandler func(w http.ResponseWriter, r *http.Request, session ports.Session, principal ports.User)

// withSession resolves the session cookie before the wrapped handler
// runs. Acquire renews live sessions and replaces expired ones, so the
// cookie is rewritten whenever the key changed.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var key string
		if cookie, err := r.Cookie(s.cookieName); err == nil {
			key = cookie.Value
		}

		session, err := s.sessions.Service.Acquire(r.Context(), key)
		if err != nil {
			writeSessionDomainError(w, err)
			return
		}
		if session.Key != key {
			s.setSessionCookie(w, session.Key)
		}

		var principal ports.User
		user, ok, err := s.sessions.Service.CurrentUser(r.Context(), session)
		if err != nil {
			writeSessionDomainError(w, err)
			return
		}
		if ok {
			principal = user
		}

		next(w, r, session, principal)
	}
}

func (s *Server) setSessionCookie(w http.ResponseWriter, key string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    key,
		Path:     "/",
		MaxAge:   int(s.cookieTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req sessionhttp.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSessionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.sessions.Handler.RegisterHandler(r.Context(), req)
	if err != nil {
		writeSessionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, session ports.Session, _ ports.User) {
	var req sessionhttp.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSessionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.sessions.Handler.LoginHandler(r.Context(), session.Key, req); err != nil {
		writeSessionDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogoff(w http.ResponseWriter, r *http.Request, session ports.Session, _ ports.User) {
	if err := s.sessions.Handler.LogoffHandler(r.Context(), session.Key); err != nil {
		writeSessionDomainError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, _ ports.Session, principal ports.User) {
	if principal.ID == "" {
		writeSessionError(w, http.StatusForbidden, "session_required", "no user is bound to this session")
		return
	}
	writeJSON(w, http.StatusOK, sessionhttp.UserResponse{
		ID:          principal.ID,
		Username:    principal.Username,
		DisplayName: principal.DisplayName,
		AvatarURL:   principal.AvatarURL,
	})
}

func (s *Server) handleVisibleArticles(w http.ResponseWriter, r *http.Request, _ ports.Session, principal ports.User) {
	resp, err := s.blog.Handler.VisibleArticlesHandler(r.Context(), principal.ID)
	if err != nil {
		writeBlogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOwnArticles(w http.ResponseWriter, r *http.Request, _ ports.Session, principal ports.User) {
	resp, err := s.blog.Handler.OwnArticlesHandler(r.Context(), principal.ID)
	if err != nil {
		writeBlogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request, _ ports.Session, principal ports.User) {
	articleID := r.PathValue("article_id")
	resp, err := s.blog.Handler.GetArticleHandler(r.Context(), principal.ID, articleID)
	if err != nil {
		writeBlogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request, _ ports.Session, principal ports.User) {
	var req bloghttp.CreateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBlogError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.blog.Handler.CreateArticleHandler(r.Context(), principal.ID, req)
	if err != nil {
		writeBlogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request, _ ports.Session, principal ports.User) {
	// Partial edits distinguish absent fields from empty ones, so an
	// unknown field is a client bug worth rejecting outright.
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req bloghttp.UpdateArticleRequest
	if err := decoder.Decode(&req); err != nil {
		writeBlogError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON with known fields")
		return
	}
	articleID := r.PathValue("article_id")
	resp, err := s.blog.Handler.UpdateArticleHandler(r.Context(), principal.ID, articleID, req)
	if err != nil {
		writeBlogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request, _ ports.Session, principal ports.User) {
	articleID := r.PathValue("article_id")
	if err := s.blog.Handler.DeleteArticleHandler(r.Context(), principal.ID, articleID); err != nil {
		writeBlogDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleShareArticle(w http.ResponseWriter, r *http.Request, _ ports.Session, principal ports.User) {
	var req bloghttp.ShareArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBlogError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	articleID := r.PathValue("article_id")
	resp, err := s.blog.Handler.ShareArticleHandler(r.Context(), principal.ID, articleID, req)
	if err != nil {
		writeBlogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRevokeShare(w http.ResponseWriter, r *http.Request, _ ports.Session, principal ports.User) {
	var req bloghttp.RevokeShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBlogError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	articleID := r.PathValue("article_id")
	if err := s.blog.Handler.RevokeShareHandler(r.Context(), principal.ID, articleID, req); err != nil {
		writeBlogDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request, _ ports.Session, principal ports.User) {
	var req bloghttp.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBlogError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.blog.Handler.CreateGroupHandler(r.Context(), principal.ID, req)
	if err != nil {
		writeBlogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request, _ ports.Session, principal ports.User) {
	groupID := r.PathValue("group_id")
	if err := s.blog.Handler.DeleteGroupHandler(r.Context(), principal.ID, groupID); err != nil {
		writeBlogDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request, _ ports.Session, principal ports.User) {
	// The body is optional; an absent one means a read-only membership.
	// ContentLength is unreliable for chunked requests, so decode and
	// accept EOF as the empty body.
	var req bloghttp.JoinGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBlogError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	groupID := r.PathValue("group_id")
	resp, err := s.blog.Handler.JoinGroupHandler(r.Context(), principal.ID, groupID, req)
	if err != nil {
		writeBlogDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLeaveGroup(w http.ResponseWriter, r *http.Request, _ ports.Session, principal ports.User) {
	groupID := r.PathValue("group_id")
	if err := s.blog.Handler.LeaveGroupHandler(r.Context(), principal.ID, groupID); err != nil {
		writeBlogDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeSessionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sessionerrors.ErrInvalidCredentials):
		writeSessionError(w, http.StatusForbidden, "invalid_credentials", err.Error())
	case errors.Is(err, sessionerrors.ErrSessionRequired):
		writeSessionError(w, http.StatusForbidden, "session_required", err.Error())
	case errors.Is(err, sessionerrors.ErrValidation):
		writeSessionError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, sessionerrors.ErrConflict):
		writeSessionError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, sessionerrors.ErrNotFound):
		writeSessionError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeSessionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeBlogDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, blogerrors.ErrNotFound):
		writeBlogError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, blogerrors.ErrForbidden):
		writeBlogError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, blogerrors.ErrValidation):
		writeBlogError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, blogerrors.ErrConflict):
		writeBlogError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeBlogError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeSessionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, sessionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeBlogError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, bloghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
