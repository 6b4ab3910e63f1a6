package httpadapter

import (
	"context"
	"log/slog"

	"scrawl/contexts/identity/session-service/application"
	httptransport "scrawl/contexts/identity/session-service/transport/http"
)

// Handler maps HTTP DTOs to session service operations. Session resolution
// itself (cookie handling) lives in the platform layer, which passes the
// opaque key down explicitly.
type Handler struct {
	Service *application.Service
	Logger  *slog.Logger
}

// RegisterHandler creates a user account.
func (h Handler) RegisterHandler(ctx context.Context, request httptransport.RegisterRequest) (httptransport.UserResponse, error) {
	user, err := h.Service.Register(ctx, request.Username, request.DisplayName, request.Password)
	if err != nil {
		application.ResolveLogger(h.Logger).Debug("http register rejected",
			"event", "session_http_register_rejected",
			"module", "identity/session-service",
			"layer", "transport",
			"error", err.Error(),
		)
		return httptransport.UserResponse{}, err
	}
	return httptransport.UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
	}, nil
}

// LoginHandler authenticates the credentials and binds the user to the
// session behind sessionKey.
func (h Handler) LoginHandler(ctx context.Context, sessionKey string, request httptransport.LoginRequest) error {
	_, err := h.Service.Login(ctx, sessionKey, request.Username, request.Password)
	return err
}

// LogoffHandler removes the session row behind sessionKey.
func (h Handler) LogoffHandler(ctx context.Context, sessionKey string) error {
	return h.Service.Logoff(ctx, sessionKey)
}
