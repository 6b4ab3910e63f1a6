package sessionservice

import (
	"log/slog"
	"time"

	"scrawl/contexts/identity/session-service/adapters/credentials"
	httpadapter "scrawl/contexts/identity/session-service/adapters/http"
	"scrawl/contexts/identity/session-service/adapters/memory"
	"scrawl/contexts/identity/session-service/adapters/token"
	"scrawl/contexts/identity/session-service/application"
	"scrawl/contexts/identity/session-service/ports"
)

// Module is the session-service composition root exposed to runtime wiring.
type Module struct {
	Handler httpadapter.Handler
	Service *application.Service
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Sessions ports.SessionRepository
	Users    ports.UserRepository
	Clock    ports.Clock
	Keys     ports.KeyGenerator
	IDs      ports.IDGenerator
	Hasher   ports.CredentialHasher
	Window   time.Duration
	Logger   *slog.Logger
}

// NewModule wires the session manager and credential verifier using
// explicit ports.
func NewModule(deps Dependencies) Module {
	service := application.NewService(
		deps.Sessions,
		deps.Users,
		deps.Clock,
		deps.Keys,
		deps.IDs,
		deps.Hasher,
		deps.Window,
		deps.Logger,
	)
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Sessions: store,
		Users:    store,
		Clock:    store,
		Keys:     token.NewGenerator(),
		IDs:      store,
		Hasher:   credentials.NewBcryptHasher(0),
		Window:   application.DefaultWindow,
		Logger:   logger,
	})
	module.Store = store
	return module
}
