package articleservice

import (
	"log/slog"

	httpadapter "scrawl/contexts/publishing/article-service/adapters/http"
	"scrawl/contexts/publishing/article-service/adapters/memory"
	"scrawl/contexts/publishing/article-service/application/commands"
	"scrawl/contexts/publishing/article-service/application/queries"
	"scrawl/contexts/publishing/article-service/ports"
)

// Module is the article-service composition root exposed to runtime wiring.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Articles     ports.ArticleRepository
	Groups       ports.GroupRepository
	Memberships  ports.MembershipRepository
	Associations ports.AssociationRepository
	Clock        ports.Clock
	IDs          ports.IDGenerator
	Logger       *slog.Logger
}

// NewModule wires the publishing queries and commands using explicit
// ports.
func NewModule(deps Dependencies) Module {
	return Module{
		Handler: httpadapter.Handler{
			VisibleArticles: queries.VisibleArticlesUseCase{
				Articles:     deps.Articles,
				Memberships:  deps.Memberships,
				Associations: deps.Associations,
				Logger:       deps.Logger,
			},
			OwnArticles: queries.ListOwnArticlesUseCase{
				Articles: deps.Articles,
				Logger:   deps.Logger,
			},
			GetArticle: queries.GetArticleUseCase{
				Articles:     deps.Articles,
				Groups:       deps.Groups,
				Memberships:  deps.Memberships,
				Associations: deps.Associations,
				Logger:       deps.Logger,
			},
			CreateArticle: commands.CreateArticleUseCase{
				Articles:     deps.Articles,
				Groups:       deps.Groups,
				Memberships:  deps.Memberships,
				Associations: deps.Associations,
				Clock:        deps.Clock,
				IDs:          deps.IDs,
				Logger:       deps.Logger,
			},
			UpdateArticle: commands.UpdateArticleUseCase{
				Articles: deps.Articles,
				Clock:    deps.Clock,
				Logger:   deps.Logger,
			},
			DeleteArticle: commands.DeleteArticleUseCase{
				Articles: deps.Articles,
				Clock:    deps.Clock,
				Logger:   deps.Logger,
			},
			CreateGroup: commands.CreateGroupUseCase{
				Groups: deps.Groups,
				IDs:    deps.IDs,
				Logger: deps.Logger,
			},
			DeleteGroup: commands.DeleteGroupUseCase{
				Groups: deps.Groups,
				Clock:  deps.Clock,
				Logger: deps.Logger,
			},
			JoinGroup: commands.JoinGroupUseCase{
				Groups:      deps.Groups,
				Memberships: deps.Memberships,
				IDs:         deps.IDs,
				Logger:      deps.Logger,
			},
			LeaveGroup: commands.LeaveGroupUseCase{
				Memberships: deps.Memberships,
				Clock:       deps.Clock,
				Logger:      deps.Logger,
			},
			ShareArticle: commands.ShareArticleUseCase{
				Articles:     deps.Articles,
				Groups:       deps.Groups,
				Memberships:  deps.Memberships,
				Associations: deps.Associations,
				IDs:          deps.IDs,
				Logger:       deps.Logger,
			},
			RevokeShare: commands.RevokeShareUseCase{
				Articles:     deps.Articles,
				Associations: deps.Associations,
				Clock:        deps.Clock,
				Logger:       deps.Logger,
			},
			Logger: deps.Logger,
		},
	}
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Articles:     store,
		Groups:       store,
		Memberships:  store,
		Associations: store,
		Clock:        store,
		IDs:          store,
		Logger:       logger,
	})
	module.Store = store
	return module
}
