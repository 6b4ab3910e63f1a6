package httpadapter

import (
	"context"
	"log/slog"

	"scrawl/contexts/publishing/article-service/application"
	"scrawl/contexts/publishing/article-service/application/commands"
	"scrawl/contexts/publishing/article-service/application/queries"
	"scrawl/contexts/publishing/article-service/domain/entities"
	"scrawl/contexts/publishing/article-service/ports"
	httptransport "scrawl/contexts/publishing/article-service/transport/http"
)

// Handler maps HTTP DTOs to publishing use cases. The principal is
// resolved by the platform layer and passed down explicitly; an empty
// principalID means an anonymous caller.
type Handler struct {
	VisibleArticles queries.VisibleArticlesUseCase
	OwnArticles     queries.ListOwnArticlesUseCase
	GetArticle      queries.GetArticleUseCase
	CreateArticle   commands.CreateArticleUseCase
	UpdateArticle   commands.UpdateArticleUseCase
	DeleteArticle   commands.DeleteArticleUseCase
	CreateGroup     commands.CreateGroupUseCase
	DeleteGroup     commands.DeleteGroupUseCase
	JoinGroup       commands.JoinGroupUseCase
	LeaveGroup      commands.LeaveGroupUseCase
	ShareArticle    commands.ShareArticleUseCase
	RevokeShare     commands.RevokeShareUseCase
	Logger          *slog.Logger
}

// VisibleArticlesHandler returns the caller's full visible set.
func (h Handler) VisibleArticlesHandler(ctx context.Context, principalID string) (httptransport.ArticleListResponse, error) {
	articles, err := h.VisibleArticles.Execute(ctx, principalID)
	if err != nil {
		return httptransport.ArticleListResponse{}, err
	}
	return toArticleListResponse(articles), nil
}

// OwnArticlesHandler returns the caller's live articles regardless of
// sharing state.
func (h Handler) OwnArticlesHandler(ctx context.Context, principalID string) (httptransport.ArticleListResponse, error) {
	articles, err := h.OwnArticles.Execute(ctx, principalID)
	if err != nil {
		return httptransport.ArticleListResponse{}, err
	}
	return toArticleListResponse(articles), nil
}

// GetArticleHandler returns one readable article with its shares.
func (h Handler) GetArticleHandler(ctx context.Context, principalID string, articleID string) (httptransport.ArticleResponse, error) {
	article, shares, err := h.GetArticle.Execute(ctx, principalID, articleID)
	if err != nil {
		return httptransport.ArticleResponse{}, err
	}
	response := toArticleResponse(article)
	response.Shares = toShareResponses(shares)
	return response, nil
}

func (h Handler) CreateArticleHandler(ctx context.Context, principalID string, request httptransport.CreateArticleRequest) (httptransport.ArticleResponse, error) {
	command := commands.CreateArticleCommand{
		Title:   request.Title,
		Content: request.Content,
	}
	for _, share := range request.Shares {
		command.Shares = append(command.Shares, commands.ShareSpec{
			GroupID: share.GroupID,
			Visible: share.Visible,
		})
	}
	article, err := h.CreateArticle.Execute(ctx, principalID, command)
	if err != nil {
		application.ResolveLogger(h.Logger).Debug("http create article rejected",
			"event", "blog_http_create_article_rejected",
			"module", "publishing/article-service",
			"layer", "transport",
			"error", err.Error(),
		)
		return httptransport.ArticleResponse{}, err
	}
	return toArticleResponse(article), nil
}

func (h Handler) UpdateArticleHandler(ctx context.Context, principalID string, articleID string, request httptransport.UpdateArticleRequest) (httptransport.ArticleResponse, error) {
	patch := ports.ArticlePatch{
		Title:   request.Title,
		Content: request.Content,
	}
	article, err := h.UpdateArticle.Execute(ctx, principalID, articleID, patch)
	if err != nil {
		return httptransport.ArticleResponse{}, err
	}
	return toArticleResponse(article), nil
}

func (h Handler) DeleteArticleHandler(ctx context.Context, principalID string, articleID string) error {
	return h.DeleteArticle.Execute(ctx, principalID, articleID)
}

func (h Handler) CreateGroupHandler(ctx context.Context, principalID string, request httptransport.CreateGroupRequest) (httptransport.GroupResponse, error) {
	group, err := h.CreateGroup.Execute(ctx, principalID, commands.CreateGroupCommand{
		Name:        request.Name,
		Description: request.Description,
	})
	if err != nil {
		return httptransport.GroupResponse{}, err
	}
	return httptransport.GroupResponse{
		ID:          group.ID,
		OwnerID:     group.OwnerID,
		Name:        group.Name,
		Description: group.Description,
	}, nil
}

func (h Handler) DeleteGroupHandler(ctx context.Context, principalID string, groupID string) error {
	return h.DeleteGroup.Execute(ctx, principalID, groupID)
}

func (h Handler) JoinGroupHandler(ctx context.Context, principalID string, groupID string, request httptransport.JoinGroupRequest) (httptransport.MembershipResponse, error) {
	membership, err := h.JoinGroup.Execute(ctx, principalID, groupID, request.WriteAllowed)
	if err != nil {
		return httptransport.MembershipResponse{}, err
	}
	return httptransport.MembershipResponse{
		ID:           membership.ID,
		UserID:       membership.UserID,
		GroupID:      membership.GroupID,
		WriteAllowed: membership.WriteAllowed,
	}, nil
}

func (h Handler) LeaveGroupHandler(ctx context.Context, principalID string, groupID string) error {
	return h.LeaveGroup.Execute(ctx, principalID, groupID)
}

func (h Handler) ShareArticleHandler(ctx context.Context, principalID string, articleID string, request httptransport.ShareArticleRequest) (httptransport.ShareResponse, error) {
	association, err := h.ShareArticle.Execute(ctx, principalID, articleID, request.GroupID, request.Visible)
	if err != nil {
		return httptransport.ShareResponse{}, err
	}
	return httptransport.ShareResponse{
		GroupID: association.GroupID,
		Visible: association.Visible,
	}, nil
}

func (h Handler) RevokeShareHandler(ctx context.Context, principalID string, articleID string, request httptransport.RevokeShareRequest) error {
	return h.RevokeShare.Execute(ctx, principalID, articleID, request.GroupID)
}

func toArticleResponse(article entities.Article) httptransport.ArticleResponse {
	return httptransport.ArticleResponse{
		ID:         article.ID,
		AuthorID:   article.AuthorID,
		Title:      article.Title,
		Content:    article.Content,
		PostedAt:   article.PostedAt,
		LastEditAt: article.LastEditAt,
	}
}

func toArticleListResponse(articles []entities.Article) httptransport.ArticleListResponse {
	response := httptransport.ArticleListResponse{
		Articles: make([]httptransport.ArticleResponse, 0, len(articles)),
	}
	for _, article := range articles {
		response.Articles = append(response.Articles, toArticleResponse(article))
	}
	return response
}

func toShareResponses(shares []queries.ArticleShare) []httptransport.ShareResponse {
	responses := make([]httptransport.ShareResponse, 0, len(shares))
	for _, share := range shares {
		responses = append(responses, httptransport.ShareResponse{
			GroupID:   share.GroupID,
			GroupName: share.GroupName,
			Visible:   share.Visible,
		})
	}
	return responses
}
