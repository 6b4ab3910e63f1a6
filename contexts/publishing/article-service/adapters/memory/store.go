package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"scrawl/contexts/publishing/article-service/domain/entities"
	domainerrors "scrawl/contexts/publishing/article-service/domain/errors"
)

// Store is an in-memory implementation of all publishing repositories plus
// the clock and ID generator ports, for development and tests. One RWMutex
// guards every map; the article compare-and-set runs under the write lock,
// which gives the read-modify-write atomicity the postgres adapter gets
// from its guarded UPDATE.
type Store struct {
	mu sync.RWMutex

	articlesByID     map[string]entities.Article
	groupsByID       map[string]entities.Group
	membershipsByID  map[string]entities.Membership
	associationsByID map[string]entities.Association
}

func NewStore() *Store {
	return &Store{
		articlesByID:     make(map[string]entities.Article),
		groupsByID:       make(map[string]entities.Group),
		membershipsByID:  make(map[string]entities.Membership),
		associationsByID: make(map[string]entities.Association),
	}
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(ctx context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) FindByID(ctx context.Context, id string) (entities.Article, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	article, ok := s.articlesByID[id]
	return article, ok, nil
}

func (s *Store) ListByAuthor(ctx context.Context, authorID string) ([]entities.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []entities.Article
	for _, article := range s.articlesByID {
		if article.AuthorID == authorID && article.Live() {
			result = append(result, article)
		}
	}
	sortByPosted(result)
	return result, nil
}

func (s *Store) Insert(ctx context.Context, article entities.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.articlesByID[article.ID]; exists {
		return domainerrors.ErrConflict
	}
	s.articlesByID[article.ID] = article
	return nil
}

func (s *Store) Update(ctx context.Context, article entities.Article, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.articlesByID[article.ID]
	if !ok || !stored.Live() || stored.Version != expectedVersion {
		return domainerrors.ErrConflict
	}
	s.articlesByID[article.ID] = article
	return nil
}

func (s *Store) SoftDelete(ctx context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	article, ok := s.articlesByID[id]
	if !ok || !article.Live() {
		return false, nil
	}
	at = at.UTC()
	article.DeletedAt = &at
	s.articlesByID[id] = article
	return true, nil
}

func (s *Store) FindGroupByID(ctx context.Context, id string) (entities.Group, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	group, ok := s.groupsByID[id]
	return group, ok, nil
}

func (s *Store) InsertGroup(ctx context.Context, group entities.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.groupsByID[group.ID]; exists {
		return domainerrors.ErrConflict
	}
	s.groupsByID[group.ID] = group
	return nil
}

func (s *Store) SoftDeleteGroup(ctx context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groupsByID[id]
	if !ok || !group.Live() {
		return false, nil
	}
	at = at.UTC()
	group.DeletedAt = &at
	s.groupsByID[id] = group
	return true, nil
}

func (s *Store) ListGroupsForUser(ctx context.Context, userID string) ([]entities.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []entities.Group
	for _, membership := range s.membershipsByID {
		if membership.UserID != userID || !membership.Live() {
			continue
		}
		group, ok := s.groupsByID[membership.GroupID]
		if !ok || !group.Live() {
			continue
		}
		result = append(result, group)
	}
	return result, nil
}

func (s *Store) FindMembership(ctx context.Context, userID string, groupID string) (entities.Membership, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// Prefer the live row; soft-deleted memberships are never resurrected,
	// so a dead row must not shadow a later live one.
	var dead entities.Membership
	var deadFound bool
	for _, membership := range s.membershipsByID {
		if membership.UserID != userID || membership.GroupID != groupID {
			continue
		}
		if membership.Live() {
			return membership, true, nil
		}
		dead = membership
		deadFound = true
	}
	return dead, deadFound, nil
}

func (s *Store) InsertMembership(ctx context.Context, membership entities.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.membershipsByID {
		if existing.UserID == membership.UserID &&
			existing.GroupID == membership.GroupID &&
			existing.Live() {
			return domainerrors.ErrConflict
		}
	}
	s.membershipsByID[membership.ID] = membership
	return nil
}

func (s *Store) SoftDeleteMembership(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	membership, ok := s.membershipsByID[id]
	if !ok || !membership.Live() {
		return domainerrors.ErrNotFound
	}
	at = at.UTC()
	membership.DeletedAt = &at
	s.membershipsByID[id] = membership
	return nil
}

func (s *Store) ListPublicVisible(ctx context.Context) ([]entities.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []entities.Article
	for _, association := range s.associationsByID {
		if !association.Live() || !association.Visible {
			continue
		}
		if !entities.IsPublicGroup(association.GroupID) {
			continue
		}
		article, ok := s.articlesByID[association.ArticleID]
		if !ok || !article.Live() {
			continue
		}
		result = append(result, article)
	}
	sortByPosted(result)
	return result, nil
}

func (s *Store) ListVisibleForGroups(ctx context.Context, groupIDs []string) ([]entities.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[string]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		wanted[id] = struct{}{}
	}
	seen := make(map[string]struct{})
	var result []entities.Article
	for _, association := range s.associationsByID {
		if !association.Live() || !association.Visible {
			continue
		}
		if _, ok := wanted[association.GroupID]; !ok {
			continue
		}
		article, ok := s.articlesByID[association.ArticleID]
		if !ok || !article.Live() {
			continue
		}
		if _, dup := seen[article.ID]; dup {
			continue
		}
		seen[article.ID] = struct{}{}
		result = append(result, article)
	}
	sortByPosted(result)
	return result, nil
}

func (s *Store) ListByArticle(ctx context.Context, articleID string) ([]entities.Association, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []entities.Association
	for _, association := range s.associationsByID {
		if association.ArticleID == articleID && association.Live() {
			result = append(result, association)
		}
	}
	return result, nil
}

func (s *Store) FindAssociation(ctx context.Context, articleID string, groupID string) (entities.Association, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var dead entities.Association
	var deadFound bool
	for _, association := range s.associationsByID {
		if association.ArticleID != articleID || association.GroupID != groupID {
			continue
		}
		if association.Live() {
			return association, true, nil
		}
		dead = association
		deadFound = true
	}
	return dead, deadFound, nil
}

func (s *Store) InsertAssociation(ctx context.Context, association entities.Association) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.associationsByID {
		if existing.ArticleID == association.ArticleID &&
			existing.GroupID == association.GroupID &&
			existing.Live() {
			return domainerrors.ErrConflict
		}
	}
	s.associationsByID[association.ID] = association
	return nil
}

func (s *Store) SetVisible(ctx context.Context, id string, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	association, ok := s.associationsByID[id]
	if !ok || !association.Live() {
		return domainerrors.ErrNotFound
	}
	association.Visible = visible
	s.associationsByID[id] = association
	return nil
}

func (s *Store) SoftDeleteAssociation(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	association, ok := s.associationsByID[id]
	if !ok || !association.Live() {
		return domainerrors.ErrNotFound
	}
	at = at.UTC()
	association.DeletedAt = &at
	s.associationsByID[id] = association
	return nil
}

func sortByPosted(articles []entities.Article) {
	// Map iteration order is random; posted order keeps results
	// deterministic for callers and tests.
	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PostedAt.Before(articles[j].PostedAt)
	})
}
