package services

import (
	"scrawl/contexts/publishing/article-service/domain/entities"
)

// UnionVisible merges the three visibility paths (public, ownership,
// membership) into one set, deduplicated by article identity. Discovery
// order is preserved; no further ordering is guaranteed to callers.
// Soft-deleted articles are dropped regardless of which path produced them.
func UnionVisible(paths ...[]entities.Article) []entities.Article {
	seen := make(map[string]struct{})
	var result []entities.Article
	for _, path := range paths {
		for _, article := range path {
			if !article.Live() {
				continue
			}
			if _, ok := seen[article.ID]; ok {
				continue
			}
			seen[article.ID] = struct{}{}
			result = append(result, article)
		}
	}
	return result
}

// CanMutate is the authorization gate for article mutations: only the
// author of a live article may edit or soft-delete it.
func CanMutate(principalID string, article entities.Article) bool {
	if principalID == "" {
		return false
	}
	if !article.Live() {
		return false
	}
	return article.AuthorID == principalID
}
