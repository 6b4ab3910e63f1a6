package services

import (
	"testing"
	"time"

	"scrawl/contexts/publishing/article-service/domain/entities"
)

func TestUnionVisibleDropsDeadAndDuplicates(t *testing.T) {
	deletedAt := time.Now()
	a := entities.Article{ID: "a"}
	b := entities.Article{ID: "b"}
	dead := entities.Article{ID: "c", DeletedAt: &deletedAt}

	result := UnionVisible(
		[]entities.Article{a, dead},
		[]entities.Article{b, a},
	)
	if len(result) != 2 {
		t.Fatalf("union size = %d, want 2", len(result))
	}
	if result[0].ID != "a" || result[1].ID != "b" {
		t.Fatalf("union order = [%s %s], want discovery order [a b]", result[0].ID, result[1].ID)
	}
}

func TestCanMutate(t *testing.T) {
	deletedAt := time.Now()
	live := entities.Article{ID: "a", AuthorID: "alice"}
	dead := entities.Article{ID: "b", AuthorID: "alice", DeletedAt: &deletedAt}

	if !CanMutate("alice", live) {
		t.Fatal("author must be allowed to mutate a live article")
	}
	if CanMutate("bob", live) {
		t.Fatal("non-author must not mutate")
	}
	if CanMutate("", live) {
		t.Fatal("anonymous principal must not mutate")
	}
	if CanMutate("alice", dead) {
		t.Fatal("dead articles take no further mutations")
	}
}
