// Package articleservice implements article publishing, group sharing
// and the visibility rules for scrawl.
//
// Layering:
// - application/queries: visible-set, own-articles and single-article reads
// - application/commands: article, group, membership and share mutations
// - domain: entities with soft-delete semantics and pure visibility services
// - ports: stable boundaries for persistence, clocks and id providers
// - adapters: concrete memory, postgres and HTTP pieces
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - Visibility is the union of three paths: public shares, authorship,
//   and membership in a group the article is visibly shared into.
// - Soft-deleted rows stay in storage; every read filters on liveness.
// - The public group is a sentinel id, not a stored row.
package articleservice
