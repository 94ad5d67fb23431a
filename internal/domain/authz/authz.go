package authz

import "github.com/tulisku/tulisku/internal/domain/entity"

// CanModify reports whether actorID may mutate the given post.
// Only the post's author may; anonymous actors (empty id) never can.
// Pure predicate: the caller decides how to signal a refusal.
func CanModify(p *entity.Post, actorID string) bool {
	if p == nil || actorID == "" {
		return false
	}
	return p.AuthorID == actorID
}
