// internal/community/repository.go

package community

import "context"

type Repository interface {
	Create(ctx context.Context, c *Community) error
	GetByID(ctx context.Context, id int64) (*Community, error)
	// ListActive returns a capped pool of public communities plus any
	// private ones the user already belongs to. Distance filtering
	// happens in memory.
	ListActive(ctx context.Context, userID int64, limit int) ([]*Community, error)
	AddMember(ctx context.Context, communityID, userID int64) error
	RemoveMember(ctx context.Context, communityID, userID int64) error
}
