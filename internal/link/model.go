package link

import "time"

// SlugLength is the fixed length of generated slugs.
const SlugLength = 12

// Link is the central entity: a slug pointing at a target URL, owned by a
// user, optionally expiring.
type Link struct {
	ID        int64
	Slug      string
	TargetURL string
	OwnerID   int64
	CreatedAt time.Time
	ExpireAt  *time.Time
}

// CreateLink holds the fields for inserting a new link. The id and creation
// timestamp are assigned by storage.
type CreateLink struct {
	Slug      string
	TargetURL string
	OwnerID   int64
	ExpireAt  *time.Time
}

// ExpiredAt reports whether the link is expired relative to now.
func (l Link) ExpiredAt(now time.Time) bool {
	return l.ExpireAt != nil && l.ExpireAt.Before(now)
}
