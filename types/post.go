package types

import "time"

// Post is a stored post record. The author's display name is not stored;
// it is joined in when a PostView is built.
type Post struct {
	// ID is the unique identifier of the post.
	ID string `json:"id" db:"id" bson:"_id"`

	// UserID references the authoring user. It never changes after creation.
	UserID string `json:"userId" db:"user_id" bson:"user"`

	// Text is the body of the post. It is never empty.
	Text string `json:"text" db:"text" bson:"text"`

	// ImageURL is the retrieval reference of the attached image, if any
	// (e.g., "/uploads/image-1700000000000-<uuid>.png").
	ImageURL string `json:"imageUrl,omitempty" db:"image_url" bson:"imageUrl,omitempty"`

	// Likes holds the ids of the users who liked the post. Each id appears
	// at most once.
	Likes []string `json:"likes" db:"likes" bson:"likes"`

	// CreatedAt is assigned by the server when the post is created.
	CreatedAt time.Time `json:"createdAt" db:"created_at" bson:"createdAt"`
}

// PostView is the client-facing projection of a post with the author's
// identity denormalized at read time.
type PostView struct {
	ID        string    `json:"id" db:"id"`
	Text      string    `json:"text" db:"text"`
	ImageURL  string    `json:"imageUrl,omitempty" db:"image_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	Likes     []string  `json:"likes" db:"likes"`
	UserID    string    `json:"userId" db:"user_id"`
	UserName  string    `json:"userName" db:"user_name"`
}

// LikedBy reports whether userID is in the post's like set.
func (p PostView) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// ImageKey returns the object storage key behind ImageURL, or "" when the
// post has no image.
func ImageKey(imageURL string) string {
	const prefix = "/uploads/"
	if len(imageURL) <= len(prefix) || imageURL[:len(prefix)] != prefix {
		return ""
	}
	return imageURL[len(prefix):]
}
