// internal/domain/models/post.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a community discussion thread. Content is stored sanitized.
type Post struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Content      string             `bson:"content" json:"content"`
	AuthorID     primitive.ObjectID `bson:"author_id" json:"authorId"`
	Category     string             `bson:"category,omitempty" json:"category,omitempty"`
	Tags         []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	CommentCount int                `bson:"comment_count" json:"commentCount"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Comment is a reply on a post, optionally threaded under another comment.
type Comment struct {
	ID        primitive.ObjectID  `bson:"_id" json:"id"`
	Content   string              `bson:"content" json:"content"`
	AuthorID  primitive.ObjectID  `bson:"author_id" json:"authorId"`
	PostID    primitive.ObjectID  `bson:"post_id" json:"postId"`
	ParentID  *primitive.ObjectID `bson:"parent_id,omitempty" json:"parentId,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updatedAt"`
}
