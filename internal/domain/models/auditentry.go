// internal/domain/models/auditentry.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditEntry records one privileged administrative action. Entries are
// append-only.
type AuditEntry struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	AdminID         primitive.ObjectID `bson:"admin_id" json:"adminId"`
	AdminEmail      string             `bson:"admin_email" json:"adminEmail"`
	Action          string             `bson:"action" json:"action"`
	TargetUserID    primitive.ObjectID `bson:"target_user_id" json:"targetUserId"`
	TargetUserEmail string             `bson:"target_user_email" json:"targetUserEmail"`
	Details         string             `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
}
