package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rider application states. Applications start pending; approved and
// rejected are both terminal.
const (
	RiderPending  = "pending"
	RiderApproved = "approved"
	RiderRejected = "rejected"
)

// RiderApplication represents an application document in the riders collection
type RiderApplication struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
