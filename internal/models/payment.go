package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment is a ledger entry written once per gateway transaction and never
// mutated afterwards. TransactionID carries a unique index; it is the
// idempotency key for the whole reconciliation flow.
type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Amount        float64            `bson:"amount" json:"amount"`
	Currency      string             `bson:"currency" json:"currency"`
	Email         string             `bson:"email" json:"email"`
	ParcelID      string             `bson:"parcel_id" json:"parcel_id"`
	TransactionID string             `bson:"transaction_id" json:"transaction_id"`
	Status        string             `bson:"status" json:"status"`
	PaidAt        time.Time          `bson:"paid_at" json:"paid_at"`
	TrackingID    string             `bson:"tracking_id" json:"tracking_id"`
}
