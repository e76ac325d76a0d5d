package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment states of a parcel. A tracking id is present exactly when the
// parcel is paid.
const (
	ParcelUnpaid = "unpaid"
	ParcelPaid   = "paid"
)

// Parcel represents a booked shipment in the parcels collection
type Parcel struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ParcelName    string             `bson:"parcel_name" json:"parcel_name"`
	SenderEmail   string             `bson:"sender_email" json:"sender_email"`
	Price         float64            `bson:"price" json:"price"`
	PaymentStatus string             `bson:"payment_status" json:"payment_status"`
	TrackingID    string             `bson:"tracking_id,omitempty" json:"tracking_id,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}
