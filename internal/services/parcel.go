package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zepshift/zepshift-gobackend/internal/models"
	"github.com/zepshift/zepshift-gobackend/internal/store"
)

type ParcelService struct {
	store store.Store
}

func NewParcelService(st store.Store) *ParcelService {
	return &ParcelService{store: st}
}

// Book stores a new parcel. Bookings always start unpaid with no tracking
// id; only reconciliation moves a parcel to paid.
func (s *ParcelService) Book(ctx context.Context, parcel *models.Parcel) (string, error) {
	parcel.ID = primitive.NewObjectID()
	parcel.PaymentStatus = models.ParcelUnpaid
	parcel.TrackingID = ""
	parcel.CreatedAt = time.Now()
	return s.store.Collection("parcels").InsertOne(ctx, parcel)
}

// List returns parcels newest first, optionally scoped to a sender.
func (s *ParcelService) List(ctx context.Context, email string) ([]models.Parcel, error) {
	filter := bson.M{}
	if email != "" {
		filter["sender_email"] = email
	}
	var parcels []models.Parcel
	if err := s.store.Collection("parcels").Find(ctx, filter, bson.D{{Key: "created_at", Value: -1}}, &parcels); err != nil {
		return nil, fmt.Errorf("failed to fetch parcels: %w", err)
	}
	return parcels, nil
}

func (s *ParcelService) Delete(ctx context.Context, parcelID string) (int64, error) {
	objID, err := primitive.ObjectIDFromHex(parcelID)
	if err != nil {
		return 0, fmt.Errorf("invalid parcel id: %w", err)
	}
	return s.store.Collection("parcels").DeleteOne(ctx, bson.M{"_id": objID})
}
