package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zepshift/zepshift-gobackend/internal/models"
	"github.com/zepshift/zepshift-gobackend/internal/store"
)

type RiderService struct {
	store store.Store
	log   *logrus.Logger
}

func NewRiderService(st store.Store, log *logrus.Logger) *RiderService {
	return &RiderService{store: st, log: log}
}

// Apply submits a rider application. Status is always pending regardless of
// what the caller sent.
func (s *RiderService) Apply(ctx context.Context, rider *models.RiderApplication) (string, error) {
	rider.ID = primitive.NewObjectID()
	rider.Status = models.RiderPending
	rider.CreatedAt = time.Now()
	return s.store.Collection("riders").InsertOne(ctx, rider)
}

// List returns applications newest first, optionally filtered by status.
func (s *RiderService) List(ctx context.Context, status string) ([]models.RiderApplication, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	var riders []models.RiderApplication
	if err := s.store.Collection("riders").Find(ctx, filter, bson.D{{Key: "created_at", Value: -1}}, &riders); err != nil {
		return nil, fmt.Errorf("failed to fetch rider applications: %w", err)
	}
	return riders, nil
}

// SetStatus moves an application to approved or rejected. Approval also
// elevates the applicant's role to rider; both writes run in one store
// transaction so an approved application cannot exist without the role
// change.
func (s *RiderService) SetStatus(ctx context.Context, riderID, status, email string) (*store.UpdateResult, error) {
	if status != models.RiderApproved && status != models.RiderRejected {
		return nil, fmt.Errorf("status must be %q or %q", models.RiderApproved, models.RiderRejected)
	}
	objID, err := primitive.ObjectIDFromHex(riderID)
	if err != nil {
		return nil, fmt.Errorf("invalid rider id: %w", err)
	}
	if status == models.RiderApproved && email == "" {
		return nil, fmt.Errorf("applicant email is required for approval")
	}

	var result *store.UpdateResult
	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		res, err := s.store.Collection("riders").UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"status": status})
		if err != nil {
			return fmt.Errorf("failed to update rider application: %w", err)
		}
		result = res

		if status == models.RiderApproved {
			if _, err := s.store.Collection("users").UpdateOne(ctx, bson.M{"email": email}, bson.M{"role": models.RoleRider}); err != nil {
				return fmt.Errorf("failed to elevate user role: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"rider_id": riderID, "status": status}).Info("rider application updated")
	return result, nil
}

// Delete removes an application unconditionally.
func (s *RiderService) Delete(ctx context.Context, riderID string) (int64, error) {
	objID, err := primitive.ObjectIDFromHex(riderID)
	if err != nil {
		return 0, fmt.Errorf("invalid rider id: %w", err)
	}
	return s.store.Collection("riders").DeleteOne(ctx, bson.M{"_id": objID})
}
