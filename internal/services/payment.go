package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zepshift/zepshift-gobackend/internal/models"
	"github.com/zepshift/zepshift-gobackend/internal/store"
	"github.com/zepshift/zepshift-gobackend/internal/tracking"
)

// Reconciliation outcomes.
type ReconcileOutcome string

const (
	OutcomeRecordedNew     ReconcileOutcome = "recorded"
	OutcomeAlreadyRecorded ReconcileOutcome = "already_recorded"
	OutcomeNotPaid         ReconcileOutcome = "not_paid"
)

// ReconcileResult reports what a reconciliation attempt did. ParcelUpdate is
// only set on the recorded-new path.
type ReconcileResult struct {
	Outcome       ReconcileOutcome
	TrackingID    string
	TransactionID string
	Payment       *models.Payment
	ParcelUpdate  *store.UpdateResult
}

type PaymentService struct {
	store   store.Store
	gateway CheckoutGateway
	log     *logrus.Logger
}

func NewPaymentService(st store.Store, gateway CheckoutGateway, log *logrus.Logger) *PaymentService {
	return &PaymentService{store: st, gateway: gateway, log: log}
}

// EnsureIndexes creates the unique transaction-id index on the payment
// ledger. The index, not the pre-insert existence check, is what makes
// recording at-most-once under concurrent reconciliation.
func (s *PaymentService) EnsureIndexes(ctx context.Context) error {
	return s.store.EnsureUniqueIndex(ctx, "payments", "transaction_id")
}

// InitiateCheckout opens a hosted checkout session for a parcel and returns
// the redirect URL.
func (s *PaymentService) InitiateCheckout(ctx context.Context, parcelID string, price float64, email, parcelName string) (string, error) {
	session, err := s.gateway.CreateCheckoutSession(ctx, parcelID, price, email, parcelName)
	if err != nil {
		s.log.WithError(err).WithField("parcel_id", parcelID).Error("failed to create checkout session")
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	s.log.WithFields(logrus.Fields{"parcel_id": parcelID, "session_id": session.ID}).Info("checkout session created")
	return session.URL, nil
}

// Reconcile turns a settled gateway session into a durable payment record:
// it marks the referenced parcel paid, assigns a tracking id and inserts a
// ledger entry. Repeated or concurrent calls for the same transaction settle
// on the first recorded entry.
func (s *PaymentService) Reconcile(ctx context.Context, sessionID string) (*ReconcileResult, error) {
	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	payments := s.store.Collection("payments")

	var existing models.Payment
	err = payments.FindOne(ctx, bson.M{"transaction_id": session.TransactionID}, &existing)
	if err == nil {
		s.log.WithField("transaction_id", existing.TransactionID).Info("payment already recorded")
		return &ReconcileResult{
			Outcome:       OutcomeAlreadyRecorded,
			TrackingID:    existing.TrackingID,
			TransactionID: existing.TransactionID,
			Payment:       &existing,
		}, nil
	}
	if !errors.Is(err, store.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to look up payment ledger: %w", err)
	}

	if session.PaymentStatus != "paid" {
		s.log.WithFields(logrus.Fields{"session_id": sessionID, "payment_status": session.PaymentStatus}).Info("session not settled")
		return &ReconcileResult{Outcome: OutcomeNotPaid, TransactionID: session.TransactionID}, nil
	}

	trackingID := tracking.Generate()
	payment := &models.Payment{
		Amount:        float64(session.AmountTotal) / 100,
		Currency:      session.Currency,
		Email:         session.CustomerEmail,
		ParcelID:      session.Metadata["parcelId"],
		TransactionID: session.TransactionID,
		Status:        session.PaymentStatus,
		PaidAt:        time.Now(),
		TrackingID:    trackingID,
	}

	// Ledger insert first: the unique index rejects a concurrent duplicate
	// before the parcel is touched.
	var parcelUpdate *store.UpdateResult
	err = s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := payments.InsertOne(ctx, payment); err != nil {
			return err
		}
		res, err := s.store.Collection("parcels").UpdateOne(ctx, parcelFilter(payment.ParcelID), bson.M{
			"payment_status": models.ParcelPaid,
			"tracking_id":    trackingID,
		})
		if err != nil {
			return fmt.Errorf("failed to update parcel: %w", err)
		}
		parcelUpdate = res
		return nil
	})
	if errors.Is(err, store.ErrDuplicateKey) {
		// Lost the race; the winner's entry is authoritative.
		if lookupErr := payments.FindOne(ctx, bson.M{"transaction_id": session.TransactionID}, &existing); lookupErr == nil {
			return &ReconcileResult{
				Outcome:       OutcomeAlreadyRecorded,
				TrackingID:    existing.TrackingID,
				TransactionID: existing.TransactionID,
				Payment:       &existing,
			}, nil
		}
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	if err != nil {
		return nil, err
	}

	if parcelUpdate.MatchedCount == 0 {
		s.log.WithField("parcel_id", payment.ParcelID).Warn("no parcel matched session metadata")
	}
	s.log.WithFields(logrus.Fields{
		"transaction_id": payment.TransactionID,
		"tracking_id":    trackingID,
		"parcel_id":      payment.ParcelID,
	}).Info("payment recorded")

	return &ReconcileResult{
		Outcome:       OutcomeRecordedNew,
		TrackingID:    trackingID,
		TransactionID: payment.TransactionID,
		Payment:       payment,
		ParcelUpdate:  parcelUpdate,
	}, nil
}

// ListPayments returns ledger entries newest-paid first. An empty email
// returns the whole ledger.
func (s *PaymentService) ListPayments(ctx context.Context, email string) ([]models.Payment, error) {
	filter := bson.M{}
	if email != "" {
		filter["email"] = email
	} else {
		// No role gate exists on the unfiltered listing yet; keep it loud.
		s.log.Warn("serving unfiltered payment ledger")
	}

	var payments []models.Payment
	if err := s.store.Collection("payments").Find(ctx, filter, bson.D{{Key: "paid_at", Value: -1}}, &payments); err != nil {
		return nil, fmt.Errorf("failed to fetch payments: %w", err)
	}
	return payments, nil
}

// parcelFilter keys the parcel lookup on the id taken from gateway
// metadata. A malformed id simply matches nothing.
func parcelFilter(id string) bson.M {
	if objID, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": objID}
	}
	return bson.M{"_id": id}
}
