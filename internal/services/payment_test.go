package services

import (
	"context"
	"errors"
	"io"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/zepshift/zepshift-gobackend/internal/models"
	"github.com/zepshift/zepshift-gobackend/internal/store"
)

type fakeGateway struct {
	session   *CheckoutSession
	err       error
	createdID string
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, parcelID string, price float64, email, parcelName string) (*CheckoutSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.createdID = parcelID
	return f.session, nil
}

func (f *fakeGateway) RetrieveSession(_ context.Context, _ string) (*CheckoutSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newPaymentFixture(t *testing.T, session *CheckoutSession) (*PaymentService, *store.MemoryStore, *models.Parcel) {
	t.Helper()
	st := store.NewMemory()

	svc := NewPaymentService(st, &fakeGateway{session: session}, testLogger())
	require.NoError(t, svc.EnsureIndexes(context.Background()))

	parcel := &models.Parcel{ParcelName: "books", SenderEmail: "a@x.com", Price: 25.50}
	_, err := NewParcelService(st).Book(context.Background(), parcel)
	require.NoError(t, err)

	if session != nil && session.Metadata == nil {
		session.Metadata = map[string]string{"parcelId": parcel.ID.Hex(), "parcelName": parcel.ParcelName}
	}
	return svc, st, parcel
}

func paidSession(transactionID string) *CheckoutSession {
	return &CheckoutSession{
		ID:            "cs_test_1",
		TransactionID: transactionID,
		PaymentStatus: "paid",
		AmountTotal:   2550,
		Currency:      "usd",
		CustomerEmail: "a@x.com",
	}
}

func TestReconcileRecordsNewPayment(t *testing.T) {
	ctx := context.Background()
	svc, st, parcel := newPaymentFixture(t, paidSession("pi_1"))

	res, err := svc.Reconcile(ctx, "cs_test_1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeRecordedNew, res.Outcome)
	assert.Equal(t, "pi_1", res.TransactionID)
	assert.Regexp(t, regexp.MustCompile(`^ZEP-\d{8}-[A-Z0-9]{6}$`), res.TrackingID)
	require.NotNil(t, res.ParcelUpdate)
	assert.Equal(t, int64(1), res.ParcelUpdate.ModifiedCount)

	var payment models.Payment
	require.NoError(t, st.Collection("payments").FindOne(ctx, bson.M{"transaction_id": "pi_1"}, &payment))
	assert.Equal(t, 25.50, payment.Amount)
	assert.Equal(t, "usd", payment.Currency)
	assert.Equal(t, "a@x.com", payment.Email)
	assert.Equal(t, parcel.ID.Hex(), payment.ParcelID)
	assert.Equal(t, res.TrackingID, payment.TrackingID)

	// tracking id present exactly when the parcel is paid
	var updated models.Parcel
	require.NoError(t, st.Collection("parcels").FindOne(ctx, bson.M{"_id": parcel.ID}, &updated))
	assert.Equal(t, models.ParcelPaid, updated.PaymentStatus)
	assert.Equal(t, res.TrackingID, updated.TrackingID)
}

func TestReconcileIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newPaymentFixture(t, paidSession("pi_1"))

	first, err := svc.Reconcile(ctx, "cs_test_1")
	require.NoError(t, err)
	second, err := svc.Reconcile(ctx, "cs_test_1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeRecordedNew, first.Outcome)
	assert.Equal(t, OutcomeAlreadyRecorded, second.Outcome)
	assert.Equal(t, first.TrackingID, second.TrackingID)

	var payments []models.Payment
	require.NoError(t, st.Collection("payments").Find(ctx, bson.M{}, nil, &payments))
	assert.Len(t, payments, 1)
}

func TestReconcileConcurrentCallsRecordOnce(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newPaymentFixture(t, paidSession("pi_1"))

	const callers = 8
	results := make([]*ReconcileResult, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Reconcile(ctx, "cs_test_1")
		}(i)
	}
	wg.Wait()

	recorded := 0
	for i, res := range results {
		require.NoError(t, errs[i])
		if res.Outcome == OutcomeRecordedNew {
			recorded++
		}
		assert.Equal(t, results[0].TrackingID, res.TrackingID)
	}
	assert.Equal(t, 1, recorded)

	var payments []models.Payment
	require.NoError(t, st.Collection("payments").Find(ctx, bson.M{}, nil, &payments))
	assert.Len(t, payments, 1)
}

func TestReconcileNotPaid(t *testing.T) {
	ctx := context.Background()
	session := paidSession("pi_1")
	session.PaymentStatus = "unpaid"
	svc, st, parcel := newPaymentFixture(t, session)

	res, err := svc.Reconcile(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotPaid, res.Outcome)
	assert.Empty(t, res.TrackingID)

	var payments []models.Payment
	require.NoError(t, st.Collection("payments").Find(ctx, bson.M{}, nil, &payments))
	assert.Empty(t, payments)

	var unchanged models.Parcel
	require.NoError(t, st.Collection("parcels").FindOne(ctx, bson.M{"_id": parcel.ID}, &unchanged))
	assert.Equal(t, models.ParcelUnpaid, unchanged.PaymentStatus)
	assert.Empty(t, unchanged.TrackingID)
}

func TestReconcileUnknownParcelIsNoOp(t *testing.T) {
	ctx := context.Background()
	session := paidSession("pi_1")
	session.Metadata = map[string]string{"parcelId": "not-a-real-parcel"}
	svc, st, parcel := newPaymentFixture(t, session)

	res, err := svc.Reconcile(ctx, "cs_test_1")
	require.NoError(t, err)

	// payment is still recorded; the forged parcel id is a store-layer no-op
	assert.Equal(t, OutcomeRecordedNew, res.Outcome)
	require.NotNil(t, res.ParcelUpdate)
	assert.Equal(t, int64(0), res.ParcelUpdate.MatchedCount)

	var untouched models.Parcel
	require.NoError(t, st.Collection("parcels").FindOne(ctx, bson.M{"_id": parcel.ID}, &untouched))
	assert.Equal(t, models.ParcelUnpaid, untouched.PaymentStatus)
}

func TestReconcileGatewayError(t *testing.T) {
	st := store.NewMemory()
	svc := NewPaymentService(st, &fakeGateway{err: errors.New("session missing")}, testLogger())

	_, err := svc.Reconcile(context.Background(), "cs_test_1")
	assert.ErrorContains(t, err, "session missing")
}

func TestListPaymentsScopedAndSorted(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := NewPaymentService(st, &fakeGateway{}, testLogger())

	seed := []*CheckoutSession{
		{TransactionID: "pi_a1", PaymentStatus: "paid", AmountTotal: 100, Currency: "usd", CustomerEmail: "a@x.com"},
		{TransactionID: "pi_b1", PaymentStatus: "paid", AmountTotal: 200, Currency: "usd", CustomerEmail: "b@x.com"},
		{TransactionID: "pi_a2", PaymentStatus: "paid", AmountTotal: 300, Currency: "usd", CustomerEmail: "a@x.com"},
	}
	for _, session := range seed {
		gw := svc.gateway.(*fakeGateway)
		gw.session = session
		gw.session.Metadata = map[string]string{"parcelId": "ignored"}
		_, err := svc.Reconcile(ctx, session.TransactionID)
		require.NoError(t, err)
		// paid_at has millisecond precision in the store
		time.Sleep(2 * time.Millisecond)
	}

	payments, err := svc.ListPayments(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "pi_a2", payments[0].TransactionID)
	assert.Equal(t, "pi_a1", payments[1].TransactionID)
	assert.False(t, payments[0].PaidAt.Before(payments[1].PaidAt))

	all, err := svc.ListPayments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
