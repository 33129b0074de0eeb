package repository_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"motoka/internal/config"
	"motoka/internal/entity"
	"motoka/internal/repository"
	"motoka/pkg/logger"
	"motoka/pkg/storage/postgres"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const _schemaPath = "../../migrations/001_payments.sql"

// IntegrationTestSuite runs the repositories against a real postgres. It is
// skipped unless INTEGRATION_TEST is set and CONFIG_PATH points at a config.
type IntegrationTestSuite struct {
	suite.Suite

	db        *postgres.Postgres
	payments  *repository.PaymentRepository
	orders    *repository.OrderRepository
	resources *repository.ResourceRepository
}

func TestIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") == "" {
		t.Skip("INTEGRATION_TEST not set")
	}
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) SetupSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg, err := config.LoadPath(os.Getenv("CONFIG_PATH"))
	s.Require().NoError(err, "Failed to load configuration")

	testLogger, err := logger.New(cfg)
	s.Require().NoError(err)

	db, err := postgres.NewPostgres(&cfg.Postgres, testLogger,
		postgres.MaxConnAttempts(cfg.Postgres.ConnAttempts))
	s.Require().NoError(err, "Failed to connect to postgres")
	s.db = db

	schema, err := os.ReadFile(_schemaPath)
	s.Require().NoError(err)
	_, err = db.Pool.Exec(ctx, string(schema))
	s.Require().NoError(err, "Failed to apply schema")

	s.payments = repository.NewPaymentRepository(db)
	s.orders = repository.NewOrderRepository(db)
	s.resources = repository.NewResourceRepository(db)
}

func (s *IntegrationTestSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *IntegrationTestSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.db.Pool.Exec(ctx, "TRUNCATE TABLE notifications, reminders, orders, payments, vehicles, licenses RESTART IDENTITY CASCADE;")
	s.Require().NoError(err)
}

func (s *IntegrationTestSuite) createVehicle(ctx context.Context, userID uuid.UUID) uuid.UUID {
	id := uuid.New()
	_, err := s.db.Pool.Exec(ctx,
		"INSERT INTO vehicles (id, slug, user_id, plate_number) VALUES ($1, $2, $3, $4)",
		id, gofakeit.LetterN(16), userID, "LAG-"+gofakeit.DigitN(3)+"XY")
	s.Require().NoError(err)
	return id
}

func (s *IntegrationTestSuite) createPayment(ctx context.Context) *entity.Payment {
	userID := uuid.New()
	draft := &entity.Payment{
		UserID:       userID,
		ResourceType: entity.ResourceVehicle,
		ResourceID:   s.createVehicle(ctx, userID),
		Currency:     "NGN",
		Gateway:      "paystack",
		LineItems: []entity.LineItem{
			{FeeID: 1, Name: "Third Party Insurance", Amount: decimal.NewFromInt(15000)},
			{FeeID: 2, Name: "Road Worthiness", Amount: decimal.NewFromInt(4000)},
		},
		Metadata: entity.PaymentMetadata{DeliveryFee: decimal.NewFromInt(700)},
	}
	draft.Amount = draft.ExpectedAmount()

	payment, err := s.payments.Create(ctx, draft)
	s.Require().NoError(err)
	return payment
}

func (s *IntegrationTestSuite) TestCreateAndFind() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	payment := s.createPayment(ctx)
	s.Require().Equal(entity.PaymentPending, payment.Status)
	s.Require().Regexp(`^MTK-[A-Z2-7]{20}$`, payment.TransactionID)
	s.Require().True(payment.Amount.Equal(decimal.NewFromInt(19700)))

	ref := "PSK-" + gofakeit.LetterN(10)
	_, changed, err := s.payments.CompareAndTransition(ctx, payment.ID,
		[]entity.PaymentStatus{entity.PaymentPending}, entity.PaymentPending,
		entity.PaymentPatch{ProviderReference: &ref})
	s.Require().NoError(err)
	s.Require().True(changed)

	byTx, err := s.payments.FindByTransactionOrProviderReference(ctx, payment.TransactionID)
	s.Require().NoError(err)
	byRef, err := s.payments.FindByTransactionOrProviderReference(ctx, ref)
	s.Require().NoError(err)
	s.Require().Equal(byTx.ID, byRef.ID)
	s.Require().Len(byRef.LineItems, 2)

	_, err = s.payments.FindByTransactionOrProviderReference(ctx, "MTK-UNKNOWN")
	s.Require().ErrorIs(err, entity.ErrDataNotFound)
}

func (s *IntegrationTestSuite) TestCompareAndTransitionIsAtomic() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	payment := s.createPayment(ctx)

	const workers = 20
	var wins atomic.Int32
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, changed, err := s.payments.CompareAndTransition(ctx, payment.ID,
				[]entity.PaymentStatus{entity.PaymentPending, entity.PaymentFailed}, entity.PaymentCompleted,
				entity.PaymentPatch{RawResponse: []byte(`{"status":"success"}`)})
			if err == nil && changed {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Require().Equal(int32(1), wins.Load())

	current, err := s.payments.GetByID(ctx, payment.ID)
	s.Require().NoError(err)
	s.Require().Equal(entity.PaymentCompleted, current.Status)
	s.Require().NotNil(current.CompletedAt)
}

func (s *IntegrationTestSuite) TestCompareAndTransitionKeepsProviderReference() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	payment := s.createPayment(ctx)
	first, second := "REF-FIRST", "REF-SECOND"
	pending := []entity.PaymentStatus{entity.PaymentPending}

	_, _, err := s.payments.CompareAndTransition(ctx, payment.ID, pending, entity.PaymentPending,
		entity.PaymentPatch{ProviderReference: &first})
	s.Require().NoError(err)
	updated, _, err := s.payments.CompareAndTransition(ctx, payment.ID, pending, entity.PaymentFailed,
		entity.PaymentPatch{ProviderReference: &second})
	s.Require().NoError(err)

	s.Require().Equal(first, *updated.ProviderReference)
	s.Require().Equal(entity.PaymentFailed, updated.Status)

	current, changed, err := s.payments.CompareAndTransition(ctx, payment.ID, pending, entity.PaymentCompleted,
		entity.PaymentPatch{})
	s.Require().NoError(err)
	s.Require().False(changed)
	s.Require().Equal(entity.PaymentFailed, current.Status)
}

func (s *IntegrationTestSuite) TestCompareAndTransitionRejectsDisallowedMove() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	payment := s.createPayment(ctx)

	_, changed, err := s.payments.CompareAndTransition(ctx, payment.ID,
		[]entity.PaymentStatus{entity.PaymentPending}, entity.PaymentDisputed, entity.PaymentPatch{})
	s.Require().ErrorIs(err, entity.ErrInvalidData)
	s.Require().False(changed)

	current, err := s.payments.GetByID(ctx, payment.ID)
	s.Require().NoError(err)
	s.Require().Equal(entity.PaymentPending, current.Status)
}

func (s *IntegrationTestSuite) TestOrderUniquePerPayment() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	payment := s.createPayment(ctx)
	newOrder := func() *entity.Order {
		return &entity.Order{
			PaymentID:    payment.ID,
			UserID:       payment.UserID,
			ResourceType: payment.ResourceType,
			ResourceID:   payment.ResourceID,
			OrderType:    entity.OrderInsurance,
			Amount:       payment.Amount,
			DeliveryFee:  payment.Metadata.DeliveryFee,
			Status:       entity.OrderStatusPending,
		}
	}

	created, err := s.orders.Create(ctx, s.db.Pool, newOrder())
	s.Require().NoError(err)

	_, err = s.orders.Create(ctx, s.db.Pool, newOrder())
	s.Require().ErrorIs(err, entity.ErrConflictingData)

	found, err := s.orders.GetByPaymentID(ctx, s.db.Pool, payment.ID)
	s.Require().NoError(err)
	s.Require().Equal(created.ID, found.ID)
	s.Require().Equal(entity.OrderStatusPending, found.Status)
}

func (s *IntegrationTestSuite) TestListPendingForSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	withRef := s.createPayment(ctx)
	ref := "REF-" + gofakeit.LetterN(8)
	_, _, err := s.payments.CompareAndTransition(ctx, withRef.ID,
		[]entity.PaymentStatus{entity.PaymentPending}, entity.PaymentPending,
		entity.PaymentPatch{ProviderReference: &ref})
	s.Require().NoError(err)

	s.createPayment(ctx) // never reached a gateway

	pending, err := s.payments.ListPendingForSweep(ctx, time.Now().Add(-time.Hour), 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Require().Equal(withRef.ID, pending[0].ID)

	pending, err = s.payments.ListPendingForSweep(ctx, time.Now().Add(time.Minute), 10)
	s.Require().NoError(err)
	s.Require().Empty(pending)
}

func (s *IntegrationTestSuite) TestResourceActivate() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userID := uuid.New()
	id := s.createVehicle(ctx, userID)

	s.Require().NoError(s.resources.Activate(ctx, s.db.Pool, entity.ResourceVehicle, id))

	resource, err := s.resources.GetByID(ctx, nil, entity.ResourceVehicle, id)
	s.Require().NoError(err)
	s.Require().Equal(userID, resource.UserID)
	s.Require().Equal("active", resource.Status)
}
