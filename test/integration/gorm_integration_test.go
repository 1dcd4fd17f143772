package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/repository/contract"
	"subscription-billing-be/internal/repository/specification"
	"subscription-billing-be/internal/repository/unitofwork"
	"subscription-billing-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.CustomerRepository())
	assert.NotNil(t, uow.SubscriptionRepository())
	assert.NotNil(t, uow.PaymentLogRepository())

	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)

	t.Run("Check Provider Repository", func(t *testing.T) {
		providers, err := uow.PaymentProviderRepository().FindAll(context.Background())
		assert.NoError(t, err)
		t.Logf("Provider count: %d", len(providers))
	})

	t.Run("Check Transactional Subscription Write", func(t *testing.T) {
		ctx := context.Background()
		suffix := uuid.New().String()

		customer := &entity.Customer{Uid: "integration-" + suffix}
		product := &entity.Product{
			ProductCode: "integration_plan_" + suffix,
			Name:        "Integration Plan",
		}
		provider := &entity.PaymentProvider{
			Name: entity.ProviderName("integration-" + suffix),
		}

		tx := uowFactory.NewUnitOfWork(ctx)
		err := tx.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback()

		require.NoError(t, tx.CustomerRepository().Create(ctx, customer))
		require.NoError(t, tx.ProductRepository().Create(ctx, product))
		require.NoError(t, tx.PaymentProviderRepository().Create(ctx, provider))

		next := time.Now().Add(30 * 24 * time.Hour)
		sub := &entity.Subscription{
			CustomerId:        customer.Id,
			ProductId:         product.Id,
			PaymentProviderId: provider.Id,
			SubscriptionId:    "sub_integration_" + suffix,
			CreatedAt:         time.Now(),
			NextBillingAt:     &next,
		}
		require.NoError(t, tx.SubscriptionRepository().Create(ctx, sub))
		assert.NotZero(t, sub.Id)

		// The composite index rejects a second row for the same provider id.
		dup := &entity.Subscription{
			CustomerId:        customer.Id,
			ProductId:         product.Id,
			PaymentProviderId: provider.Id,
			SubscriptionId:    sub.SubscriptionId,
			CreatedAt:         time.Now(),
		}
		err = tx.SubscriptionRepository().Create(ctx, dup)
		assert.ErrorIs(t, err, contract.ErrDuplicate)
	})

	t.Run("Check Payment Log Dedup", func(t *testing.T) {
		ctx := context.Background()
		suffix := uuid.New().String()

		tx := uowFactory.NewUnitOfWork(ctx)
		err := tx.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback()

		customer := &entity.Customer{Uid: "integration-" + suffix}
		product := &entity.Product{ProductCode: "integration_plan_" + suffix, Name: "Integration Plan"}
		provider := &entity.PaymentProvider{Name: entity.ProviderName("integration-" + suffix)}
		require.NoError(t, tx.CustomerRepository().Create(ctx, customer))
		require.NoError(t, tx.ProductRepository().Create(ctx, product))
		require.NoError(t, tx.PaymentProviderRepository().Create(ctx, provider))

		sub := &entity.Subscription{
			CustomerId:        customer.Id,
			ProductId:         product.Id,
			PaymentProviderId: provider.Id,
			SubscriptionId:    "sub_integration_" + suffix,
			CreatedAt:         time.Now(),
		}
		require.NoError(t, tx.SubscriptionRepository().Create(ctx, sub))

		payload := []byte(`{"id":"evt_integration_` + suffix + `"}`)
		first := &entity.PaymentLog{SubscriptionId: sub.Id, Data: payload}
		require.NoError(t, tx.PaymentLogRepository().Append(ctx, first))

		exists, err := tx.PaymentLogRepository().Exists(ctx, sub.Id, entity.HashPayload(payload))
		require.NoError(t, err)
		assert.True(t, exists)

		second := &entity.PaymentLog{SubscriptionId: sub.Id, Data: payload}
		err = tx.PaymentLogRepository().Append(ctx, second)
		assert.ErrorIs(t, err, contract.ErrDuplicate)
	})

	t.Run("Check Active Subscription Query", func(t *testing.T) {
		subs, err := uow.SubscriptionRepository().FindAll(context.Background(), specification.ActiveAt{Now: time.Now()})
		assert.NoError(t, err)
		t.Logf("Active subscription count: %d", len(subs))
	})
}
