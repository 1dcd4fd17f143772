package main

import (
	"context"
	"log"
	"time"

	"subscription-billing-be/internal/config"
	"subscription-billing-be/internal/repository/specification"
	"subscription-billing-be/internal/repository/unitofwork"
	"subscription-billing-be/pkg/analytics"
	"subscription-billing-be/pkg/database"

	"github.com/fatih/color"
)

// Pushes every currently active subscription to the analytics collector.
// Used to backfill the collector after an outage or a fresh deployment.
func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(db)
	client := analytics.NewClient(cfg.Analytics.Host, cfg.Analytics.Secret)

	ctx := context.Background()
	now := time.Now()

	uow := uowFactory.NewUnitOfWork(ctx)
	subs, err := uow.SubscriptionRepository().FindAll(ctx, specification.ActiveAt{Now: now})
	if err != nil {
		log.Fatal("Error: Failed to load active subscriptions:", err)
	}

	color.Cyan("Syncing %d active subscriptions to the analytics collector...", len(subs))

	synced := 0
	for _, sub := range subs {
		if sub.Customer == nil {
			color.Yellow("Subscription %d has no customer loaded, skipping", sub.Id)
			continue
		}
		data := map[string]interface{}{
			"subscriptionId": sub.SubscriptionId,
			"nextBillingAt":  sub.NextBillingAt,
			"canceled":       sub.Canceled(),
		}
		if sub.Product != nil {
			data["productCode"] = sub.Product.ProductCode
		}
		if sub.PaymentProvider != nil {
			data["provider"] = string(sub.PaymentProvider.Name)
		}

		event := analytics.Event{
			Uid:        sub.Customer.Uid,
			Title:      analytics.EventPurchase,
			HappenedAt: sub.CreatedAt,
			Data:       data,
		}

		sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Notify(sendCtx, event)
		cancel()
		if err != nil {
			color.Red("Failed to sync subscription %d: %v", sub.Id, err)
			continue
		}
		synced++
	}

	color.Green("Synced %d/%d subscriptions", synced, len(subs))
}
