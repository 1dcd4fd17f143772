package bootstrap

import (
	"context"
	"log"

	"subscription-billing-be/internal/config"
	"subscription-billing-be/internal/controller"
	"subscription-billing-be/internal/pkg/logger"
	"subscription-billing-be/internal/pkg/mailer"
	"subscription-billing-be/internal/pkg/serverutils"
	"subscription-billing-be/internal/repository/unitofwork"
	"subscription-billing-be/internal/service"
	"subscription-billing-be/pkg/analytics"
	"subscription-billing-be/pkg/billing/paddle"
	"subscription-billing-be/pkg/billing/stripe"

	pkgNats "subscription-billing-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const analyticsTopic = "analytics.deliveries"

type Container struct {
	// Controllers
	WebhookController  controller.IWebhookController
	CustomerController controller.ICustomerController
	PaymentController  controller.IPaymentController
	AdminController    controller.IAdminController

	// Background services, run by main
	AnalyticsConsumer service.IAnalyticsConsumerService

	// Exposed for cmd tooling
	ProviderService service.IProviderService
	PaddleCatalog   *paddle.Catalog
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
		cfg.SMTP.AlertEmail,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// 3. Payment adapters
	stripeAdapter := stripe.NewAdapter(
		stripe.Secrets{
			PerEvent:   cfg.Stripe.WebhookSecrets,
			TestSecret: cfg.Stripe.TestSecret,
			Production: cfg.IsProduction(),
		},
		stripe.NewAPI(cfg.Stripe.APIKey),
		sysLogger,
	)

	paddleClient := paddle.NewClient(cfg.Paddle.BaseURL, cfg.Paddle.APIKey)
	paddleCatalog := paddle.NewCatalog(paddleClient)
	paddleAdapter := paddle.NewAdapter(
		paddle.Secrets{
			WebhookSecret: cfg.Paddle.WebhookSecret,
			TestSecret:    cfg.Paddle.TestSecret,
			Production:    cfg.IsProduction(),
		},
		paddleClient,
		paddleCatalog,
		sysLogger,
	)

	// 4. Services
	analyticsClient := analytics.NewClient(cfg.Analytics.Host, cfg.Analytics.Secret)
	dispatcher := service.NewEffectDispatcher(uowFactory, pubSub, analyticsTopic, rdb, natsPub, emailService, sysLogger)
	analyticsConsumer := service.NewAnalyticsConsumerService(pubSub, analyticsTopic, analyticsClient, sysLogger)

	customerService := service.NewCustomerService(uowFactory, rdb, sysLogger)
	providerService := service.NewProviderService(uowFactory, sysLogger)
	paymentService := service.NewPaymentService(providerService, stripeAdapter, paddleAdapter)
	adminService := service.NewAdminService(uowFactory, sysLogger)
	reconciler := service.NewReconcilerService(uowFactory, customerService, dispatcher, sysLogger)

	// 5. Controllers
	return &Container{
		WebhookController:  controller.NewWebhookController(stripeAdapter, paddleAdapter, reconciler, sysLogger),
		CustomerController: controller.NewCustomerController(customerService),
		PaymentController:  controller.NewPaymentController(paymentService),
		AdminController: controller.NewAdminController(
			adminService,
			providerService,
			serverutils.JwtMiddleware(cfg.Admin.JWTSecret),
		),

		AnalyticsConsumer: analyticsConsumer,
		ProviderService:   providerService,
		PaddleCatalog:     paddleCatalog,
	}
}
