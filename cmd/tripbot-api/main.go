// README: Entry point; loads config, wires stores and services, serves the chat API.
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tripbot/internal/ai"
	"tripbot/internal/config"
	"tripbot/internal/flights"
	httptransport "tripbot/internal/http"
	"tripbot/internal/http/handlers"
	"tripbot/internal/infra"
	"tripbot/internal/maps"
	"tripbot/internal/modules/aiusage"
	"tripbot/internal/modules/booking"
	"tripbot/internal/modules/pricing"
	"tripbot/internal/modules/session"
	"tripbot/internal/service"
	"tripbot/internal/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := infra.NewLogger(cfg.IsProduction(), cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("tripbot-api stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if cfg.AI.SSMPrefix != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AI.AWSRegion))
		if err != nil {
			return err
		}
		params, err := infra.NewParamStore(ssm.NewFromConfig(awsCfg))
		if err != nil {
			return err
		}
		if err := cfg.ApplySecrets(ctx, params); err != nil {
			return err
		}
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	var sessions session.Store
	switch cfg.Session.Backend {
	case "memory":
		sessions = session.NewMemoryStore(cfg.Session.IdleTTL, cfg.Session.LockWait)
	default:
		redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		sessions = session.NewRedisStore(redisClient, cfg.Session.IdleTTL, cfg.Session.LockWait)
	}

	table := pricing.DefaultTable()
	table.Currency = cfg.Pricing.Currency
	table.TaxRate = cfg.Pricing.TaxRate
	table.BudgetTolerance = cfg.Pricing.BudgetTolerance
	if cfg.Pricing.LoadFromDB {
		extra, err := pricing.NewStore(dbPool).LoadDestinations(ctx)
		if err != nil {
			return err
		}
		table = table.WithDestinations(extra)
		logger.Info("loaded destination tiers", zap.Int("count", len(extra)))
	}
	estimator := pricing.NewEstimator(table, logger.Named("pricing"))

	limit := types.NewMoney(decimal.NewFromFloat(cfg.Payment.MockLimit), table.Currency)
	bookingSvc := booking.NewService(booking.NewStore(dbPool), booking.MockPayments{Limit: limit}, logger.Named("booking"))

	provider, err := ai.NewProvider(ctx, ai.ProviderConfig{
		Name:      cfg.AI.Provider,
		Model:     cfg.AI.Model,
		APIKey:    providerKey(cfg.AI),
		AWSRegion: cfg.AI.AWSRegion,
	})
	if err != nil {
		return err
	}
	if c, ok := provider.(io.Closer); ok {
		defer c.Close()
	}
	assistant := ai.NewAssistant(provider, cfg.AI.Timeout)
	logger.Info("llm provider", zap.String("provider", assistant.Provider()))

	deps := service.Deps{
		Sessions:      sessions,
		Estimator:     estimator,
		Bookings:      bookingSvc,
		Assistant:     assistant,
		Usage:         aiusage.NewService(aiusage.NewStore(dbPool, cfg.AI.DailyCalls)),
		Logger:        logger.Named("planner"),
		HistoryWindow: cfg.Session.HistoryWindow,
		OriginCity:    cfg.Maps.OriginCity,
	}
	if cfg.Maps.APIKey != "" {
		places, err := maps.NewPlacesService(cfg.Maps.APIKey, cfg.Maps.CacheTTL)
		if err != nil {
			return err
		}
		routes, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			return err
		}
		deps.Places = places
		deps.Routes = routes
	}
	planner := service.NewTripPlanner(deps)

	var offers flights.OfferSource
	if cfg.Flights.Enabled() {
		client, err := flights.NewAmadeusClient(flights.ClientConfig{
			BaseURL:      cfg.Flights.BaseURL,
			ClientID:     cfg.Flights.ClientID,
			ClientSecret: cfg.Flights.ClientSecret,
			Timeout:      cfg.Flights.Timeout,
			Retries:      cfg.Flights.Retries,
		}, logger.Named("amadeus"))
		if err != nil {
			return err
		}
		offers = client
	} else {
		logger.Warn("flight search disabled: flights.client_id or flights.client_secret not set")
	}
	flightSvc := flights.NewService(offers, table.Currency, cfg.Flights.CacheTTL, logger.Named("flights"))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	var verifier infra.TokenVerifier
	if cfg.Firebase.ProjectID != "" {
		verifier, err = infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			return err
		}
	}

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Chat:           handlers.NewChatHandler(planner, cfg.HTTP.RequestTimeout),
		Bookings:       handlers.NewBookingHandler(bookingSvc, cfg.HTTP.RequestTimeout),
		Flights:        handlers.NewFlightHandler(flightSvc, cfg.Flights.Timeout),
		Verifier:       verifier,
		Logger:         logger.Named("http"),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RatePerSecond:  cfg.HTTP.RatePerSecond,
		RateBurst:      cfg.HTTP.RateBurst,
	})
	return httptransport.NewServer(cfg.HTTP.Addr, router, logger).Run(ctx)
}

func providerKey(c config.AIConfig) string {
	if c.Provider == "openai" {
		return c.OpenAIKey
	}
	return c.GeminiKey
}
