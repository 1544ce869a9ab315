package main

import (
	courthandler "mybad/internal/courts/handler"
	courtrepository "mybad/internal/courts/repository"
	courtservice "mybad/internal/courts/service"
	"mybad/internal/reservations/handler"
	"mybad/internal/reservations/repository"
	"mybad/internal/reservations/service"
	"mybad/internal/reservations/validator"
	userhandler "mybad/internal/users/handler"
	userrepository "mybad/internal/users/repository"
	userservice "mybad/internal/users/service"
	"mybad/pkg/app"
	"mybad/pkg/auth"
	"mybad/pkg/clock"
	"mybad/pkg/config"
	"mybad/pkg/kafka"
	"mybad/pkg/middleware"
)

func main() {
	cfg := config.Load("court-booking-api")
	cfg.SetMongo()

	clk, err := clock.NewBusiness(cfg.BusinessTimeZone)
	if err != nil {
		cfg.Log.Fatal("Failed to load business timezone", "timezone", cfg.BusinessTimeZone, "error", err)
	}

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	application := app.NewApplication()
	bookingProducer := initProducer(cfg, application, cfg.BookingEventTopic)
	courtProducer := initProducer(cfg, application, cfg.CourtEventTopic)

	userRepo := userrepository.NewMongoUserRepository(cfg)
	userService := userservice.NewUserService(userRepo, issuer, cfg)

	courtRepo := courtrepository.NewMongoCourtRepository(cfg)
	courtService := courtservice.NewCourtService(courtRepo, clk, courtProducer, cfg)

	bookingRepo := repository.NewMongoBookingRepository(cfg)
	lockRepo := repository.NewBookingLockRepository(cfg)
	bookingValidator := validator.NewBookingValidator(clk, cfg.Log)
	reservationService := service.NewReservationService(
		bookingRepo,
		lockRepo,
		userService,
		courtService,
		bookingValidator,
		clk,
		bookingProducer,
		cfg,
	)

	admin := middleware.RequireAdmin(issuer, cfg.Log)

	application.SetApp(cfg,
		courthandler.NewCourtHandler(courtService, admin, cfg.Log),
		handler.NewReservationHandler(reservationService, cfg.Log),
		userhandler.NewLoginHandler(userService, cfg.Log),
	)
	application.Run()
}

// initProducer returns nil when no brokers are configured; a nil producer
// publishes nothing.
func initProducer(cfg *config.Config, application *app.Application, topic string) *kafka.Producer {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Info("Kafka brokers not configured, events disabled", "topic", topic)
		return nil
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, topic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "topic", topic, "error", err)
	}

	application.AddCloser("kafka producer "+topic, producer.Close)
	cfg.Log.Info("Kafka producer initialized", "topic", topic, "brokers", cfg.KafkaBrokers)
	return producer
}
