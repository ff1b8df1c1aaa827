package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/sati-centro/consulta-booking/internal/config"
	"github.com/sati-centro/consulta-booking/internal/database"
	"github.com/sati-centro/consulta-booking/internal/gateway"
	"github.com/sati-centro/consulta-booking/internal/handler"
	"github.com/sati-centro/consulta-booking/internal/queue"
	"github.com/sati-centro/consulta-booking/internal/repository"
	"github.com/sati-centro/consulta-booking/internal/router"
	"github.com/sati-centro/consulta-booking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting disabled and summary cache in process")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	rooms := repository.NewRoomRepo(db)
	bookings := repository.NewBookingRepo(db)
	payments := repository.NewPaymentRepo(db)
	events := repository.NewPaymentEventRepo(db)
	sysConfig := repository.NewConfigRepo(db)

	summaries := service.NewSummaryCache(rdb)

	admission := service.NewAdmission(users, rooms, bookings, payments, sysConfig)
	admission.Currency = cfg.Currency
	admission.Notifier = queue.NewPublisher()
	admission.Summaries = summaries

	gw := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewaySecret)
	reconciler := service.NewReconciler(payments, events, users, gw)
	reconciler.Cache = summaries

	go queue.StartNotificationConsumer()

	e := router.New(router.Deps{
		Cfg:      cfg,
		RateCfg:  config.LoadRateLimitConfig(),
		Redis:    rdb,
		Health:   handler.NewHealthHandler(db),
		Auth:     handler.NewAuthHandler(users, tokens, reconciler, cfg),
		Rooms:    handler.NewRoomHandler(rooms),
		Bookings: handler.NewBookingHandler(admission, bookings),
		Payments: handler.NewPaymentHandler(reconciler, payments, cfg.WebhookSecret),
		Account:  handler.NewAccountHandler(reconciler),
		Config:   handler.NewConfigHandler(sysConfig),
		Users:    handler.NewUserHandler(users),
	})

	log.Printf("listening on :%s (env=%s)", cfg.Port, cfg.Env)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
