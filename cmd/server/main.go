package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/creditdesk/authd/internal/auth"
	"github.com/creditdesk/authd/internal/config"
	"github.com/creditdesk/authd/internal/db"
	"github.com/creditdesk/authd/internal/es"
	"github.com/creditdesk/authd/internal/handlers"
	"github.com/creditdesk/authd/internal/httpserver"
	"github.com/creditdesk/authd/internal/logging"
	"github.com/creditdesk/authd/internal/middleware/authmw"
	"github.com/creditdesk/authd/internal/middleware/loggingmw"
	"github.com/creditdesk/authd/internal/models"
	"github.com/creditdesk/authd/internal/mykafka"
	"github.com/creditdesk/authd/internal/tokens"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.AccessSecret, "JWT_ACCESS_SECRET")
	config.MustNonEmptyBytes(cfg.RefreshSecret, "JWT_REFRESH_SECRET")

	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	prod := mykafka.NewProducer(cfg.KafkaBrokers)

	var esClient *elasticsearch.Client
	if cfg.ESURL != "" {
		esClient, err = es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
	}

	userCodec := &tokens.Codec{
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}
	employeeCodec := &tokens.Codec{
		AccessSecret:  cfg.EmployeeAccessSecret,
		RefreshSecret: cfg.EmployeeRefreshSecret,
		AccessTTL:     cfg.EmployeeAccessTTL,
		RefreshTTL:    cfg.EmployeeRefreshTTL,
		Audience:      models.KindEmployee,
	}

	store := &auth.RefreshTokenStore{DB: gdb}
	userSvc := auth.NewService(models.KindUser, []string{"user"}, &auth.UserDirectory{DB: gdb}, userCodec, store)
	employeeSvc := auth.NewService(models.KindEmployee, []string{"employee"}, &auth.EmployeeDirectory{DB: gdb}, employeeCodec, store)

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		UserAuth:      &handlers.AuthHandler{Svc: userSvc, Producer: prod, EventTopic: "user_events"},
		EmployeeAuth:  &handlers.AuthHandler{Svc: employeeSvc, Producer: prod, EventTopic: "employee_events"},
		Employees:     &handlers.EmployeesHandler{DB: gdb, Svc: employeeSvc},
		Clients:       &handlers.ClientsHandler{DB: gdb, ES: esClient, Index: cfg.ESIndex, Producer: prod},
		UserGuard:     authmw.NewGuard(userCodec),
		EmployeeGuard: authmw.NewGuard(employeeCodec),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
