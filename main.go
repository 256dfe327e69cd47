package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "travelagency/internal/config"
	"travelagency/internal/domain"
	"travelagency/internal/events"
	router "travelagency/internal/http"
	"travelagency/internal/http/handlers"
	"travelagency/internal/repositories"
	"travelagency/internal/services"
	"travelagency/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// storage bundles the store implementations selected by STORAGE.
type storage struct {
	bookings   services.BookingStore
	passengers services.PassengerStore
	accounts   services.AccountStore
	directory  domain.StaffDirectory
	seeder     interface {
		EnsureAdmin(ctx context.Context, acc domain.StaffAccount, passwordHash string) error
	}
	ping func(ctx context.Context) error
}

func main() {
	env := intconfig.LoadEnv()
	utils.ConfigureLogger(env.LogLevel, env.LogFormat)
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	store, err := openStorage(env)
	if err != nil {
		utils.Logger.WithError(err).Fatal("storage init failed")
	}
	defer intconfig.CloseDB()

	if err := seedAdmin(env, store); err != nil {
		utils.Logger.WithError(err).Fatal("admin bootstrap failed")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if env.AMQPURL != "" {
		amqpPublisher := events.NewAMQPPublisher(env.AMQPURL, env.EventsQueue)
		defer func() { _ = amqpPublisher.Close() }()
		publisher = amqpPublisher
		utils.Logger.WithField("queue", env.EventsQueue).Info("publishing booking events to RabbitMQ")
	}

	query := services.QueryService{
		Bookings:   store.bookings,
		Passengers: store.passengers,
		Resolver:   domain.StaffResolver{Directory: store.directory},
	}
	auth := services.AuthService{
		Accounts: store.accounts,
		Secret:   []byte(env.JWTSecret),
		TTL:      env.TokenTTL,
	}
	h := handlers.Handlers{
		Bookings: services.BookingService{
			Bookings: store.bookings,
			Staff:    store.directory,
			Query:    query,
			Events:   publisher,
		},
		Query: query,
		Passengers: services.PassengerService{
			Bookings:   store.bookings,
			Passengers: store.passengers,
			Events:     publisher,
		},
		Auth: auth,
		Docs: services.DocsService{Query: query},
		Ping: store.ping,
	}

	r := router.NewRouter(env, h)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		utils.Logger.WithField("addr", env.AppAddr).WithField("storage", env.Storage).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	utils.Logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger.WithError(err).Error("graceful shutdown failed")
		return
	}

	utils.Logger.Info("server stopped cleanly")
}

func openStorage(env intconfig.Env) (storage, error) {
	if env.Storage == intconfig.StorageMemory {
		mem := repositories.NewMemoryStore()
		utils.Logger.Warn("using in-memory storage, data is lost on restart")
		return storage{
			bookings:   mem,
			passengers: mem,
			accounts:   mem,
			directory:  mem,
			seeder:     mem,
		}, nil
	}

	db, err := intconfig.ConnectDB(env.Database)
	if err != nil {
		return storage{}, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := intconfig.Migrate(ctx, db); err != nil {
		return storage{}, err
	}

	staff := repositories.StaffRepository{DB: db}
	return storage{
		bookings:   repositories.BookingRepository{DB: db},
		passengers: repositories.PassengerRepository{DB: db},
		accounts:   staff,
		directory:  staff,
		seeder:     staff,
		ping:       intconfig.PingDB,
	}, nil
}

func seedAdmin(env intconfig.Env, store storage) error {
	if env.AdminUsername == "" || env.AdminPassword == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(env.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return store.seeder.EnsureAdmin(ctx, domain.StaffAccount{Username: env.AdminUsername, FullName: "Administrator"}, string(hash))
}
