package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"github.com/shishobooks/shelfkeep/pkg/avatars"
	"github.com/shishobooks/shelfkeep/pkg/config"
	"github.com/shishobooks/shelfkeep/pkg/database"
	"github.com/shishobooks/shelfkeep/pkg/events"
	"github.com/shishobooks/shelfkeep/pkg/migrations"
	"github.com/shishobooks/shelfkeep/pkg/payments"
	"github.com/shishobooks/shelfkeep/pkg/server"
	"github.com/shishobooks/shelfkeep/pkg/version"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	log.Info("starting shelfkeep", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	store := avatars.NewStore(cfg.MediaDir)
	if err := store.EnsurePlaceholders(); err != nil {
		log.Err(err).Fatal("media directory error")
	}
	log.Info("media directory initialized", logger.Data{"path": store.Root()})

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
		log.Warn("payment gateway keys are not set, fine payments will fail")
	}
	gateway := payments.NewRazorpayClient(payments.RazorpayOptions{
		APIURL:     cfg.RazorpayAPIURL,
		KeyID:      cfg.RazorpayKeyID,
		KeySecret:  cfg.RazorpayKeySecret,
		Timeout:    cfg.GatewayTimeout,
		MaxRetries: cfg.GatewayMaxRetries,
	})

	publisher, err := newPublisher(cfg)
	if err != nil {
		log.Err(err).Fatal("event publisher error")
	}

	srv, err := server.New(cfg, db, server.Dependencies{
		Gateway:     gateway,
		Publisher:   publisher,
		AvatarStore: store,
	})
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind port")
		}

		// Extract actual port (useful when ServerPort is 0)
		actualPort := listener.Addr().(*net.TCPAddr).Port
		log.Info("server started", logger.Data{"port": actualPort})

		if err := writePortFile(actualPort); err != nil {
			log.Err(err).Error("failed to write port file")
		}

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	err = publisher.Close()
	if err != nil {
		log.Err(err).Error("event publisher close error")
	}

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}

// newPublisher connects to Kafka when brokers are configured. Without them
// payment events are dropped.
func newPublisher(cfg *config.Config) (events.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NoopPublisher{}, nil
	}
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaPaymentsTopic)
}

// writePortFile writes the server's actual port to tmp/api.port for local
// tooling. Skips silently if tmp/ doesn't exist (e.g., in Docker).
func writePortFile(port int) error {
	if _, err := os.Stat("tmp"); os.IsNotExist(err) {
		return nil
	}
	return os.WriteFile("tmp/api.port", []byte(strconv.Itoa(port)), 0600)
}
