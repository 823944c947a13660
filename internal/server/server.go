package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/fanout"
	"taskboard/internal/objectstore"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	"taskboard/internal/store"
	"taskboard/internal/store/memstore"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config

	log         zerolog.Logger
	broadcaster *fanout.Broadcaster
	relay       *fanout.RedisRelay
}

// Init connects the configured backends and builds the router. Redis,
// Kafka and MinIO are optional: an empty address leaves them out.
func Init(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Server, error) {
	s := &Server{Config: cfg, log: log}

	var (
		st    store.Store
		users store.UserStore
		notes store.NotificationLog
	)
	switch cfg.StoreDriver {
	case "memory":
		mem := memstore.New()
		st, users, notes = mem, mem.Users(), mem.Notifications()
		log.Warn().Msg("using in-memory store, data is lost on exit")
	default:
		db, err := repository.Open(cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		if cfg.MigrateOnStart {
			if err := repository.Migrate(db); err != nil {
				return nil, fmt.Errorf("failed to migrate DB: %w", err)
			}
		}
		s.DB = db
		repo := repository.NewStore(db)
		st, users, notes = repo, repo.Users(), repo.Notifications()
		log.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("connected to database")
	}

	hub := fanout.NewHub(log)
	var transport fanout.Transport = hub
	if cfg.RedisURL != "" {
		relay, err := fanout.NewRedisRelay(ctx, cfg.RedisURL, hub, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.relay = relay
		transport = relay
	}

	opts := []fanout.Option{
		fanout.WithQueueSize(cfg.FanoutQueueSize),
		fanout.WithDeliveryTimeout(cfg.FanoutDeliveryTimeout),
	}
	if len(cfg.KafkaBrokers) > 0 {
		opts = append(opts, fanout.WithStream(fanout.NewKafkaStream(cfg.KafkaBrokers, cfg.KafkaTopic)))
	}
	s.broadcaster = fanout.NewBroadcaster(notes, transport, log, opts...)

	var objects objectstore.Store = objectstore.NewMemory()
	if cfg.MinioEndpoint != "" {
		m, err := objectstore.NewMinio(ctx, objectstore.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to object storage: %w", err)
		}
		objects = m
	} else {
		log.Warn().Msg("MINIO_ENDPOINT not set, attachments are kept in memory")
	}

	svc := service.New(st, s.broadcaster, service.WithLogger(log), service.WithObjectStore(objects))

	gin.SetMode(gin.ReleaseMode)
	s.Engine = NewRouter(Deps{
		Service:       svc,
		Users:         users,
		Notifications: notes,
		Hub:           hub,
		Tokens:        auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry),
		Log:           log,
	})
	return s, nil
}

// Run serves HTTP and the redis relay until ctx is cancelled, then drains
// the broadcaster and releases every backend.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info().Str("port", s.Config.ServerPort).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	if s.relay != nil {
		g.Go(func() error { return s.relay.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Config.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if cerr := s.close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err == nil {
		s.log.Info().Msg("server exited properly")
	}
	return err
}

func (s *Server) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.Config.ShutdownTimeout)
	defer cancel()

	var errs []error
	// Also closes the kafka stream.
	if err := s.broadcaster.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain broadcaster: %w", err))
	}
	if s.relay != nil {
		if err := s.relay.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if s.DB != nil {
		if sqlDB, err := s.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close db: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
