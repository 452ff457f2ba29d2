package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fjod/go_delivery/internal/cache"
	"github.com/fjod/go_delivery/internal/cart"
	"github.com/fjod/go_delivery/internal/config"
	deliveryhttp "github.com/fjod/go_delivery/internal/http"
	"github.com/fjod/go_delivery/internal/metrics"
	"github.com/fjod/go_delivery/internal/publisher"
	"github.com/fjod/go_delivery/internal/repository"
	"github.com/fjod/go_delivery/internal/service"
	"github.com/fjod/go_delivery/pkg/circuitbreaker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const (
	limiterCleanupEvery = time.Minute
	limiterIdleAfter    = 10 * time.Minute
)

// Serve connects to every backing store, then runs the REST server, the gRPC
// health server and the outbox poller until ctx is cancelled.
func Serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	cred := cfg.Credentials()
	repo, err := repository.NewRepository(cred)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.RunMigrations(cred); err != nil {
		return err
	}
	log.Info("connected to postgres", zap.String("host", cred.Host), zap.String("db", cred.DBName))

	mongoDB, err := cart.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoDB.Client().Disconnect(dctx); err != nil {
			log.Warn("mongo disconnect failed", zap.Error(err))
		}
	}()

	cartRepo := cart.NewMongoRepository(mongoDB)
	if err := cartRepo.CreateIndexes(ctx, cfg.Mongo.CartTTL); err != nil {
		return err
	}
	log.Info("connected to mongodb", zap.String("database", cfg.Mongo.Database))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	redisCache := cache.NewRedisCache(redisClient, cfg.Redis.RulesTTL, cfg.Redis.CartTTL)

	recorder, err := metrics.New(nil)
	if err != nil {
		return err
	}

	carts := cart.NewService(cartRepo, redisCache, log)
	rules := service.NewRuleProvider(repo, redisCache, log)
	svc := service.NewService(repo, rules, carts, recorder, log, service.Config{
		StatusRetries: cfg.Checkout.StatusRetry,
		OrderPageSize: cfg.Checkout.OrderPageSize,
	})

	writer := publisher.NewKafkaWriter(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
	defer writer.Close()
	poller := publisher.NewOutboxPoller(repo, writer,
		circuitbreaker.New(circuitbreaker.DefaultConfig("outbox-kafka"), log), log,
		publisher.Config{
			Interval:     cfg.Outbox.Interval,
			BatchSize:    cfg.Outbox.BatchSize,
			WriteTimeout: cfg.Outbox.WriteTimeout,
		})

	limiter := deliveryhttp.NewActorRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
	handler := deliveryhttp.NewHandler(svc, carts, log, cfg.HTTP.RequestTimeout)
	httpServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: deliveryhttp.NewRouter(handler, deliveryhttp.RouterConfig{
			RequestTimeout: cfg.HTTP.RequestTimeout,
			SubmitLimiter:  limiter,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port: %w", err)
	}
	grpcServer, health := newGRPCServer()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("grpc server listening", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		poller.Run(gctx)
		return nil
	})
	g.Go(func() error {
		limiter.RunCleanup(gctx, limiterCleanupEvery, limiterIdleAfter)
		return nil
	})
	g.Go(func() error {
		watchHealth(gctx, health, log, repo, redisPinger{redisClient})
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		health.Shutdown()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(sctx); err != nil {
			log.Error("http shutdown failed", zap.Error(err))
		}
		grpcServer.GracefulStop()
		return nil
	})

	return g.Wait()
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
