package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drink-orders/internal/config"
	"github.com/drink-orders/internal/events"
	ordersgrpc "github.com/drink-orders/internal/grpc"
	handler "github.com/drink-orders/internal/http"
	"github.com/drink-orders/internal/line"
	"github.com/drink-orders/internal/logger"
	"github.com/drink-orders/internal/notify"
	"github.com/drink-orders/internal/repo"
	"github.com/drink-orders/internal/service"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}

	zlog, err := logger.New(cfg.Log.Level, "drink-orders")
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()
	zap.ReplaceGlobals(zlog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orderRepo, closeStore, err := openStore(cfg.Store, zlog)
	if err != nil {
		zlog.Fatal("failed to open order store", zap.Error(err))
	}
	defer closeStore()

	lineClient, err := line.NewClient(cfg.LINE.APIURL, cfg.LINE.AccessToken, cfg.LINE.Timeout)
	if err != nil {
		zlog.Fatal("invalid LINE_API_URL", zap.Error(err))
	}
	dispatcher := notify.NewDispatcher(lineClient)

	var publisher events.Publisher
	var redisClient *redis.Client

	switch cfg.Events.Backend {
	case config.EventsBackendRedis:
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			zlog.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		redisClient = redis.NewClient(opt)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			zlog.Fatal("failed to connect to redis", zap.Error(err))
		}
		zlog.Info("connected to redis")
		publisher = events.NewRedisPublisher(redisClient)

	case config.EventsBackendRabbitMQ:
		conn, ch, err := events.DialAMQP(cfg.RabbitMQ.URL)
		if err != nil {
			zlog.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
		defer conn.Close()
		defer ch.Close()
		amqpPublisher, err := events.NewAMQPPublisher(ch, cfg.RabbitMQ.Exchange)
		if err != nil {
			zlog.Fatal("failed to set up rabbitmq publisher", zap.Error(err))
		}
		zlog.Info("connected to rabbitmq", zap.String("exchange", cfg.RabbitMQ.Exchange))
		publisher = amqpPublisher
	}

	orderService := service.NewOrderService(orderRepo, dispatcher, publisher)

	if redisClient != nil {
		consumer := events.NewConsumer(redisClient, orderService, zlog)
		go consumer.Subscribe(ctx, events.OrderStatusUpdateChannel)
	}

	gin.SetMode(gin.ReleaseMode)
	h := handler.NewHandler(orderService, dispatcher, cfg.LINE.ChannelSecret, cfg.Server.AllowedOrigin)
	r := handler.NewRouter(h, zlog)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(ordersgrpc.RequireOrigin(cfg.Server.AllowedOrigin)))
	ordersgrpc.RegisterOrderServiceServer(grpcServer, ordersgrpc.NewServer(orderService, zlog))

	grpcLis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		zlog.Fatal("failed to listen for grpc", zap.Error(err))
	}

	go func() {
		zlog.Info("starting grpc server", zap.String("port", cfg.Server.GRPCPort))
		if err := grpcServer.Serve(grpcLis); err != nil {
			zlog.Fatal("grpc serve", zap.Error(err))
		}
	}()

	go func() {
		zlog.Info("starting http server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			zlog.Error("error closing redis connection", zap.Error(err))
		}
	}

	zlog.Info("server exiting")
}

func openStore(cfg config.StoreConfig, zlog *zap.Logger) (repo.OrderRepository, func(), error) {
	if cfg.Driver == config.StoreDriverMemory {
		zlog.Warn("using in-memory order store; orders are lost on restart")
		return repo.NewMemoryOrderRepository(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}
	zlog.Info("connected to database")

	if err := repo.RunMigrations(db, cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, nil, err
	}
	zlog.Info("migrations applied", zap.String("path", cfg.MigrationsPath))

	return repo.NewPostgresOrderRepository(db), func() { db.Close() }, nil
}
