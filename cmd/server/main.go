package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpclib "google.golang.org/grpc"

	grpcadapter "github.com/simaogato/wallet-ledger/internal/adapter/grpc"
	redisadapter "github.com/simaogato/wallet-ledger/internal/adapter/redis"
	"github.com/simaogato/wallet-ledger/internal/adapter/repository/postgres"
	"github.com/simaogato/wallet-ledger/internal/config"
	"github.com/simaogato/wallet-ledger/internal/usecase/transfer"
)

const connectRetryDelay = 2 * time.Second

func main() {
	ctx := context.Background()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 1. Setup Database
	db, err := postgres.Connect(ctx, cfg.DBConnStr, postgres.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
		LockTimeout:  cfg.DBLockTimeout,
	}, cfg.DBConnectRetries, connectRetryDelay)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to apply database schema: %v", err)
	}
	log.Println("Database schema is up to date")

	// 2. Initialize Store and Services (Use Cases)
	store := postgres.NewStore(db)
	transferService := transfer.NewTransferService(store)

	// 3. Build interceptor chain: request id, auth, then throttling of transfers
	interceptors := []grpclib.UnaryServerInterceptor{
		grpcadapter.RequestIDInterceptor(),
		grpcadapter.AuthInterceptor(cfg.APIToken, store),
	}

	if cfg.RedisAddr != "" {
		redisClient, err := redisadapter.NewClient(ctx, redisadapter.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		limiter := redisadapter.NewLimiter(redisClient, cfg.TransferRateLimit, cfg.TransferRateWindow)
		interceptors = append(interceptors, grpcadapter.RateLimitInterceptor(limiter, grpcadapter.TransferFullMethodName))
		log.Printf("Transfer throttling enabled: %d per %s", cfg.TransferRateLimit, cfg.TransferRateWindow)
	} else {
		log.Println("Transfer throttling disabled (no Redis address configured)")
	}

	// 4. Start gRPC Server
	grpcServer := grpclib.NewServer(grpclib.ChainUnaryInterceptor(interceptors...))
	grpcadapter.RegisterLedgerServiceServer(grpcServer, grpcadapter.NewServer(transferService, store))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.GRPCAddr, err)
	}

	// Start server in a goroutine
	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve gRPC server: %v", err)
		}
	}()

	// Graceful shutdown
	waitForShutdown(grpcServer)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(grpcServer *grpclib.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal: %v. Shutting down gracefully...", sig)

	grpcServer.GracefulStop()
	log.Println("gRPC server stopped")
}
