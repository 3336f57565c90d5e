package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"hrdesk/internal/account"
	"hrdesk/internal/attendance"
	"hrdesk/internal/clock"
	"hrdesk/internal/config"
	hrgrpc "hrdesk/internal/grpc"
	internalhttp "hrdesk/internal/http"
	"hrdesk/internal/jobs"
	"hrdesk/internal/leave"
	"hrdesk/internal/lock"
	"hrdesk/internal/store/backend"
	"hrdesk/internal/uploads"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("env file ignored: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := clock.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("invalid TIMEZONE %q: %v", cfg.Timezone, err)
	}

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}
	defer store.Close()

	var locker lock.Locker = lock.NewLocal(cfg.LockWait)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("redis ping failed: %v", err)
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("redis close error: %v", err)
			}
		}()
		locker = lock.NewRedis(redisClient, cfg.LockTTL, cfg.LockWait)
	}

	clk := clock.System{}
	uploadStore, err := uploads.New(cfg.UploadDir, clk)
	if err != nil {
		log.Fatalf("upload dir init failed: %v", err)
	}
	accounts := account.NewService(store, account.TokenConfig{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.AccessTokenTTL,
	}, clk)
	attendanceLedger := attendance.NewLedger(store, locker, clk, loc)
	leaveLedger := leave.NewLedger(store, uploadStore, locker, clk)

	server := internalhttp.NewServer(cfg, accounts, attendanceLedger, leaveLedger, uploadStore)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var grpcServer *grpc.Server
	if cfg.ServiceAuthToken != "" {
		serviceAuthInterceptor, err := hrgrpc.NewServiceAuthUnaryInterceptor(cfg.ServiceAuthToken)
		if err != nil {
			log.Fatalf("grpc service auth init failed: %v", err)
		}
		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(serviceAuthInterceptor))
		hrgrpc.RegisterAttendanceQueryServiceServer(grpcServer, hrgrpc.NewAttendanceQueryServer(attendanceLedger))
	} else {
		log.Printf("grpc disabled: SERVICE_AUTH_TOKEN not set")
	}

	jobs.StartIncompleteDayJob(ctx, cfg, attendanceLedger)

	go func() {
		log.Printf("hrdesk http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	if grpcServer != nil {
		go func() {
			listener, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				log.Fatalf("grpc listen error: %v", err)
			}
			log.Printf("hrdesk grpc listening on %s", cfg.GRPCAddr)
			if err := grpcServer.Serve(listener); err != nil {
				log.Fatalf("grpc server error: %v", err)
			}
		}()
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
}
