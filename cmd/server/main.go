package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/npezzotti/friends-room/internal/api"
	"github.com/npezzotti/friends-room/internal/config"
	"github.com/npezzotti/friends-room/internal/database"
	"github.com/npezzotti/friends-room/internal/server"
	"github.com/npezzotti/friends-room/internal/stats"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

func openStore(cfg *config.Config) (database.TranscriptRepository, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return database.NewMemoryTranscriptRepository(), nil
	case config.StoreSqlite:
		return database.NewSqliteTranscriptRepository(cfg.SqlitePath)
	case config.StorePostgres:
		return database.NewPgTranscriptRepository(cfg.DatabaseDSN)
	case config.StoreRedis:
		return database.NewRedisTranscriptRepository(cfg.RedisAddr, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func main() {
	logger := log.New(os.Stderr, "[friends-room] ", log.LstdFlags)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal("config:", err)
	}

	var allowedOrigins stringSliceFlag
	flag.StringVar(&cfg.ServerAddr, "addr", cfg.ServerAddr, "server address")
	flag.StringVar(&cfg.RoomName, "room", cfg.RoomName, "name of the shared chat room")
	flag.StringVar(&cfg.StoreBackend, "store", cfg.StoreBackend, "transcript store: memory, sqlite, postgres or redis")
	flag.StringVar(&cfg.SqlitePath, "sqlite-path", cfg.SqlitePath, "sqlite database file")
	flag.StringVar(&cfg.DatabaseDSN, "dsn", cfg.DatabaseDSN, "postgres connection string")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "redis server address")
	flag.StringVar(&cfg.RedisPrefix, "redis-prefix", cfg.RedisPrefix, "redis key prefix")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	if len(allowedOrigins) > 0 {
		cfg.AllowedOrigins = allowedOrigins
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("config:", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		logger.Fatal("store open:", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Fatal("store close:", err)
		}
	}()
	logger.Printf("using %s transcript store", cfg.StoreBackend)

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	chatServer, err := server.NewChatServer(logger, db, statsUpdater)
	if err != nil {
		logger.Fatal("new chat server:", err)
	}

	srv := api.NewChatApp(mux, logger, chatServer, db, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down chat server...")
	if err := chatServer.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("chat server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
