package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/feltstack/holdem/adminapi"
	"github.com/feltstack/holdem/cache"
	"github.com/feltstack/holdem/config"
	"github.com/feltstack/holdem/directory"
	"github.com/feltstack/holdem/gateway"
	"github.com/feltstack/holdem/poker"
	"github.com/feltstack/holdem/table"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("[Server] invalid configuration: %v", err)
	}

	cacheGW, closeCache := newCacheGateway(cfg)
	defer closeCache()

	dirService, closeDirectory := newDirectoryService(cfg)
	defer closeDirectory()

	defaults := table.Config{
		MaxSeats: 9,
		HandConfig: poker.Config{
			SmallBlind:    10,
			BigBlind:      20,
			InitialStack:  1000,
			ActionTimeout: cfg.DefaultActionTimeoutSec,
		},
		ReconnectGrace: cfg.ReconnectGrace,
		IdleTTL:        10 * time.Minute,
		Seed:           1,
	}

	var gw *gateway.Gateway
	registry := table.NewRegistry(defaults, func(userID string, evt table.OutboundEvent) {
		gw.Deliver(userID, evt)
	}, cacheGW, dirService)
	defer registry.Stop()

	gw = gateway.New(dirService, registry)
	admin := adminapi.New(registry)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	admin.RegisterRoutes(mux)
	if local, ok := dirService.(*directory.LocalDirectory); ok {
		directory.NewLocalAuthHandler(local).RegisterRoutes(mux)
	}

	addr := fmt.Sprintf(":%d", cfg.ListenPort)
	log.Printf("[Server] mode=%s listening on %s", cfg.Mode, addr)
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil {
		log.Fatalf("[Server] failed to start: %v", err)
	}
}

func newCacheGateway(cfg config.Config) (cache.Gateway, func()) {
	if cfg.Mode == config.ModeTest {
		return cache.NewMemoryGateway(), func() {}
	}
	redisGW := cache.NewRedisGateway(cache.RedisConfig{
		Host: cfg.CacheHost,
		Port: cfg.CachePort,
		DB:   cfg.CacheDB,
	})
	return redisGW, func() { redisGW.Close() }
}

func newDirectoryService(cfg config.Config) (directory.Service, func()) {
	if cfg.Mode == config.ModeTest {
		local, err := directory.NewLocalDirectory(cfg.LocalDirectoryDBPath)
		if err != nil {
			log.Fatalf("[Server] failed to open local directory database: %v", err)
		}
		return local, func() { local.Close() }
	}

	var history *directory.HistorySink
	closeHistory := func() {}
	if cfg.HistoryDBHost != "" {
		sink, err := directory.NewHistorySink(directory.PostgresConfig{
			Host:     cfg.HistoryDBHost,
			Port:     cfg.HistoryDBPort,
			DBName:   cfg.HistoryDBName,
			User:     cfg.HistoryDBUser,
			Password: cfg.HistoryDBPassword,
		})
		if err != nil {
			log.Fatalf("[Server] failed to open hand history database: %v", err)
		}
		history = sink
		closeHistory = func() { sink.Close() }
	} else {
		log.Printf("[Server] HISTORY_DB_HOST not set, hand history recording disabled")
	}

	client := directory.NewHTTPClient(cfg.DirectoryURL, history)
	return client, closeHistory
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
