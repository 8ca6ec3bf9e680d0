package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kaifazhe99/Baedalfriend-BE/internal/auth"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/config"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/fanout"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/handler"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/history"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/hub"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/log"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/pubsub"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/service"
	"github.com/kaifazhe99/Baedalfriend-BE/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(log.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: cfg.Log.ServiceName,
	})
	l := log.L()

	loc, err := time.LoadLocation(cfg.Chat.Timezone)
	if err != nil {
		l.Fatal().Str("timezone", cfg.Chat.Timezone).Err(err).Msg("invalid chat timezone")
	}

	// Storage backend
	st, err := store.New(cfg.Store)
	if err != nil {
		l.Fatal().Str(log.FieldDriver, cfg.Store.Driver).Err(err).Msg("failed to open store")
	}
	defer st.Close()
	if gs, ok := st.(*store.GormStore); ok {
		if err := gs.AutoMigrate(); err != nil {
			l.Fatal().Err(err).Msg("failed to migrate schema")
		}
	}
	l.Info().Str(log.FieldDriver, cfg.Store.Driver).Msg("store ready")

	// Broker, shared process-wide for publish and subscribe
	broker, err := pubsub.New(cfg.PubSub)
	if err != nil {
		l.Fatal().Str(log.FieldDriver, cfg.PubSub.Driver).Err(err).Msg("failed to connect to broker")
	}
	defer broker.Close()
	l.Info().Str(log.FieldDriver, cfg.PubSub.Driver).Msg("broker connected")

	validator, err := auth.NewValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to create token validator")
	}

	// Explicit wiring: hub -> fanout -> service -> handler
	wsHub := hub.NewHub()
	fanoutMgr := fanout.NewManager(broker)
	chatSvc := service.NewChatService(st, broker, fanoutMgr, validator, loc)
	wsHub.OnDisconnect(chatSvc.HandleDisconnect)
	wsHandler := handler.NewWSHandler(wsHub, chatSvc, cfg.WebSocket)

	// History API
	var histCache history.Cache
	if cfg.History.CacheEnabled {
		rc, err := history.NewRedisCache(
			cfg.History.CacheAddress,
			cfg.History.CachePassword,
			cfg.History.CacheDB,
			cfg.History.CachePrefix,
		)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to connect to history cache")
		}
		defer rc.Close()
		histCache = rc
	}
	histSvc := history.NewService(st, histCache, cfg.History.CacheTTL)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(log.GinMiddleware(l))
	history.NewHandler(histSvc).RegisterRoutes(router)

	mux := http.NewServeMux()
	wsHandler.RegisterRoutes(mux)
	mux.Handle("/api/", router)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info().Str("addr", server.Addr).Msg("chat relay listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info().Msg("shutting down chat relay")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("server forced to shutdown")
	}

	l.Info().Msg("chat relay stopped")
}
