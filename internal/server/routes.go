package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"text/template"
	"time"

	"rltracker/internal/acquire"
	"rltracker/internal/cache"
	"rltracker/internal/config"
	"rltracker/internal/db"
	"rltracker/internal/events"
	"rltracker/internal/extract"
	"rltracker/internal/metrics"
	"rltracker/internal/ranks"
	"rltracker/internal/refresh"
	"rltracker/internal/wshub"
)

func Run() error {
	appCfg := config.Load()
	if appCfg.Username == "" {
		return fmt.Errorf("RL_USERNAME must be set")
	}

	tmpl := template.Must(template.ParseFiles(
		"templates/dashboard.html",
	))

	store := cache.NewStore(appCfg.CachePath)
	bus := events.NewBus()
	hub := wshub.NewHub()

	srv := &Server{
		Cfg:   appCfg,
		Tmpl:  tmpl,
		Store: store,
		Hub:   hub,
		Icons: ranks.NewResolver(appCfg.IconDir),
	}

	// Optional database connection
	var history refresh.History
	if appCfg.DatabaseURL != "" {
		database, err := db.Connect(appCfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v (running without history)\n", err)
		} else {
			if err := database.Migrate(); err != nil {
				log.Printf("[DB] Migration failed: %v\n", err)
			}
			srv.DB = database
			history = database
			log.Println("[DB] Database connected and migrations applied")
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, running without history")
	}

	challengeWait := time.Duration(appCfg.ChallengeWaitSeconds) * time.Second
	acquirer := acquire.NewChromeAcquirer(appCfg.DevToolsURL, challengeWait)
	srv.Controller = refresh.NewController(
		acquirer,
		extract.Extract,
		store,
		history,
		bus,
		appCfg.Platform,
		appCfg.Username,
		time.Duration(appCfg.RefreshIntervalMinutes)*time.Minute,
		challengeWait+2*time.Minute, // navigation and extraction budget on top of the challenge wait
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	srv.Ctx = ctx

	hub.Listen(ctx, bus)
	go srv.Controller.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleDashboard)
	mux.HandleFunc("/api/snapshot", srv.handleSnapshot)
	mux.HandleFunc("/api/activity", srv.handleActivity)
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/refresh", srv.handleRefresh)
	mux.HandleFunc("/history/playlist", srv.handleHistoryPlaylist)
	mux.HandleFunc("/history/deltas", srv.handleHistoryDeltas)
	mux.HandleFunc("/history/summary", srv.handleHistorySummary)
	mux.HandleFunc("/ws", srv.handleWS)
	mux.HandleFunc("/health", srv.handleHealth)
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/icons/", http.StripPrefix("/icons/", http.FileServer(http.Dir(appCfg.IconDir))))

	addr := "0.0.0.0:" + appCfg.Port
	fmt.Printf("Server listening on http://localhost:%s\n", appCfg.Port)

	httpSrv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
