package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/vannot/vannot/internal/api"
	"github.com/vannot/vannot/internal/asset"
	"github.com/vannot/vannot/internal/auth"
	"github.com/vannot/vannot/internal/config"
	"github.com/vannot/vannot/internal/document"
	"github.com/vannot/vannot/internal/export"
	mw "github.com/vannot/vannot/internal/middleware"
	"github.com/vannot/vannot/internal/session"
	"github.com/vannot/vannot/internal/store"
)

const sampleSource = "sailing.mp4"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		hashPassword(os.Args[2:])
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, cfg.StoreDriver, cfg.SQLitePath, cfg.DatabaseURL)
	if err != nil {
		slog.Error("open store", "error", err, "driver", cfg.StoreDriver)
		os.Exit(1)
	}
	defer st.Close()

	doc, err := store.Load(ctx, st, cfg.DocumentID)
	if errors.Is(err, store.ErrNotFound) {
		slog.Info("no saved document, starting from sample", "document", cfg.DocumentID)
		doc = document.NewSampleDocument(sampleSource)
	} else if err != nil {
		slog.Error("load document", "error", err, "document", cfg.DocumentID)
		os.Exit(1)
	}

	hub, err := session.NewHub(doc, session.Options{
		Store:      st,
		DocumentID: cfg.DocumentID,
		Autosave:   cfg.AutosaveInterval,
		Logger:     slog.Default(),
	})
	if err != nil {
		slog.Error("start session", "error", err)
		os.Exit(1)
	}
	go hub.Run(ctx)

	authService := auth.NewService(cfg.AccessPasswordHash, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)
	if !authService.Enabled() {
		slog.Warn("ACCESS_PASSWORD_HASH not set, editor is open to anyone")
	}

	assetHandler := asset.NewHandler(cfg.AssetDir)
	exportHandler := export.NewHandler(cfg.FfmpegPath, hub, assetHandler)
	apiHandler := api.NewHandler(hub)

	origins := cfg.Origins()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(origins))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/status", authHandler.Status).Methods("GET")

	// Video sources are public so the player can stream them directly.
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	protected := r.NewRoute().Subrouter()
	protected.Use(authService.AuthMiddleware)
	protected.HandleFunc("/frames/{frame}/image", assetHandler.UploadFrame).Methods("POST", "OPTIONS")
	protected.HandleFunc("/export/frames", exportHandler.ExportFrames).Methods("POST", "OPTIONS")

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(authService.AuthMiddleware)
	apiHandler.Register(apiRouter)

	r.Handle("/ws", authService.QueryTokenMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session.ServeWS(hub, w, r, mw.OriginHosts(origins))
	})))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop the session first so the last edits are saved
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "store", cfg.StoreDriver, "document", cfg.DocumentID)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// hashPassword prints a bcrypt hash for ACCESS_PASSWORD_HASH.
func hashPassword(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: server hash-password <password>")
		os.Exit(2)
	}
	hash, err := auth.HashPassword(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
