// Package main, Tokyo Edge portal backend'inin giriş noktasıdır.
//
// Bu dosyanın görevi Dependency Injection "wire-up" yapmaktır:
//  1. Config'i yükle, logger'ı kur
//  2. Database'i başlat (embed edilmiş migration'lar)
//  3. Repository'leri oluştur
//  4. WebSocket Hub'ı başlat
//  5. Service'leri oluştur, admin bootstrap
//  6. Arka plan işleri: status broadcast + housekeeping
//  7. Handler'ları ve route'ları bağla
//  8. CORS + metrics middleware
//  9. HTTP Server'ı başlat, graceful shutdown
//
// Global değişken YOK: her şey burada oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/tokyoedge/portal/config"
	"github.com/tokyoedge/portal/database"
	"github.com/tokyoedge/portal/pkg/logger"
	"github.com/tokyoedge/portal/pkg/metrics"
	"github.com/tokyoedge/portal/services"
	"github.com/tokyoedge/portal/static"
	"github.com/tokyoedge/portal/ws"
)

func main() {
	log := logger.For("main")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	log.WithField("port", cfg.Server.Port).Info("portal server starting")

	// ─── 2. Database ───
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()

	// ─── 3. Repository Layer ───
	repos := initRepositories(db.Conn)

	// ─── 4. WebSocket Hub ───
	//
	// Hub, tüm subscriber bağlantılarını yöneten merkezi yapıdır.
	// Service'ler hub'a ws.Publisher interface'i üzerinden erişir.
	hub := ws.NewHub()

	// ─── 5. Service Layer ───
	svcs, limiters, closers := initServices(db.Conn, repos, hub, cfg)

	if err := svcs.Auth.EnsureAdmin(context.Background(), cfg.Admin.Username, cfg.Admin.Password); err != nil {
		log.WithError(err).Fatal("failed to bootstrap admin account")
	}

	// Callback'ler Run'dan önce set edilmeli.
	registerHubCallbacks(hub, svcs.Status)
	go hub.Run()

	// ─── 6. Background Jobs ───
	svcs.Status.Start()
	if err := svcs.Housekeeping.Start(services.HousekeepingSchedule); err != nil {
		log.WithError(err).Fatal("failed to schedule housekeeping")
	}

	// ─── 7. Handlers & Routes ───
	h := initHandlers(svcs, limiters, hub, db.Conn, cfg)

	frontend, err := fs.Sub(static.FrontendFS, "dist")
	if err != nil {
		log.WithError(err).Fatal("failed to open embedded frontend")
	}

	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth, repos.User, frontend)

	// ─── 8. CORS + Metrics ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		Debug:            false,
	})

	handler := metrics.InstrumentHandler(corsHandler.Handler(mux))

	// ─── 9. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.WithField("addr", cfg.Server.Addr()).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-done
	log.Info("shutting down...")

	// Sıra: önce yayın ve cron durur (hub'a yazan kalmasın), sonra
	// subscriber'lar kapatılır, en son HTTP server mevcut request'leri bitirir.
	svcs.Status.Stop()
	svcs.Housekeeping.Stop()
	hub.Shutdown()
	limiters.Login.Stop()
	closers.OAuthStates.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("forced shutdown")
		return
	}

	log.Info("server stopped gracefully")
}
