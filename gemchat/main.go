package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gemchat/gemchat/config"
	"gemchat/gemchat/controllers"
	"gemchat/gemchat/middlewares"
	"gemchat/gemchat/routes"
	"gemchat/gemchat/services/gemini"
	"gemchat/gemchat/sources/filestore"
	"gemchat/gemchat/sources/session"
	"gemchat/gemchat/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()

	store, err := filestore.NewChatStore(cfg.ChatsDir())
	if err != nil {
		logging.ErrorLogger.Error("chat store init error", zap.Error(err))
		os.Exit(1)
	}
	sessions := session.NewStore(session.TTL)
	gateway := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)

	chatCtrl := controllers.NewChatController(store, gateway)
	healthCtrl := controllers.NewHealthController()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Mount("/health", routes.HealthRoutes(healthCtrl))
	r.Route("/api", func(api chi.Router) {
		api.Use(middlewares.CORS)
		api.Mount("/auth", routes.AuthRoutes(cfg, sessions))
		api.Mount("/chat", routes.ChatRoutes(chatCtrl, cfg, sessions))
	})

	// Browser frontend, served as-is from ./public.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join("public", "chat.html"))
	})
	r.Handle("/*", http.FileServer(http.Dir("./public")))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	go func() {
		logging.AppLogger.Info("gemchat server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
