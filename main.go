package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-backend/auth"
	"catalog-backend/config"
	"catalog-backend/controllers"
	"catalog-backend/logger"
	"catalog-backend/media"
	"catalog-backend/repository"
	"catalog-backend/routes"
	"catalog-backend/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	l := logger.New("catalog-backend", cfg.LogLevel)
	slog.SetDefault(l)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l); err != nil {
		l.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, l *slog.Logger) error {
	var (
		products repository.ProductRepository
		users    repository.UserRepository
	)

	switch cfg.StoreDriver {
	case "memory":
		l.Warn("using in-memory store; data is lost on restart")
		products = repository.NewMemoryProductRepository()
		users = repository.NewMemoryUserRepository()
	default:
		client, err := config.ConnectDB(ctx, cfg.MongoURI, cfg.MongoMode, l)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				l.Error("disconnect MongoDB", slog.String("error", err.Error()))
			}
		}()

		db := client.Database(cfg.MongoDB)
		productRepo := repository.NewMongoProductRepository(db)
		userRepo := repository.NewMongoUserRepository(db)
		if err := productRepo.EnsureIndexes(ctx); err != nil {
			return err
		}
		if err := userRepo.EnsureIndexes(ctx); err != nil {
			return err
		}
		products, users = productRepo, userRepo
	}

	store, err := media.NewCloudinaryStore(media.CloudinaryConfig{
		URL:       cfg.CloudinaryURL,
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
	})
	if err != nil {
		return err
	}
	if !store.Configured() {
		l.Warn("Cloudinary is not configured; uploads and signatures will fail")
	}

	tokens, err := auth.NewTokenMaker(cfg.PasetoSecretKey, cfg.TokenTTL)
	if err != nil {
		return err
	}

	images := services.NewImageManager(products, store, l)
	authService := services.NewAuthService(users, tokens, l)
	if err := authService.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	ctrl := &controllers.Controller{
		Catalog: services.NewCatalogService(products, images, store, services.CatalogConfig{
			PageSize:       cfg.PaginationLimit,
			TopRatedLimit:  cfg.TopRatedLimit,
			DefaultImage:   cfg.DefaultImage,
			UploadFolder:   cfg.UploadFolder,
			MaxUploadBytes: cfg.MaxUploadBytes,
		}, l),
		Reviews:        services.NewReviewAggregator(products, l),
		Uploads:        services.NewUploadDelegate(store, cfg.UploadFolder, l),
		Auth:           authService,
		Store:          products,
		Logger:         l,
		RequestTimeout: 10 * time.Second,
		SecureCookies:  cfg.IsProduction(),
	}

	engine := routes.Setup(ctrl, authService, routes.Options{
		Production:  cfg.IsProduction(),
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("server running",
			slog.String("env", cfg.Env),
			slog.String("port", cfg.Port),
			slog.String("store", cfg.StoreDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	l.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
