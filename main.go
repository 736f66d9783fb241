// Storefront is an e-commerce backend: account lifecycle with email
// verification and password reset, JWT sessions, a public product catalog
// and superuser role management.
//
// @title Storefront API
// @version 1.0
// @description E-commerce backend: accounts, sessions, catalog and role management.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/urfave/cli/v2"

	"github.com/user/storefront-go/admin"
	"github.com/user/storefront-go/apperror"
	"github.com/user/storefront-go/auth"
	"github.com/user/storefront-go/catalog"
	"github.com/user/storefront-go/config"
	"github.com/user/storefront-go/db"
	_ "github.com/user/storefront-go/docs" // Generated Swagger docs
	"github.com/user/storefront-go/mailer"
	"github.com/user/storefront-go/users"
)

func main() {
	app := &cli.App{
		Name:  "storefront",
		Usage: "e-commerce backend",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: runServe,
			},
			{
				Name:  "migrate",
				Usage: "apply pending database migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Value: "./migrations",
						Usage: "directory holding migration files",
					},
				},
				Action: runMigrate,
			},
			{
				Name:  "create-admin",
				Usage: "grant the superuser role to an existing account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Required: true,
						Usage:    "email of the account to promote",
					},
				},
				Action: runCreateAdmin,
			},
		},
		// Bare invocation serves, matching how the container runs it.
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not loaded", "error", err)
	}
	return config.LoadConfig()
}

func runMigrate(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	pool, err := db.NewPool(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer pool.Close()

	if err := db.EnableExtensions(pool); err != nil {
		return err
	}
	return db.RunMigrations(cfg.DB, c.String("path"))
}

// runCreateAdmin seeds the first superuser. Promote requires an acting
// superuser, so a fresh deployment bootstraps its role management here.
func runCreateAdmin(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	pool, err := db.NewPool(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer pool.Close()

	user, err := admin.Bootstrap(c.Context, pool, c.String("email"))
	if err != nil {
		return err
	}
	slog.Info("superuser role granted", "user_id", user.ID, "email", user.Email)
	return nil
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := db.NewPool(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to create database pool: %w", err)
	}
	defer pool.Close()

	if err := db.EnableExtensions(pool); err != nil {
		return err
	}

	codec := auth.NewTokenCodec(cfg.Auth.JWTSecret)
	mail := mailer.NewSMTPMailer(*cfg.Mail, cfg.Server.BaseURL)

	authService := auth.NewAuthService(pool, codec, mail, *cfg.Auth)
	authHandlers := auth.NewHandlers(authService)

	userService := users.NewUserService(pool)
	userHandlers := users.NewUserHandlers(userService)

	catalogService := catalog.NewCatalogService(pool)
	catalogHandlers := catalog.NewCatalogHandlers(catalogService)

	adminService := admin.NewAdminService(pool)
	adminHandlers := admin.NewAdminHandlers(adminService, userService)

	r := chi.NewRouter()

	// Chi requires all middleware to be registered before any routes.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Panics inside handlers become standardized 500 bodies.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			defer func() {
				if rvr := recover(); rvr != nil {
					slog.Error("panic recovered", "panic", rvr, "path", req.URL.Path)
					auth.WriteError(ww, req, apperror.NewInternalError("internal server error", nil))
				}
			}()
			next.ServeHTTP(ww, req)
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandlers.HandleRegister())
		r.Post("/jwt/login", authHandlers.HandleLogin())
		r.Post("/jwt/refresh", authHandlers.HandleRefreshToken())
		r.Get("/verify", authHandlers.HandleVerifyEmail())
		r.Post("/forgot-password", authHandlers.HandleForgotPassword())
		r.Post("/reset-password", authHandlers.HandleResetPassword())
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(auth.RequireSession(codec))
		userHandlers.RegisterRoutes(r)
	})

	r.Route("/categories", func(r chi.Router) {
		catalogHandlers.RegisterCategoryRoutes(r, codec)
	})

	r.Route("/products", func(r chi.Router) {
		catalogHandlers.RegisterProductRoutes(r, codec)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireSession(codec), auth.RequireSuperuser())
		adminHandlers.RegisterRoutes(r)
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		slog.Info("server shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	slog.Info("server stopped gracefully")
	return nil
}
