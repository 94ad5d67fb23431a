package router

import (
	"github.com/tulisku/tulisku/internal/application"
	"github.com/tulisku/tulisku/internal/container"
	pginfra "github.com/tulisku/tulisku/internal/infrastructure/postgres"
	handlers "github.com/tulisku/tulisku/internal/interface/http"
	"github.com/tulisku/tulisku/internal/router/modules"
)

// InitModules builds all feature modules from the container singletons and
// registers them with the router registry. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	userRepo := pginfra.NewUserRepository(pool)
	postRepo := pginfra.NewPostRepository(pool)

	userSvc := application.NewUserService(
		userRepo,
		container.GetJWT(),
		container.GetRedis(),
		logger,
		container.GetRabbitPub(),
		cfg.MailSendEnabled,
	)
	postSvc := application.NewPostService(
		postRepo,
		logger,
		container.GetES(),
		cfg.ESPostsIndex,
	)

	userHandler := handlers.NewUserHandler(userSvc, logger, cfg.CookieDomain, cfg.CookieSecure)
	postHandler := handlers.NewPostHandler(postSvc, logger)
	adminHandler := handlers.NewAdminHandler(postSvc, logger)

	r.Add(modules.NewUserModule(userHandler, container.GetJWT()))
	r.Add(modules.NewPostModule(postHandler, container.GetJWT()))
	r.Add(modules.NewAdminModule(adminHandler, container.GetJWT()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
