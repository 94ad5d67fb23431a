package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/tulisku/tulisku/internal/container"
	handlers "github.com/tulisku/tulisku/internal/interface/http"
	"github.com/tulisku/tulisku/internal/interface/middleware"
	"github.com/tulisku/tulisku/pkg/helpers"
)

// AdminModule exposes the administrative post listing to admin sessions only.
type AdminModule struct {
	Handler *handlers.AdminHandler
	JWT     *helpers.JWTManager
}

func NewAdminModule(h *handlers.AdminHandler, jwt *helpers.JWTManager) *AdminModule {
	return &AdminModule{Handler: h, JWT: jwt}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(middleware.Auth(container.GetRedis(), m.JWT), middleware.RequireAdmin())
	{
		admin.GET("/posts", m.Handler.ListPosts)
	}
}
