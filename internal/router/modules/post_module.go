package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/tulisku/tulisku/internal/container"
	handlers "github.com/tulisku/tulisku/internal/interface/http"
	"github.com/tulisku/tulisku/internal/interface/middleware"
	"github.com/tulisku/tulisku/pkg/helpers"
)

// PostModule wires the post lifecycle and feed routes.
// Public: GET /api/posts (feed), GET /api/posts/:id (detail)
// Protected: POST /api/posts, GET /api/posts/:id/edit, PUT /api/posts/:id
type PostModule struct {
	Handler *handlers.PostHandler
	JWT     *helpers.JWTManager
}

func NewPostModule(h *handlers.PostHandler, jwt *helpers.JWTManager) *PostModule {
	return &PostModule{Handler: h, JWT: jwt}
}

func (m *PostModule) Register(rg *gin.RouterGroup) {
	// Posts are publicly readable; the feed bypasses authorization entirely.
	rg.GET("/posts", m.Handler.Feed)
	rg.GET("/posts/:id", m.Handler.Detail)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	{
		auth.POST("/posts", m.Handler.Create)
		auth.GET("/posts/:id/edit", m.Handler.GetForEdit)
		auth.PUT("/posts/:id", m.Handler.Update)
	}
}
