package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tulisku/tulisku/internal/application"
	"github.com/tulisku/tulisku/internal/domain/repository"
	"github.com/tulisku/tulisku/pkg/response"
)

// AdminHandler exposes the administrative read surface over posts:
// search by title/body, filter by author and creation date.
type AdminHandler struct {
	Svc    *application.PostService
	Logger *logrus.Logger
}

func NewAdminHandler(svc *application.PostService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Logger: logger}
}

// ListPosts GET /api/admin/posts?q=&author=&from=&to=
// Dates accept RFC3339 or plain YYYY-MM-DD.
func (h *AdminHandler) ListPosts(c *gin.Context) {
	f := repository.PostFilter{
		Query:          c.Query("q"),
		AuthorUsername: c.Query("author"),
	}
	if v := c.Query("from"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid payload", map[string]string{"from": "must be a valid date"})
			return
		}
		f.CreatedFrom = t
	}
	if v := c.Query("to"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid payload", map[string]string{"to": "must be a valid date"})
			return
		}
		f.CreatedTo = t
	}

	posts, err := h.Svc.AdminSearch(c.Request.Context(), f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	out := make([]gin.H, 0, len(posts))
	for _, p := range posts {
		out = append(out, postPayload(p))
	}
	response.Success(c, http.StatusOK, out, "posts", gin.H{"count": len(out)})
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
