package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tulisku/tulisku/internal/application"
	"github.com/tulisku/tulisku/internal/domain/entity"
	"github.com/tulisku/tulisku/internal/interface/middleware"
	"github.com/tulisku/tulisku/pkg/response"
	"github.com/tulisku/tulisku/pkg/validation"
)

type PostHandler struct {
	Svc    *application.PostService
	Logger *logrus.Logger
}

func NewPostHandler(svc *application.PostService, logger *logrus.Logger) *PostHandler {
	return &PostHandler{Svc: svc, Logger: logger}
}

type postRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

func postPayload(p *entity.Post) gin.H {
	return gin.H{
		"id":         p.ID,
		"title":      p.Title,
		"body":       p.Body,
		"author_id":  p.AuthorID,
		"author":     p.AuthorName,
		"created_at": p.CreatedAt,
		"updated_at": p.UpdatedAt,
	}
}

func postIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusNotFound, "post not found", nil)
		return 0, false
	}
	return id, true
}

// Feed is the public home page: every post, newest first.
func (h *PostHandler) Feed(c *gin.Context) {
	posts, err := h.Svc.ListFeed(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	out := make([]gin.H, 0, len(posts))
	for _, p := range posts {
		out = append(out, postPayload(p))
	}
	response.Success(c, http.StatusOK, out, "feed", gin.H{"count": len(out)})
}

func (h *PostHandler) Detail(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	p, err := h.Svc.GetDetail(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, postPayload(p), "post", nil)
}

func (h *PostHandler) Create(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	actor := c.GetString(middleware.CtxUserIDKey)
	p, err := h.Svc.Create(c.Request.Context(), actor, application.PostInput{Title: req.Title, Body: req.Body})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, postPayload(p), "post created", nil)
}

// GetForEdit returns the post for its author's edit form; anyone else gets 403.
func (h *PostHandler) GetForEdit(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	actor := c.GetString(middleware.CtxUserIDKey)
	p, err := h.Svc.GetForEdit(c.Request.Context(), id, actor)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, postPayload(p), "post", nil)
}

func (h *PostHandler) Update(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	actor := c.GetString(middleware.CtxUserIDKey)
	p, err := h.Svc.Update(c.Request.Context(), id, actor, application.PostInput{Title: req.Title, Body: req.Body})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, postPayload(p), "post updated", nil)
}
