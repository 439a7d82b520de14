package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jargoyle/jargoyle/internal/document/repository"
	"github.com/jargoyle/jargoyle/internal/document/service"
	"github.com/jargoyle/jargoyle/internal/models"
	"github.com/jargoyle/jargoyle/internal/users"
	"github.com/jargoyle/jargoyle/pkg/middleware"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxTitleLength  = 255
)

// DocumentHandler serves the user-scoped document API. Every operation runs
// against the local user resolved from the current session.
type DocumentHandler struct {
	usersSvc *users.Service
	docsSvc  *service.Service
}

func NewDocumentHandler(u *users.Service, d *service.Service) *DocumentHandler {
	return &DocumentHandler{usersSvc: u, docsSvc: d}
}

func (h *DocumentHandler) Register(r *gin.Engine) {
	r.GET("/api/documents", h.List)
	r.POST("/api/documents", h.Upload)
	r.GET("/api/documents/:id", h.Get)
	r.PATCH("/api/documents/:id", h.Update)
	r.DELETE("/api/documents/:id", h.Delete)
}

// currentUser resolves the session's external identity to the local user.
// The access policy has already rejected unauthenticated API requests, but a
// session whose user vanished still degrades to 401 here.
func (h *DocumentHandler) currentUser(c *gin.Context) *models.User {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return nil
	}
	u, err := h.usersSvc.Lookup(c.Request.Context(), sess.Provider, sess.Subject)
	if err != nil || u == nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return nil
	}
	return u
}

func (h *DocumentHandler) List(c *gin.Context) {
	u := h.currentUser(c)
	if u == nil {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultPageSize)))
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}

	docs, total, err := h.docsSvc.ListByUser(c.Request.Context(), u.ID, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list documents"})
		return
	}
	rows := make([]gin.H, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, gin.H{
			"id":           d.ID,
			"title":        d.Title,
			"documentType": d.DocumentType,
			"inputType":    d.InputType,
			"status":       d.Status,
			"createdAt":    d.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"documents": rows, "total": total, "page": page, "size": size})
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	u := h.currentUser(c)
	if u == nil {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer f.Close()

	title := c.PostForm("title")
	if len(title) > maxTitleLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title too long"})
		return
	}
	contentType := fh.Header.Get("Content-Type")
	d, err := h.docsSvc.Upload(c.Request.Context(), u.ID, title, fh.Filename, contentType, f, fh.Size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": d.ID, "title": d.Title, "status": d.Status})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	u := h.currentUser(c)
	if u == nil {
		return
	}
	d, sum, err := h.docsSvc.Get(c.Request.Context(), c.Param("id"), u.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load document"})
		return
	}
	resp := gin.H{
		"id":               d.ID,
		"title":            d.Title,
		"documentType":     d.DocumentType,
		"inputType":        d.InputType,
		"originalFilename": d.OriginalFilename,
		"status":           d.Status,
		"errorMessage":     d.ErrorMessage,
		"createdAt":        d.CreatedAt,
	}
	if sum != nil {
		resp["summary"] = gin.H{
			"plainSummary": sum.PlainSummary,
			"keyFacts":     sum.KeyFacts,
			"flaggedTerms": sum.FlaggedTerms,
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DocumentHandler) Update(c *gin.Context) {
	u := h.currentUser(c)
	if u == nil {
		return
	}
	var req struct {
		Title        *string `json:"title"`
		DocumentType *string `json:"documentType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title != nil && len(*req.Title) > maxTitleLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title too long"})
		return
	}
	if err := h.docsSvc.UpdateMeta(c.Request.Context(), c.Param("id"), u.ID, req.Title, req.DocumentType); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	u := h.currentUser(c)
	if u == nil {
		return
	}
	if err := h.docsSvc.Delete(c.Request.Context(), c.Param("id"), u.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}
