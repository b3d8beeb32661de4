package users

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"faceattend/internal/csvexport"
	"faceattend/internal/httpapi"
	"faceattend/internal/models"
	"faceattend/internal/paging"
)

// Handler exposes user management over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates the handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the user routes on rg.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.POST("", h.create)
	rg.GET("/stats", h.stats)
	rg.GET("/export", h.export)
	rg.POST("/bulk", h.bulkDelete)
	rg.POST("/bulk-status", h.bulkStatus)
	rg.GET("/:id", h.get)
	rg.PUT("/:id", h.update)
	rg.DELETE("/:id", h.remove)
	rg.POST("/:id/reset-password", h.resetPassword)
}

type userPayload struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	Role           string  `json:"role"`
	RegistrationID *string `json:"registration_id"`
	DepartmentID   *string `json:"department_id"`
	IsActive       *bool   `json:"is_active"`
}

func (p userPayload) toModel(id string) models.User {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return models.User{
		ID:             id,
		Name:           p.Name,
		Email:          p.Email,
		Role:           models.Role(p.Role),
		RegistrationID: p.RegistrationID,
		DepartmentID:   p.DepartmentID,
		IsActive:       active,
	}
}

func parseFilters(c *gin.Context) Filters {
	f := Filters{
		Search:       c.Query("search"),
		Role:         c.Query("role"),
		DepartmentID: c.Query("department"),
	}
	switch c.Query("active") {
	case "true":
		t := true
		f.Active = &t
	case "false":
		fv := false
		f.Active = &fv
	}
	return f
}

func (h *Handler) list(c *gin.Context) {
	page := paging.ParsePage(c.Query("page"))
	list, meta, err := h.svc.List(c.Request.Context(), parseFilters(c), page)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	if list == nil {
		list = []models.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": list, "pagination": meta})
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *Handler) export(c *gin.Context) {
	f := parseFilters(c)
	from, to := csvexport.DateRange(c.Query("start"), c.Query("end"), time.Now())
	f.From, f.To = from, to

	list, err := h.svc.Export(c.Request.Context(), f)
	if err != nil {
		httpapi.Error(c, err)
		return
	}

	rows := make([][]string, 0, len(list))
	for _, u := range list {
		dept := "N/A"
		if u.DepartmentName != nil {
			dept = *u.DepartmentName
		}
		reg := ""
		if u.RegistrationID != nil {
			reg = *u.RegistrationID
		}
		rows = append(rows, []string{
			u.ID, u.Name, u.Email, string(u.Role), reg, dept,
			fmt.Sprintf("%t", u.IsActive), u.CreatedAt.Format(time.RFC3339),
		})
	}

	filename := csvexport.Filename("users", from, to)
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if err := csvexport.Write(c.Writer, []string{"id", "name", "email", "role", "registration_id", "department", "active", "created_at"}, rows); err != nil {
		_ = c.Error(err)
	}
}

func (h *Handler) get(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *Handler) create(c *gin.Context) {
	var p userPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.svc.Create(c.Request.Context(), p.toModel(""), p.Password)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

func (h *Handler) update(c *gin.Context) {
	var p userPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.svc.Update(c.Request.Context(), p.toModel(c.Param("id")))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password required"})
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), c.Param("id"), req.Password); err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

func (h *Handler) bulkDelete(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids required"})
		return
	}
	n, err := h.svc.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (h *Handler) bulkStatus(c *gin.Context) {
	var req struct {
		IDs    []string `json:"ids" binding:"required"`
		Active *bool    `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids and active required"})
		return
	}
	n, err := h.svc.BulkSetActive(c.Request.Context(), req.IDs, *req.Active)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
