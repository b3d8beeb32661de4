package departments

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"faceattend/internal/httpapi"
	"faceattend/internal/models"
	"faceattend/internal/paging"
)

// Handler exposes department CRUD over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates the handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the department routes on rg.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.POST("", h.create)
	rg.GET("/:id", h.get)
	rg.PUT("/:id", h.update)
	rg.DELETE("/:id", h.remove)
}

type departmentPayload struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Manager     string `json:"manager"`
	IsActive    *bool  `json:"is_active"`
}

func (p departmentPayload) toModel(id string) models.Department {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return models.Department{
		ID:          id,
		Name:        p.Name,
		Code:        p.Code,
		Description: p.Description,
		Location:    p.Location,
		Manager:     p.Manager,
		IsActive:    active,
	}
}

func parseFilters(c *gin.Context) Filters {
	f := Filters{Search: c.Query("search")}
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
	depts, meta, err := h.svc.List(c.Request.Context(), parseFilters(c), page)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	if depts == nil {
		depts = []models.Department{}
	}
	c.JSON(http.StatusOK, gin.H{"departments": depts, "pagination": meta})
}

func (h *Handler) get(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"department": d})
}

func (h *Handler) create(c *gin.Context) {
	var p departmentPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.svc.Create(c.Request.Context(), p.toModel(""))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"department": d})
}

func (h *Handler) update(c *gin.Context) {
	var p departmentPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.svc.Update(c.Request.Context(), p.toModel(c.Param("id")))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"department": d})
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
