package events

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"faceattend/internal/httpapi"
	"faceattend/internal/models"
	"faceattend/internal/paging"
)

// Handler exposes event CRUD, QR codes and manual check-in over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates the handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the event routes on rg.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.POST("", h.create)
	rg.GET("/:id", h.get)
	rg.PUT("/:id", h.update)
	rg.DELETE("/:id", h.remove)
	rg.GET("/:id/attendees", h.attendees)
	rg.POST("/:id/qr", h.qr)
	rg.POST("/:id/regenerate-qr", h.regenerateQR)
	rg.POST("/:id/manual-checkin", h.manualCheckIn)
}

type eventPayload struct {
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	StartAt             time.Time `json:"start_at"`
	EndAt               time.Time `json:"end_at"`
	Location            string    `json:"location"`
	DepartmentID        *string   `json:"department_id"`
	AttendeeType        string    `json:"attendee_type"`
	EligibleDepartments []string  `json:"eligible_departments"`
	EligibleUsers       []string  `json:"eligible_users"`
	IsActive            *bool     `json:"is_active"`
}

func (p eventPayload) toModel(id string) models.Event {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	attendeeType := models.AttendeeType(p.AttendeeType)
	if p.AttendeeType == "" {
		attendeeType = models.AttendeesAll
	}
	return models.Event{
		ID:                  id,
		Name:                p.Name,
		Description:         p.Description,
		StartAt:             p.StartAt,
		EndAt:               p.EndAt,
		Location:            p.Location,
		DepartmentID:        p.DepartmentID,
		AttendeeType:        attendeeType,
		EligibleDepartments: p.EligibleDepartments,
		EligibleUsers:       p.EligibleUsers,
		IsActive:            active,
	}
}

func parseFilters(c *gin.Context) Filters {
	f := Filters{
		Search:       c.Query("search"),
		DepartmentID: c.Query("department_id"),
		Phase:        c.Query("status"),
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

// eventView decorates an event with its derived status for responses.
type eventView struct {
	models.Event
	Status models.EventStatus `json:"status"`
}

func view(e models.Event) eventView {
	return eventView{Event: e, Status: e.StatusAt(time.Now())}
}

func (h *Handler) list(c *gin.Context) {
	page := paging.ParsePage(c.Query("page"))
	evts, meta, err := h.svc.List(c.Request.Context(), parseFilters(c), page)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	views := make([]eventView, 0, len(evts))
	for _, e := range evts {
		views = append(views, view(e))
	}
	c.JSON(http.StatusOK, gin.H{"events": views, "pagination": meta})
}

func (h *Handler) get(c *gin.Context) {
	e, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": view(e)})
}

func (h *Handler) create(c *gin.Context) {
	var p eventPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, err := h.svc.Create(c.Request.Context(), p.toModel(""))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event": view(e)})
}

func (h *Handler) update(c *gin.Context) {
	var p eventPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, err := h.svc.Update(c.Request.Context(), p.toModel(c.Param("id")))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": view(e)})
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) attendees(c *gin.Context) {
	list, err := h.svc.Attendees(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	if list == nil {
		list = []models.EventAttendee{}
	}
	c.JSON(http.StatusOK, gin.H{"attendees": list, "count": len(list)})
}

func (h *Handler) qr(c *gin.Context) {
	payload, err := h.svc.GenerateQR(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"qr_payload": payload})
}

func (h *Handler) regenerateQR(c *gin.Context) {
	payload, err := h.svc.RegenerateQR(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"qr_payload": payload})
}

type checkInPayload struct {
	UserID    string `json:"user_id" binding:"required"`
	Location  string `json:"location"`
	ImageData string `json:"image_data"`
}

func (h *Handler) manualCheckIn(c *gin.Context) {
	var p checkInPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := h.svc.ManualCheckIn(c.Request.Context(), c.Param("id"), p.UserID, p.Location, p.ImageData)
	switch {
	case errors.Is(err, ErrNotEligible), errors.Is(err, ErrEventClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"record": rec})
}
