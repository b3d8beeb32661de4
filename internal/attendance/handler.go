package attendance

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"faceattend/internal/csvexport"
	"faceattend/internal/httpapi"
	"faceattend/internal/models"
	"faceattend/internal/paging"
)

// Handler exposes attendance administration over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates the handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the attendance routes on rg.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.GET("/admin/stats", h.stats)
	rg.GET("/export", h.export)
	rg.POST("/bulk-verify", h.bulkVerify)
	rg.GET("/:id", h.get)
	rg.DELETE("/:id", h.remove)
	rg.PUT("/:id/verify", h.verify)
	rg.PUT("/:id/reject", h.reject)
}

func parseFilters(c *gin.Context) Filters {
	f := Filters{
		UserID:       c.Query("user"),
		EventID:      c.Query("event"),
		Status:       c.Query("status"),
		Verification: c.Query("verification"),
	}
	if s := c.Query("start"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			f.From = t
		}
	}
	if e := c.Query("end"); e != "" {
		if t, err := time.Parse("2006-01-02", e); err == nil {
			f.To = t
		}
	}
	return f
}

func (h *Handler) list(c *gin.Context) {
	page := paging.ParsePage(c.Query("page"))
	records, meta, err := h.svc.List(c.Request.Context(), parseFilters(c), page)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	if records == nil {
		records = []models.AttendanceRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "pagination": meta})
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context(), parseFilters(c))
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

	records, err := h.svc.Export(c.Request.Context(), f)
	if err != nil {
		httpapi.Error(c, err)
		return
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		user := "Unknown User"
		if rec.UserName != nil {
			user = *rec.UserName
		}
		event := "N/A"
		if rec.EventName != nil {
			event = *rec.EventName
		}
		verified := "Verified"
		if !rec.IsVerified() {
			verified = "Rejected"
		}
		rows = append(rows, []string{
			rec.ID, user, event, rec.Date.Format("2006-01-02"), string(rec.Status),
			legTime(rec.CheckIn), legTime(rec.CheckOut), verified,
		})
	}

	filename := csvexport.Filename("attendance", from, to)
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if err := csvexport.Write(c.Writer, []string{"id", "user", "event", "date", "status", "check_in", "check_out", "verification"}, rows); err != nil {
		_ = c.Error(err)
	}
}

func legTime(l models.CheckLeg) string {
	if l.Time == nil {
		return ""
	}
	return l.Time.Format(time.RFC3339)
}

func (h *Handler) get(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec})
}

type legRequest struct {
	Type string `json:"type" binding:"required"`
}

func (h *Handler) verify(c *gin.Context) {
	var req legRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type (checkIn|checkOut) required"})
		return
	}
	if err := h.svc.Verify(c.Request.Context(), c.Param("id"), Leg(req.Type)); err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true})
}

func (h *Handler) reject(c *gin.Context) {
	var req legRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type (checkIn|checkOut) required"})
		return
	}
	if err := h.svc.Reject(c.Request.Context(), c.Param("id"), Leg(req.Type)); err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rejected": true})
}

func (h *Handler) bulkVerify(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids required"})
		return
	}
	n, err := h.svc.BulkVerify(c.Request.Context(), req.IDs)
	if err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": n})
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		httpapi.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
