// Package handler wires the services to gin routes.
package handler

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/apper-apps/checkpoint-port-firewall/internal/auth"
	"github.com/apper-apps/checkpoint-port-firewall/internal/checkin"
	"github.com/apper-apps/checkpoint-port-firewall/internal/config"
	"github.com/apper-apps/checkpoint-port-firewall/internal/model"
	"github.com/apper-apps/checkpoint-port-firewall/internal/queue"
	"github.com/apper-apps/checkpoint-port-firewall/internal/report"
	"github.com/apper-apps/checkpoint-port-firewall/internal/store"
)

// Handler carries the handler dependencies.
type Handler struct {
	cfg        config.App
	attendance store.AttendanceStore
	users      store.UserStore
	sessions   store.SessionStore
	devices    store.DeviceStore
	checkins   *checkin.Service
	q          queue.Queue
	redis      *store.Redis // nil on memory-only deployments
	db         *store.DB    // nil on memory-only deployments
}

// New creates a handler set.
func New(cfg config.App, st Stores, checkins *checkin.Service, q queue.Queue, redis *store.Redis, db *store.DB) *Handler {
	return &Handler{
		cfg:        cfg,
		attendance: st.Attendance,
		users:      st.Users,
		sessions:   st.Sessions,
		devices:    st.Devices,
		checkins:   checkins,
		q:          q,
		redis:      redis,
		db:         db,
	}
}

// Stores groups the per-entity stores a handler needs.
type Stores struct {
	Attendance store.AttendanceStore
	Users      store.UserStore
	Sessions   store.SessionStore
	Devices    store.DeviceStore
}

// Register attaches all routes to the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", h.Healthz)

	r.POST("/v1/devices/register", h.RegisterDevice)

	v1 := r.Group("/v1", auth.DeviceAuth(h.cfg.JWTSigningKey, h.cfg.JWTIssuer))
	{
		v1.POST("/checkins", h.CreateCheckIn)
		v1.POST("/checkins/:id/checkout", h.CheckOut)

		v1.GET("/attendance", h.ListAttendance)
		v1.GET("/attendance/:id", h.GetAttendance)
		v1.DELETE("/attendance/:id", h.DeleteAttendance)

		v1.GET("/users", h.ListUsers)
		v1.GET("/users/search", h.SearchUsers)
		v1.GET("/users/:id", h.GetUser)
		v1.POST("/users", h.CreateUser)

		v1.GET("/dashboard/stats", h.DashboardStats)
		v1.GET("/dashboard/trend", h.DashboardTrend)
		v1.GET("/dashboard/activity", h.DashboardActivity)

		v1.GET("/reports", h.Reports)
		v1.GET("/reports/export", h.ExportReports)

		v1.GET("/sessions", h.GetSession)
		v1.GET("/settings", h.GetSettings)
	}
}

// writeError maps store errors onto HTTP statuses: validation 400, missing
// 404, transport 502, anything else 500.
func writeError(c *gin.Context, err error) {
	var verr *store.ValidationError
	var terr *store.TransportError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &terr):
		c.JSON(http.StatusBadGateway, gin.H{"error": terr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// Healthz reports readiness of the backing services.
func (h *Handler) Healthz(c *gin.Context) {
	redisHealthy := h.redis.Healthy(c.Request.Context())
	dbHealthy := h.db.Healthy(c.Request.Context())
	if h.cfg.StoreBackend == "memory" {
		dbHealthy = true
	}
	if h.cfg.QueueBackend == "memory" {
		redisHealthy = true
	}
	status := http.StatusOK
	if !redisHealthy || !dbHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
}

// RegisterDevice enrolls a check-in producer and hands it a token pair.
func (h *Handler) RegisterDevice(c *gin.Context) {
	var req struct {
		DeviceID string `json:"device_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.devices.UpsertDevice(c.Request.Context(), req.DeviceID); err != nil {
		writeError(c, err)
		return
	}

	tokens, err := auth.Issue(req.DeviceID, "device", h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL, h.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	if err := h.devices.SaveRefreshToken(c.Request.Context(), req.DeviceID, tokens.RefreshToken, tokens.RefreshExp); err != nil {
		log.Printf("save refresh token failed: %v", err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

// CreateCheckIn records an arrival event and notifies the summary worker.
func (h *Handler) CreateCheckIn(c *gin.Context) {
	var req struct {
		UserID    string    `json:"user_id" binding:"required"`
		Method    string    `json:"method" binding:"required"`
		DeviceID  string    `json:"device_id"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if claims, ok := auth.FromContext(c); ok && req.DeviceID != "" && claims.Subject != req.DeviceID {
		c.JSON(http.StatusForbidden, gin.H{"error": "device mismatch"})
		return
	}

	rec, err := h.checkins.HandleCheckIn(c.Request.Context(), checkin.Event{
		UserID:    req.UserID,
		Method:    model.Method(req.Method),
		Timestamp: req.Timestamp,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.q.Publish(c.Request.Context(), queue.Message{Type: queue.TypeCheckIn, Body: []byte(rec.ID)}); err != nil {
		log.Printf("queue publish failed: %v", err)
	}

	c.JSON(http.StatusCreated, rec)
}

// CheckOut stamps the check-out time on an open record.
func (h *Handler) CheckOut(c *gin.Context) {
	rec, err := h.checkins.CheckOut(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.q.Publish(c.Request.Context(), queue.Message{Type: queue.TypeCheckIn, Body: []byte(rec.ID)}); err != nil {
		log.Printf("queue publish failed: %v", err)
	}

	c.JSON(http.StatusOK, rec)
}

// ListAttendance lists records, optionally scoped to a date or user.
func (h *Handler) ListAttendance(c *gin.Context) {
	var (
		records []model.AttendanceRecord
		err     error
	)
	switch {
	case c.Query("date") != "":
		records, err = h.attendance.ListByDate(c.Request.Context(), c.Query("date"))
	case c.Query("user_id") != "":
		records, err = h.attendance.ListByUser(c.Request.Context(), c.Query("user_id"))
	default:
		records, err = h.attendance.ListAll(c.Request.Context())
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// GetAttendance returns one record.
func (h *Handler) GetAttendance(c *gin.Context) {
	rec, err := h.attendance.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DeleteAttendance removes a record. Administrative cleanup only; nothing
// in the normal flow calls this.
func (h *Handler) DeleteAttendance(c *gin.Context) {
	deleted, err := h.attendance.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// ListUsers returns all registered users.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.users.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// SearchUsers matches users by name or email substring.
func (h *Handler) SearchUsers(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusOK, gin.H{"users": []model.User{}})
		return
	}
	users, err := h.users.Search(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetUser returns one user.
func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// CreateUser registers a user.
func (h *Handler) CreateUser(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		QRCode   string `json:"qr_code"`
		RFIDTag  string `json:"rfid_tag"`
		PhotoURL string `json:"photo_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.users.Create(c.Request.Context(), model.User{
		Name:     req.Name,
		Email:    req.Email,
		QRCode:   req.QRCode,
		RFIDTag:  req.RFIDTag,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// DashboardStats returns the computed summary for a day (default today).
func (h *Handler) DashboardStats(c *gin.Context) {
	now := time.Now().UTC()
	date := c.DefaultQuery("date", model.Day(now))
	records, err := h.attendance.ListByDate(c.Request.Context(), date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report.ComputeDailyStats(records, h.cfg.TotalRegistered, now))
}

// maxTrendDays bounds the trend window; each day costs one store query.
const maxTrendDays = 90

// DashboardTrend returns per-day present/late counts for the trailing
// window, oldest first.
func (h *Handler) DashboardTrend(c *gin.Context) {
	days := h.cfg.TrendDays
	if v := c.Query("days"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			days = parsed
		}
	}
	if days > maxTrendDays {
		days = maxTrendDays
	}

	now := time.Now().UTC()
	dayRecords := make([]report.DayRecords, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := model.Day(now.AddDate(0, 0, -i))
		records, err := h.attendance.ListByDate(c.Request.Context(), date)
		if err != nil {
			writeError(c, err)
			return
		}
		dayRecords = append(dayRecords, report.DayRecords{Date: date, Records: records})
	}
	c.JSON(http.StatusOK, gin.H{"trend": report.ComputeTrend(dayRecords)})
}

// DashboardActivity returns today's newest check-ins, limited.
func (h *Handler) DashboardActivity(c *gin.Context) {
	limit := h.cfg.ActivityLimit
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := h.attendance.ListByDate(c.Request.Context(), model.Day(time.Now().UTC()))
	if err != nil {
		writeError(c, err)
		return
	}
	if len(records) > limit {
		records = records[:limit]
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// reportQuery parses the shared report filter parameters. The default view
// matches the dashboard table: today's records, newest check-in first.
func (h *Handler) reportQuery(c *gin.Context) (string, report.Query) {
	date := c.DefaultQuery("date", model.Day(time.Now().UTC()))
	q := report.Query{
		Search: c.Query("q"),
		Status: c.DefaultQuery("status", report.StatusAll),
		Field:  report.SortField(c.DefaultQuery("sort", string(report.SortByCheckIn))),
		Order:  report.SortOrder(c.DefaultQuery("order", string(report.Desc))),
	}
	return date, q
}

// Reports returns the filtered, sorted table view for a day.
func (h *Handler) Reports(c *gin.Context) {
	date, q := h.reportQuery(c)
	if !q.Field.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sort field " + string(q.Field)})
		return
	}
	records, err := h.attendance.ListByDate(c.Request.Context(), date)
	if err != nil {
		writeError(c, err)
		return
	}
	filtered := report.FilterAndSort(records, q)
	c.JSON(http.StatusOK, gin.H{
		"records":  filtered,
		"filtered": len(filtered),
		"total":    len(records),
	})
}

// ExportReports streams the current filtered view as a CSV attachment.
func (h *Handler) ExportReports(c *gin.Context) {
	date, q := h.reportQuery(c)
	if !q.Field.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sort field " + string(q.Field)})
		return
	}
	records, err := h.attendance.ListByDate(c.Request.Context(), date)
	if err != nil {
		writeError(c, err)
		return
	}
	filtered := report.FilterAndSort(records, q)

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, filtered); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+report.CSVFilename(time.Now().UTC())+`"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// GetSession returns the daily summary row (default today).
func (h *Handler) GetSession(c *gin.Context) {
	date := c.DefaultQuery("date", model.Day(time.Now().UTC()))
	sess, err := h.sessions.GetByDate(c.Request.Context(), date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// GetSettings exposes the configured system settings.
func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.cfg.Settings())
}
