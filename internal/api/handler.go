package api

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shelterwatch/shelterwatch/internal/alerting"
	"github.com/shelterwatch/shelterwatch/internal/models"
	"github.com/shelterwatch/shelterwatch/internal/repository"
	"github.com/shelterwatch/shelterwatch/internal/verification"
)

var (
	phoneRe = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// AlertRunner is the orchestrator surface the API exposes.
type AlertRunner interface {
	CheckAndAlertAll(ctx context.Context) (models.BatchResult, error)
	CheckAndAlertByID(ctx context.Context, id string) (*models.DispatchOutcome, error)
	CheckLocation(ctx context.Context, lat, lng float64) (alerting.LocationReport, error)
}

// Verifier issues and checks contact verification codes.
type Verifier interface {
	SendPhoneCode(ctx context.Context, recipientID string) error
	SendEmailCode(ctx context.Context, recipientID string) error
	VerifyPhone(ctx context.Context, recipientID, code string) (bool, error)
	VerifyEmail(ctx context.Context, recipientID, code string) (bool, error)
}

type Handler struct {
	repo          repository.RecipientRepository
	runner        AlertRunner
	verifier      Verifier
	webhookSecret string
}

func NewHandler(repo repository.RecipientRepository, runner AlertRunner, verifier Verifier, webhookSecret string) *Handler {
	return &Handler{
		repo:          repo,
		runner:        runner,
		verifier:      verifier,
		webhookSecret: webhookSecret,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/api/users", h.createUser)
	r.GET("/api/users/:id", h.getUser)
	r.PUT("/api/users/:id", h.updateUser)
	r.DELETE("/api/users/:id", h.deleteUser)
	r.PATCH("/api/users/:id/alerts", h.toggleAlerts)

	r.POST("/api/users/:id/verify/phone/send", h.sendPhoneCode)
	r.POST("/api/users/:id/verify/email/send", h.sendEmailCode)
	r.POST("/api/users/:id/verify/phone", h.verifyPhone)
	r.POST("/api/users/:id/verify/email", h.verifyEmail)

	r.GET("/api/hazards", h.getHazards)
	r.POST("/api/disaster-check", h.disasterCheck)
	r.POST("/api/disaster-check/:id", h.disasterCheckOne)

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

type createUserRequest struct {
	Phone         string   `json:"phone"`
	Email         string   `json:"email"`
	WebhookURL    string   `json:"webhook_url"`
	AlertsEnabled *bool    `json:"alert_enabled"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number is required"})
		return
	}

	phone := normalizePhone(req.Phone)
	if !phoneRe.MatchString(phone) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid phone format. Use E.164 format (e.g., +1234567890)",
		})
		return
	}
	if req.Email != "" && !emailRe.MatchString(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}

	enabled := true
	if req.AlertsEnabled != nil {
		enabled = *req.AlertsEnabled
	}

	r := &models.Recipient{
		Phone:         phone,
		Email:         req.Email,
		WebhookURL:    req.WebhookURL,
		AlertsEnabled: enabled,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		// Channels start unverified; codes are issued separately.
	}

	if err := h.repo.Create(c.Request.Context(), r); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Contact already registered",
				"message": "This phone number or email is already receiving disaster alerts.",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"data":    recipientJSON(r),
	})
}

func (h *Handler) getUser(c *gin.Context) {
	r, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": recipientJSON(r)})
}

type updateUserRequest struct {
	Phone         *string  `json:"phone"`
	Email         *string  `json:"email"`
	WebhookURL    *string  `json:"webhook_url"`
	AlertsEnabled *bool    `json:"alert_enabled"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

func (h *Handler) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	r, err := h.repo.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user"})
		return
	}

	if req.Phone != nil {
		phone := normalizePhone(*req.Phone)
		if !phoneRe.MatchString(phone) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid phone format. Use E.164 format (e.g., +1234567890)",
			})
			return
		}
		if phone != r.Phone {
			// A new number needs a new verification.
			r.Phone = phone
			r.PhoneVerified = false
		}
	}
	if req.Email != nil {
		if *req.Email != "" && !emailRe.MatchString(*req.Email) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
			return
		}
		if *req.Email != r.Email {
			r.Email = *req.Email
			r.EmailVerified = false
		}
	}
	if req.WebhookURL != nil {
		r.WebhookURL = *req.WebhookURL
	}
	if req.AlertsEnabled != nil {
		r.AlertsEnabled = *req.AlertsEnabled
	}
	if req.Latitude != nil {
		r.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		r.Longitude = req.Longitude
	}

	if err := h.repo.Update(ctx, r); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Contact already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": recipientJSON(r)})
}

func (h *Handler) deleteUser(c *gin.Context) {
	err := h.repo.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted"})
}

func (h *Handler) toggleAlerts(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled flag is required"})
		return
	}

	err := h.repo.SetAlertsEnabled(c.Request.Context(), c.Param("id"), *req.Enabled)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "alert_enabled": *req.Enabled})
}

func (h *Handler) sendPhoneCode(c *gin.Context) {
	h.sendCode(c, h.verifier.SendPhoneCode, verification.ErrNoPhone, "No phone number on file")
}

func (h *Handler) sendEmailCode(c *gin.Context) {
	h.sendCode(c, h.verifier.SendEmailCode, verification.ErrNoEmail, "No email on file")
}

func (h *Handler) sendCode(c *gin.Context, send func(context.Context, string) error, missing error, missingMsg string) {
	err := send(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, missing):
		c.JSON(http.StatusBadRequest, gin.H{"error": missingMsg})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification code"})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Verification code sent"})
	}
}

func (h *Handler) verifyPhone(c *gin.Context) {
	h.verifyCode(c, h.verifier.VerifyPhone, "Phone number verified successfully")
}

func (h *Handler) verifyEmail(c *gin.Context) {
	h.verifyCode(c, h.verifier.VerifyEmail, "Email verified successfully")
}

func (h *Handler) verifyCode(c *gin.Context, verify func(context.Context, string, string) (bool, error), okMsg string) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Verification code is required"})
		return
	}

	ok, err := verify(c.Request.Context(), c.Param("id"), req.Code)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify code"})
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired verification code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": okMsg})
}

// getHazards is the diagnostics query: classify hazards near a
// coordinate without notifying anyone.
func (h *Handler) getHazards(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query parameters are required"})
		return
	}

	report, err := h.runner.CheckLocation(c.Request.Context(), lat, lng)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch hazard data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events":       eventsJSON(report.Events),
		"alert_worthy": eventsJSON(report.AlertWorthy),
	})
}

// disasterCheck runs a batch pass across all eligible recipients.
// Invoked by a scheduler or an authenticated webhook.
func (h *Handler) disasterCheck(c *gin.Context) {
	if h.webhookSecret == "" || c.GetHeader("X-Webhook-Secret") != h.webhookSecret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.runner.CheckAndAlertAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Check failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Disaster check completed",
		"result":  result,
	})
}

func (h *Handler) disasterCheckOne(c *gin.Context) {
	if h.webhookSecret == "" || c.GetHeader("X-Webhook-Secret") != h.webhookSecret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	outcome, err := h.runner.CheckAndAlertByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Check failed"})
		return
	}
	if outcome == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "skipped": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"skipped": false,
		"outcome": outcomeJSON(*outcome),
	})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func normalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, phone)
}

func recipientJSON(r *models.Recipient) gin.H {
	return gin.H{
		"id":             r.ID,
		"phone":          r.Phone,
		"email":          r.Email,
		"webhook_url":    r.WebhookURL,
		"alert_enabled":  r.AlertsEnabled,
		"latitude":       r.Latitude,
		"longitude":      r.Longitude,
		"phone_verified": r.PhoneVerified,
		"email_verified": r.EmailVerified,
		"created_at":     r.CreatedAt,
	}
}

func eventsJSON(events []models.HazardEvent) []gin.H {
	out := make([]gin.H, 0, len(events))
	for _, e := range events {
		out = append(out, gin.H{
			"event_id":    e.EventID,
			"category":    e.Category,
			"severity":    e.SeverityRaw,
			"title":       e.Title,
			"description": e.Description,
			"lat":         e.Latitude,
			"lng":         e.Longitude,
		})
	}
	return out
}

func outcomeJSON(o models.DispatchOutcome) gin.H {
	return gin.H{
		"recipient_id": o.RecipientID,
		"sms":          channelJSON(o.SMS),
		"email":        channelJSON(o.Email),
	}
}

func channelJSON(r models.ChannelResult) gin.H {
	out := gin.H{"status": string(r.Status)}
	if r.Reason != "" {
		out["reason"] = r.Reason
	}
	return out
}
