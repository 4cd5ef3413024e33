package server

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/KrPrince19/CareNest/internal/auth"
	"github.com/KrPrince19/CareNest/internal/config"
	"github.com/KrPrince19/CareNest/internal/middleware"
	"github.com/KrPrince19/CareNest/internal/model"
	"github.com/KrPrince19/CareNest/internal/push"
	"github.com/KrPrince19/CareNest/internal/repository"
	"github.com/KrPrince19/CareNest/internal/schedule"
	"github.com/KrPrince19/CareNest/internal/validator"
)

type Handler struct {
	repo     repository.Repository
	bus      push.Publisher
	clock    schedule.Clock
	validate *validator.Validator
	logger   *slog.Logger
	auth     config.AuthConfig
}

func NewHandler(repo repository.Repository, bus push.Publisher, clock schedule.Clock, authCfg config.AuthConfig, logger *slog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		bus:      bus,
		clock:    clock,
		validate: validator.New(),
		logger:   logger,
		auth:     authCfg,
	}
}

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password_strength"`
	Role     string `json:"role" validate:"required,oneof=elder family"`
}

func (h *Handler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.Email = normalizeEmail(req.Email)
	if err := h.validate.Validate(req); err != nil {
		return badRequest(c, "Password must be 8+ characters with an uppercase letter, a number and a special character")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return internalError(c, h.logger, "hash password", err)
	}

	user := model.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		Role:         model.Role(req.Role),
		PasswordHash: hash,
		CreatedAt:    h.clock.Now(),
	}
	if err := h.repo.CreateUser(c.Context(), user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "An account with this email and role already exists",
			})
		}
		return internalError(c, h.logger, "create user", err)
	}

	h.logger.Info("account created", "email", user.Email, "role", user.Role)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Account created"})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=elder family"`
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.Email = normalizeEmail(req.Email)
	if err := h.validate.Validate(req); err != nil {
		return badRequest(c, "Email, password and role are required")
	}

	user, err := h.repo.GetUserByEmailAndRole(c.Context(), req.Email, model.Role(req.Role))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Generic message so emails cannot be enumerated.
			return unauthorized(c, "Invalid credentials")
		}
		return internalError(c, h.logger, "lookup user", err)
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return unauthorized(c, "Invalid credentials")
	}

	token, err := auth.NewToken(h.auth.JWTSecret, user, h.auth.TokenTTL, h.clock.Now())
	if err != nil {
		return internalError(c, h.logger, "issue token", err)
	}

	return c.JSON(fiber.Map{"token": token, "user": user})
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"newPassword" validate:"required,password_strength"`
}

// ResetPassword is the direct reset the forgot-password flow uses: no email
// round trip, the new password takes effect immediately.
func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.Email = normalizeEmail(req.Email)
	if err := h.validate.Validate(req); err != nil {
		return badRequest(c, "Password must be 8+ characters with an uppercase letter, a number and a special character")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return internalError(c, h.logger, "hash password", err)
	}
	if err := h.repo.UpdateUserPassword(c.Context(), req.Email, hash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return notFound(c, "No account with this email")
		}
		return internalError(c, h.logger, "update password", err)
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}

func (h *Handler) ListMedicines(c *fiber.Ctx) error {
	email := normalizeEmail(c.Query("email"))
	if email == "" {
		return badRequest(c, "email query parameter is required")
	}

	meds, err := h.repo.ListMedications(c.Context(), email)
	if err != nil {
		return internalError(c, h.logger, "list medications", err)
	}
	schedule.SortByClock(meds)
	if meds == nil {
		meds = []model.Medication{}
	}
	return c.JSON(meds)
}

type createMedicineRequest struct {
	Name      string `json:"name" validate:"required"`
	Time      string `json:"time" validate:"required,clock_12h"`
	Dose      string `json:"dose" validate:"required"`
	Stock     int    `json:"stock" validate:"gte=0"`
	ForWhom   string `json:"forWhom" validate:"required"`
	UserEmail string `json:"userEmail" validate:"required,email"`
}

func (h *Handler) CreateMedicine(c *fiber.Ctx) error {
	var req createMedicineRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.UserEmail = normalizeEmail(req.UserEmail)
	if err := h.validate.Validate(req); err != nil {
		return badRequest(c, `Time must look like "8:30 AM" and all fields are required`)
	}

	med := model.Medication{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Time:      req.Time,
		Dose:      req.Dose,
		Stock:     req.Stock,
		ForWhom:   req.ForWhom,
		UserEmail: req.UserEmail,
		Status:    model.DoseUntaken,
	}
	if err := h.repo.CreateMedication(c.Context(), med); err != nil {
		return internalError(c, h.logger, "create medication", err)
	}

	h.publish(c, push.Event{Type: push.EventRefreshData})
	return c.Status(fiber.StatusCreated).JSON(med)
}

type takeMedicineRequest struct {
	Status string `json:"status"`
}

func (h *Handler) TakeMedicine(c *fiber.Ctx) error {
	var req takeMedicineRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Status != string(model.DoseTaken) {
		return badRequest(c, `Only a "taken" status update is supported`)
	}

	med, err := h.repo.TakeMedication(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, repository.ErrMedicationNotFound) {
			return notFound(c, "Medication not found")
		}
		return internalError(c, h.logger, "take medication", err)
	}

	h.publish(c, push.Event{Type: push.EventRefreshData})
	return c.JSON(med)
}

type sendSOSRequest struct {
	SenderName string `json:"senderName"`
}

// SendSOS fans the emergency out to connected family dashboards. The alert
// record the elder wrote stays authoritative; this path only accelerates
// delivery and stands in for the SMS gateway, which is logged rather than
// called.
func (h *Handler) SendSOS(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return unauthorized(c, "Authentication required")
	}

	var req sendSOSRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	name := req.SenderName
	if name == "" {
		name = "Elder User"
	}

	now := h.clock.Now()
	alert := model.EmergencyAlert{
		ID:         now.UnixMilli(),
		OwnerEmail: claims.Email,
		Active:     true,
		Status:     model.AlertPending,
		Message:    fmt.Sprintf("Emergency Alert from %s!", name),
		Timestamp:  now,
	}

	h.logger.Warn("sos notification", "from", name, "email", claims.Email)
	h.publish(c, push.Event{Type: push.EventNewSOSAlert, Alert: &alert})

	return c.JSON(fiber.Map{"message": "SOS sent"})
}

func (h *Handler) Health(c *fiber.Ctx) error {
	if err := h.repo.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// publish pushes an event best-effort. Clients poll as a fallback, so a
// failed publish is logged and the request still succeeds.
func (h *Handler) publish(c *fiber.Ctx, evt push.Event) {
	if err := h.bus.Publish(c.Context(), evt); err != nil {
		h.logger.Error("publish event", "type", evt.Type, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func internalError(c *fiber.Ctx, logger *slog.Logger, op string, err error) error {
	logger.Error(op, "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
}
