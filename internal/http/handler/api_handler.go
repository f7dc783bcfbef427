package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shredlink/shredlink/internal/app/repository"
	"github.com/shredlink/shredlink/internal/app/service"
	infraPrometheus "github.com/shredlink/shredlink/internal/infra/prometheus"
	"go.uber.org/zap"
)

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger      *zap.Logger
	LinkService service.LinkService
}

// APIHandler implements the JSON API: link creation and password unlock.
type APIHandler struct {
	logger      *zap.Logger
	linkService service.LinkService
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:      logger,
		linkService: deps.LinkService,
	}
}

// Register wires API routes onto the provided router. createLimit guards the
// creation endpoint only; unlock attempts are bounded by the lifecycle state,
// not by admission control.
func (h *APIHandler) Register(router fiber.Router, createLimit fiber.Handler) {
	api := router.Group("/api")
	if createLimit != nil {
		api.Post("/create", createLimit, h.CreateLink)
	} else {
		api.Post("/create", h.CreateLink)
	}
	api.Post("/unlock/:token", h.UnlockLink)
}

// CreateLinkRequest represents the request body for creating a share link.
type CreateLinkRequest struct {
	Text            string `json:"text"`
	Password        string `json:"password,omitempty"`
	ExpireMinutes   int    `json:"expire_minutes,omitempty"`
	ExpireHours     int    `json:"expire_hours,omitempty"`
	OneTimeView     bool   `json:"one_time_view,omitempty"`
	OneTimePassword bool   `json:"one_time_password,omitempty"`
}

// CreateLinkResponse represents the response for a created share link.
type CreateLinkResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// UnlockRequest represents the request body for unlocking a protected link.
type UnlockRequest struct {
	Password string `json:"password"`
}

// UnlockResponse carries the disclosed plaintext.
type UnlockResponse struct {
	Text string `json:"text"`
}

// CreateLink handles POST /api/create
func (h *APIHandler) CreateLink(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := h.linkService.CreateLink(c.UserContext(), service.CreateLinkInput{
		Text:            req.Text,
		Password:        req.Password,
		ExpireMinutes:   req.ExpireMinutes,
		ExpireHours:     req.ExpireHours,
		OneTimeView:     req.OneTimeView,
		OneTimePassword: req.OneTimePassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTextRequired):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "text is required",
			})
		case errors.Is(err, service.ErrTextTooLarge):
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"error": "text exceeds the maximum size",
			})
		default:
			h.logger.Error("failed to create link", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "server error",
			})
		}
	}

	infraPrometheus.LinksCreated.Inc()
	return c.JSON(CreateLinkResponse{
		Token: result.Token,
		URL:   result.URL,
	})
}

// UnlockLink handles POST /api/unlock/:token
func (h *APIHandler) UnlockLink(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "token is required",
		})
	}

	var req UnlockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	text, err := h.linkService.UnlockLink(c.UserContext(), token, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrLinkNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Link not found",
			})
		case errors.Is(err, service.ErrLinkGone):
			return c.Status(fiber.StatusGone).JSON(fiber.Map{
				"error": "This link has expired or has already been used.",
			})
		case errors.Is(err, service.ErrNotPasswordProtected):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "This link is not password-protected.",
			})
		case errors.Is(err, service.ErrWrongPassword):
			infraPrometheus.UnlockFailures.Inc()
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Wrong password",
			})
		default:
			// Crypto and storage failures stay server-side; the client only
			// sees a generic error.
			h.logger.Error("failed to unlock link", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Server error",
			})
		}
	}

	infraPrometheus.LinksDisclosed.Inc()
	return c.JSON(UnlockResponse{Text: text})
}
