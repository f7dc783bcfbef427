package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shredlink/shredlink/internal/app/repository"
	"github.com/shredlink/shredlink/internal/app/service"
	infraPrometheus "github.com/shredlink/shredlink/internal/infra/prometheus"
	"github.com/shredlink/shredlink/internal/http/view"
	"go.uber.org/zap"
)

// ShareDeps groups dependencies required by the share page handler.
type ShareDeps struct {
	Logger      *zap.Logger
	LinkService service.LinkService

	// Postgres is optional; when present the health endpoint pings it.
	Postgres *pgxpool.Pool
}

// ShareHandler serves the recipient-facing share flow.
type ShareHandler struct {
	logger      *zap.Logger
	linkService service.LinkService
	postgres    *pgxpool.Pool
}

// NewShareHandler creates a share handler with the provided dependencies.
func NewShareHandler(deps ShareDeps) *ShareHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShareHandler{
		logger:      logger,
		linkService: deps.LinkService,
		postgres:    deps.Postgres,
	}
}

// Register wires share routes onto the provided router.
func (h *ShareHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
	router.Get("/s/:token", h.View)
}

// Health is a simple endpoint so we know the service is running.
func (h *ShareHandler) Health(c *fiber.Ctx) error {
	status := "ok"
	if h.postgres != nil {
		pingCtx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := h.postgres.Ping(pingCtx); err != nil {
			h.logger.Error("health: database ping failed", zap.Error(err))
			status = "degraded"
		}
	}

	return c.JSON(fiber.Map{
		"service": "shredlink",
		"status":  status,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// View handles GET /s/:token and decides between direct disclosure, the
// unlock redirect, and an error page.
func (h *ShareHandler) View(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return h.renderError(c, fiber.StatusNotFound,
			"Not found", "This link does not exist or has been removed.")
	}

	result, err := h.linkService.RetrieveLink(c.UserContext(), token)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrLinkNotFound):
			return h.renderError(c, fiber.StatusNotFound,
				"Not found", "This link does not exist or has been removed.")
		case errors.Is(err, service.ErrLinkGone):
			return h.renderError(c, fiber.StatusGone,
				"Expired", "This link has expired or has already been used.")
		default:
			h.logger.Error("failed to retrieve link", zap.Error(err))
			return h.renderError(c, fiber.StatusInternalServerError,
				"Error", "Something went wrong.")
		}
	}

	if result.RequiresUnlock {
		return c.Redirect("/unlock.html?token="+token, fiber.StatusFound)
	}

	html, err := view.RenderContentPage(view.ContentPageData{Text: result.Text})
	if err != nil {
		h.logger.Error("failed to render content page", zap.Error(err))
		return h.renderError(c, fiber.StatusInternalServerError,
			"Error", "Something went wrong.")
	}

	infraPrometheus.LinksDisclosed.Inc()
	return c.Type("html", "utf-8").SendString(html)
}

func (h *ShareHandler) renderError(c *fiber.Ctx, status int, title, message string) error {
	html, err := view.RenderErrorPage(view.ErrorPageData{
		Title:   title,
		Message: message,
	})
	if err != nil {
		h.logger.Error("failed to render error page", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.Status(status).Type("html", "utf-8").SendString(html)
}
