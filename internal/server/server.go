package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"supportagent/internal/bootstrap"
	"supportagent/internal/domain"
	"supportagent/internal/logger"
)

const moduleServer = "server"

// Server exposes the support service over HTTP.
type Server struct {
	app       *fiber.App
	container *bootstrap.Container
	chats     *chatRegistry
	validate  *validator.Validate
	log       logger.ILogger
}

func New(container *bootstrap.Container) *Server {
	s := &Server{
		container: container,
		chats:     newChatRegistry(time.Duration(container.Config.Session.TimeoutMinutes) * time.Minute),
		validate:  validator.New(),
		log:       container.Log,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "supportagent",
		BodyLimit:             1 * 1024 * 1024,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(cors.New())
	s.app.Use(s.observe)

	s.registerRoutes()
	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", s.health)
	s.app.Get("/metrics", adaptor.HTTPHandler(s.container.Metrics.Handler()))

	api := s.app.Group("/api")

	kb := api.Group("/kb")
	kb.Post("/initialize", s.initializeKB)
	kb.Get("/info", s.kbInfo)
	kb.Post("/search", s.searchKB)

	chat := api.Group("/chat")
	chat.Post("/create", s.createChat)
	chat.Post("/:id/message", s.sendMessage)
	chat.Get("/:id/history", s.chatHistory)
	chat.Post("/:id/clear", s.clearChat)
	chat.Get("/:id/clear", s.clearChat)
	api.Get("/chats", s.listChats)

	tickets := api.Group("/tickets")
	tickets.Get("", s.listTickets)
	tickets.Post("", s.createTicket)
	tickets.Get("/:id", s.getTicket)
	tickets.Patch("/:id/status", s.updateTicketStatus)
	tickets.Post("/:id/notes", s.addTicketNote)
}

// Run blocks serving on host:port until ctx is cancelled.
func (s *Server) Run(ctx context.Context, host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()

	s.log.Info(moduleServer, "listening", map[string]interface{}{"addr": addr})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info(moduleServer, "shutting down", nil)
		return s.app.Shutdown()
	}
}

// handleError renders every error as {"detail": ...}.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	detail := "internal server error"

	var fe *fiber.Error
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &fe):
		code, detail = fe.Code, fe.Message
	case errors.As(err, &ve):
		code, detail = fiber.StatusUnprocessableEntity, validationMessage(ve)
	case errors.Is(err, domain.ErrNotFound):
		code, detail = fiber.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		code, detail = fiber.StatusBadRequest, err.Error()
	}

	if code >= fiber.StatusInternalServerError {
		s.log.Error(moduleServer, "request failed", map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
			"error":  err,
		})
	}
	return c.Status(code).JSON(errorResponse{Detail: detail})
}

func validationMessage(errs validator.ValidationErrors) string {
	fe := errs[0]
	if fe.Param() != "" {
		return fmt.Sprintf("field %s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("field %s failed %s", fe.Field(), fe.Tag())
}

// bind parses an optional JSON body into v and validates it.
func (s *Server) bind(c *fiber.Ctx, v interface{}) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(v); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
		}
	}
	return s.validate.Struct(v)
}
