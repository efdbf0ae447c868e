package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/service"
	"github.com/noah-isme/classpilot-go/internal/utils"
)

// StudentHandler exposes the teacher's student endpoints.
type StudentHandler struct {
	service service.StudentService
	logger  zerolog.Logger
}

// NewStudentHandler constructs the student handler.
func NewStudentHandler(service service.StudentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service: service,
		logger:  logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches student routes to the router group.
func (h *StudentHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

var studentErrors = []errorStatus{
	{err: service.ErrStudentNotFound, status: fiber.StatusNotFound},
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	students, err := h.service.List(c.UserContext(), teacherIDFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, studentErrors, "list students")
	}
	return utils.SendJSON(c, fiber.StatusOK, students)
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	student, err := h.service.Get(c.UserContext(), teacherIDFromContext(c), param(c, "id"))
	if err != nil {
		return sendServiceError(c, h.logger, err, studentErrors, "fetch student")
	}
	return utils.SendJSON(c, fiber.StatusOK, student)
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var payload dto.StudentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	student, err := h.service.Create(c.UserContext(), teacherIDFromContext(c), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, studentErrors, "create student")
	}
	return utils.SendJSON(c, fiber.StatusCreated, student)
}

func (h *StudentHandler) update(c *fiber.Ctx) error {
	var payload dto.StudentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	student, err := h.service.Update(c.UserContext(), teacherIDFromContext(c), param(c, "id"), payload)
	if err != nil {
		return sendServiceError(c, h.logger, err, studentErrors, "update student")
	}
	return utils.SendJSON(c, fiber.StatusOK, student)
}

func (h *StudentHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), teacherIDFromContext(c), param(c, "id")); err != nil {
		return sendServiceError(c, h.logger, err, studentErrors, "delete student")
	}
	return utils.SendMessage(c, fiber.StatusOK, "Student deleted successfully")
}
