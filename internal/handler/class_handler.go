package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/service"
	"github.com/noah-isme/classpilot-go/internal/utils"
)

// ClassHandler exposes class and roster endpoints.
type ClassHandler struct {
	service service.ClassService
	logger  zerolog.Logger
}

// NewClassHandler constructs the class handler.
func NewClassHandler(service service.ClassService, logger zerolog.Logger) *ClassHandler {
	return &ClassHandler{
		service: service,
		logger:  logger.With().Str("component", "class_handler").Logger(),
	}
}

// Register attaches class routes to the router group.
func (h *ClassHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Get("/:id/students", h.roster)
	router.Post("/:id/students", h.enroll)
	router.Delete("/:id/students/:studentId", h.unenroll)
}

var classErrors = []errorStatus{
	{err: service.ErrClassNotFound, status: fiber.StatusNotFound},
	{err: service.ErrNotEnrolled, status: fiber.StatusNotFound},
	{err: service.ErrEmptyBatch, status: fiber.StatusBadRequest},
	{err: service.ErrUnknownStudent, status: fiber.StatusBadRequest},
	{err: service.ErrAlreadyEnrolled, status: fiber.StatusConflict},
	{err: service.ErrCapacityExceeded, status: fiber.StatusConflict},
}

// classPayload accepts the grade level under either wire name.
type classPayload struct {
	dto.ClassRequest
	GradeLevelAlt *int `json:"gradeLevel,omitempty"`
}

func (p classPayload) request() dto.ClassRequest {
	req := p.ClassRequest
	if req.GradeLevel == nil {
		req.GradeLevel = p.GradeLevelAlt
	}
	return req
}

func (h *ClassHandler) list(c *fiber.Ctx) error {
	classes, err := h.service.List(c.UserContext(), teacherIDFromContext(c))
	if err != nil {
		return sendServiceError(c, h.logger, err, classErrors, "list classes")
	}
	return utils.SendJSON(c, fiber.StatusOK, classes)
}

func (h *ClassHandler) get(c *fiber.Ctx) error {
	class, err := h.service.Get(c.UserContext(), teacherIDFromContext(c), param(c, "id"))
	if err != nil {
		return sendServiceError(c, h.logger, err, classErrors, "fetch class")
	}
	return utils.SendJSON(c, fiber.StatusOK, class)
}

func (h *ClassHandler) create(c *fiber.Ctx) error {
	var payload classPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	class, err := h.service.Create(c.UserContext(), teacherIDFromContext(c), payload.request())
	if err != nil {
		return sendServiceError(c, h.logger, err, classErrors, "create class")
	}
	return utils.SendJSON(c, fiber.StatusCreated, class)
}

func (h *ClassHandler) update(c *fiber.Ctx) error {
	var payload classPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	class, err := h.service.Update(c.UserContext(), teacherIDFromContext(c), param(c, "id"), payload.request())
	if err != nil {
		return sendServiceError(c, h.logger, err, classErrors, "update class")
	}
	return utils.SendJSON(c, fiber.StatusOK, class)
}

func (h *ClassHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), teacherIDFromContext(c), param(c, "id")); err != nil {
		return sendServiceError(c, h.logger, err, classErrors, "delete class")
	}
	return utils.SendMessage(c, fiber.StatusOK, "Class deleted successfully")
}

func (h *ClassHandler) roster(c *fiber.Ctx) error {
	roster, err := h.service.Roster(c.UserContext(), teacherIDFromContext(c), param(c, "id"))
	if err != nil {
		return sendServiceError(c, h.logger, err, classErrors, "list class students")
	}
	return utils.SendJSON(c, fiber.StatusOK, roster)
}

func (h *ClassHandler) enroll(c *fiber.Ctx) error {
	var payload dto.EnrollRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	class, err := h.service.Enroll(c.UserContext(), teacherIDFromContext(c), param(c, "id"), payload.StudentIDs)
	if err != nil {
		return sendServiceError(c, h.logger, err, classErrors, "enroll students")
	}

	return utils.SendJSON(c, fiber.StatusOK, dto.EnrollResponse{
		Message: "Students enrolled successfully",
		Class:   &class,
	})
}

func (h *ClassHandler) unenroll(c *fiber.Ctx) error {
	err := h.service.Unenroll(c.UserContext(), teacherIDFromContext(c), param(c, "id"), param(c, "studentId"))
	if err != nil {
		return sendServiceError(c, h.logger, err, classErrors, "remove student from class")
	}
	return utils.SendMessage(c, fiber.StatusOK, "Student removed from class")
}
