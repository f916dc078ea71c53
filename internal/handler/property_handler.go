package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/property-booking/internal/model"
)

// PropertyServiceInterface defines the interface for the property and room catalog.
type PropertyServiceInterface interface {
	Create(ctx context.Context, owner uuid.UUID, req *model.PropertyRequest) (*model.Property, error)
	Update(ctx context.Context, id int64, req *model.PropertyRequest) (*model.Property, error)
	Get(ctx context.Context, id int64) (*model.Property, error)
	List(ctx context.Context, filter model.PropertyFilter) ([]model.Property, error)
	Delete(ctx context.Context, id int64) error
	CreateRoom(ctx context.Context, req *model.CreateRoomRequest) (*model.Room, error)
	GetRoom(ctx context.Context, id uuid.UUID) (*model.Room, error)
	ListRooms(ctx context.Context, roomType string) ([]model.Room, error)
}

// PropertyHandler handles HTTP requests for the catalog.
type PropertyHandler struct {
	service   PropertyServiceInterface
	validator *validator.Validate
}

// NewPropertyHandler creates a new PropertyHandler with the given service and validator.
func NewPropertyHandler(svc PropertyServiceInterface, v *validator.Validate) *PropertyHandler {
	return &PropertyHandler{service: svc, validator: v}
}

// CreateProperty handles POST /api/admin/properties. The caller becomes the owner.
func (h *PropertyHandler) CreateProperty(c *fiber.Ctx) error {
	var req model.PropertyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, nil)
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err)
	}

	p, err := h.service.Create(c.UserContext(), UserID(c), &req)
	if err != nil {
		return respondError(c, err, "failed to create property")
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Int64("property_id", p.ID).
		Str("calculated_deposit", p.CalculatedDeposit.StringFixed(2)).
		Msg("property created")
	return c.Status(fiber.StatusCreated).JSON(p)
}

// UpdateProperty handles PUT /api/admin/properties/:id.
func (h *PropertyHandler) UpdateProperty(c *fiber.Ctx) error {
	id, ok := int64Param(c, "id")
	if !ok {
		return invalidParam(c, "id")
	}
	var req model.PropertyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, nil)
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err)
	}

	p, err := h.service.Update(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err, "failed to update property")
	}
	return c.JSON(p)
}

// DeleteProperty handles DELETE /api/admin/properties/:id.
func (h *PropertyHandler) DeleteProperty(c *fiber.Ctx) error {
	id, ok := int64Param(c, "id")
	if !ok {
		return invalidParam(c, "id")
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err, "failed to delete property")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetProperty handles GET /api/properties/:id.
func (h *PropertyHandler) GetProperty(c *fiber.Ctx) error {
	id, ok := int64Param(c, "id")
	if !ok {
		return invalidParam(c, "id")
	}
	p, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "failed to get property")
	}
	return c.JSON(p)
}

// ListProperties handles GET /api/properties?type_id=&location=&page=&limit=.
func (h *PropertyHandler) ListProperties(c *fiber.Ctx) error {
	filter := model.PropertyFilter{
		Location: c.Query("location"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 20),
	}
	if c.Query("type_id") != "" {
		typeID := int64(c.QueryInt("type_id"))
		if typeID < 1 {
			return invalidParam(c, "type_id")
		}
		filter.TypeID = &typeID
	}

	properties, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err, "failed to list properties")
	}
	return c.JSON(fiber.Map{"properties": properties, "page": filter.Page, "limit": filter.Limit})
}

// CreateRoom handles POST /api/admin/rooms.
func (h *PropertyHandler) CreateRoom(c *fiber.Ctx) error {
	var req model.CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, nil)
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err)
	}

	rm, err := h.service.CreateRoom(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err, "failed to create room")
	}
	return c.Status(fiber.StatusCreated).JSON(rm)
}

// GetRoom handles GET /api/rooms/:id.
func (h *PropertyHandler) GetRoom(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return invalidParam(c, "id")
	}
	rm, err := h.service.GetRoom(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "failed to get room")
	}
	return c.JSON(rm)
}

// ListRooms handles GET /api/rooms?type=.
func (h *PropertyHandler) ListRooms(c *fiber.Ctx) error {
	rooms, err := h.service.ListRooms(c.UserContext(), c.Query("type"))
	if err != nil {
		return respondError(c, err, "failed to list rooms")
	}
	return c.JSON(fiber.Map{"rooms": rooms})
}
