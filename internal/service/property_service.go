package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fairyhunter13/property-booking/internal/model"
	"github.com/fairyhunter13/property-booking/internal/pricing"
)

// PropertyService manages the property and room catalog.
type PropertyService struct {
	properties PropertyRepositoryInterface
	rooms      RoomRepositoryInterface
}

// NewPropertyService creates a new PropertyService.
func NewPropertyService(properties PropertyRepositoryInterface, rooms RoomRepositoryInterface) *PropertyService {
	return &PropertyService{properties: properties, rooms: rooms}
}

// applyRequest copies req onto p and recomputes the cached deposit. Every
// save goes through here, so a policy change also changes calculated_deposit.
func applyRequest(p *model.Property, req *model.PropertyRequest) {
	p.Name = req.Name
	p.TypeID = req.TypeID
	p.Location = req.Location
	p.Description = req.Description
	p.FullPrice = req.FullPrice
	p.DepositType = req.DepositType
	p.DepositValue = req.DepositValue
	p.Capacity = req.Capacity
	if req.IsAvailable != nil {
		p.IsAvailable = *req.IsAvailable
	}
	if req.CheckInTime != "" {
		p.CheckInTime = req.CheckInTime
	}
	if req.CheckOutTime != "" {
		p.CheckOutTime = req.CheckOutTime
	}
	p.CalculatedDeposit = pricing.Deposit(p.FullPrice, p.DepositType, p.DepositValue)
}

// Create stores a new property owned by owner.
func (s *PropertyService) Create(ctx context.Context, owner uuid.UUID, req *model.PropertyRequest) (*model.Property, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	p := &model.Property{
		IsAvailable:  true,
		IsActive:     true,
		CreatedBy:    owner,
		CheckInTime:  model.DefaultCheckInTime,
		CheckOutTime: model.DefaultCheckOutTime,
	}
	applyRequest(p, req)
	if err := s.properties.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the editable fields of an active property.
func (s *PropertyService) Update(ctx context.Context, id int64, req *model.PropertyRequest) (*model.Property, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyRequest(p, req)
	if err := s.properties.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns an active property or ErrPropertyNotFound.
func (s *PropertyService) Get(ctx context.Context, id int64) (*model.Property, error) {
	p, err := s.properties.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("get property: %w", err)
	}
	if p == nil || !p.IsActive {
		return nil, ErrPropertyNotFound
	}
	return p, nil
}

// List returns active properties matching filter.
func (s *PropertyService) List(ctx context.Context, filter model.PropertyFilter) ([]model.Property, error) {
	return s.properties.List(ctx, filter)
}

// Delete soft-deletes a property.
func (s *PropertyService) Delete(ctx context.Context, id int64) error {
	return s.properties.Deactivate(ctx, id)
}

// CreateRoom stores a new, available room.
func (s *PropertyService) CreateRoom(ctx context.Context, req *model.CreateRoomRequest) (*model.Room, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	rm := &model.Room{
		ID:        uuid.New(),
		Name:      req.Name,
		Type:      req.Type,
		Price:     req.Price,
		Capacity:  req.Capacity,
		Available: true,
	}
	if err := s.rooms.Insert(ctx, rm); err != nil {
		return nil, err
	}
	return rm, nil
}

// GetRoom returns a room or ErrRoomNotFound.
func (s *PropertyService) GetRoom(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	rm, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if rm == nil {
		return nil, ErrRoomNotFound
	}
	return rm, nil
}

// ListRooms returns rooms, optionally of a single type.
func (s *PropertyService) ListRooms(ctx context.Context, roomType string) ([]model.Room, error) {
	return s.rooms.List(ctx, roomType)
}
