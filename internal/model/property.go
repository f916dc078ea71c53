package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Default stay times applied when a property does not set its own.
const (
	DefaultCheckInTime  = "15:00"
	DefaultCheckOutTime = "12:00"
)

// Property is a bookable unit priced per night with a deposit policy.
type Property struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	TypeID            *int64          `json:"type_id"`
	Location          string          `json:"location"`
	Description       string          `json:"description"`
	FullPrice         decimal.Decimal `json:"full_price"`
	DepositType       DiscountType    `json:"deposit_type"`
	DepositValue      decimal.Decimal `json:"deposit_value"`
	CalculatedDeposit decimal.Decimal `json:"calculated_deposit"`
	Capacity          int             `json:"capacity"`
	IsAvailable       bool            `json:"is_available"`
	IsActive          bool            `json:"is_active"`
	Rating            decimal.Decimal `json:"rating"`
	ReviewsCount      int             `json:"reviews_count"`
	CreatedBy         uuid.UUID       `json:"created_by"`
	CheckInTime       string          `json:"check_in_time"`
	CheckOutTime      string          `json:"check_out_time"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// PropertyRequest is the DTO for creating or replacing a property.
type PropertyRequest struct {
	Name         string          `json:"name" validate:"required,notblank,max=255"`
	TypeID       *int64          `json:"type_id" validate:"omitempty,gte=1"`
	Location     string          `json:"location" validate:"required,notblank,max=255"`
	Description  string          `json:"description" validate:"max=5000"`
	FullPrice    decimal.Decimal `json:"full_price" validate:"gt=0"`
	DepositType  DiscountType    `json:"deposit_type" validate:"required,oneof=percentage fixed_amount"`
	DepositValue decimal.Decimal `json:"deposit_value" validate:"gte=0"`
	Capacity     int             `json:"capacity" validate:"required,gte=1"`
	IsAvailable  *bool           `json:"is_available"`
	CheckInTime  string          `json:"check_in_time" validate:"omitempty,datetime=15:04"`
	CheckOutTime string          `json:"check_out_time" validate:"omitempty,datetime=15:04"`
}

// PropertyFilter narrows catalog listings.
type PropertyFilter struct {
	TypeID   *int64
	Location string
	Page     int
	Limit    int
}

// Room is a legacy bookable unit with a flat per-booking price.
type Room struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Price     decimal.Decimal `json:"price"`
	Capacity  int             `json:"capacity"`
	Available bool            `json:"available"`
	CreatedAt time.Time       `json:"created_at"`
}

// CreateRoomRequest is the DTO for creating a room.
type CreateRoomRequest struct {
	Name     string          `json:"name" validate:"required,notblank,max=255"`
	Type     string          `json:"type" validate:"required,notblank,max=50"`
	Price    decimal.Decimal `json:"price" validate:"gt=0"`
	Capacity int             `json:"capacity" validate:"required,gte=1"`
}
