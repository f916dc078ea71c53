package handler

import "github.com/gofiber/fiber/v2"

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Health        *HealthHandler
	Coupons       *CouponHandler
	Bookings      *BookingHandler
	Properties    *PropertyHandler
	Reviews       *ReviewHandler
	Notifications *NotificationHandler
}

// RouterConfig holds the route-level settings.
type RouterConfig struct {
	JWTSecret string
	JWTIssuer string
	// BookingLimiter guards the booking creation routes. Nil disables it.
	BookingLimiter fiber.Handler
}

// Register mounts every route on app.
func Register(app *fiber.App, h Handlers, cfg RouterConfig) {
	app.Get("/health", h.Health.Check)

	// Public catalog
	app.Get("/api/properties", h.Properties.ListProperties)
	app.Get("/api/properties/:id", h.Properties.GetProperty)
	app.Get("/api/rooms", h.Properties.ListRooms)
	app.Get("/api/rooms/:id", h.Properties.GetRoom)
	app.Get("/api/reviews/property/:propertyId", h.Reviews.ListPropertyReviews)
	app.Get("/api/reviews/stats/:propertyId", h.Reviews.PropertyStats)

	api := app.Group("/api", Auth(cfg.JWTSecret, cfg.JWTIssuer))

	limited := []fiber.Handler{}
	if cfg.BookingLimiter != nil {
		limited = append(limited, cfg.BookingLimiter)
	}
	api.Post("/bookings", append(limited, h.Bookings.CreateRoomBooking)...)
	api.Post("/bookings/property", append(limited, h.Bookings.CreatePropertyBooking)...)
	api.Get("/bookings", h.Bookings.ListBookings)
	api.Get("/bookings/:id", h.Bookings.GetBooking)

	api.Post("/coupons/validate", h.Coupons.ValidateCoupon)
	api.Get("/notifications", h.Notifications.ListNotifications)

	api.Post("/reviews", h.Reviews.CreateReview)
	api.Get("/reviews/mine", h.Reviews.ListMyReviews)
	api.Put("/reviews/:id", h.Reviews.UpdateReview)
	api.Delete("/reviews/:id", h.Reviews.DeleteReview)
	api.Post("/reviews/invitation/:bookingId", h.Reviews.SendInvitation)

	admin := api.Group("/admin", RequireAdmin())
	admin.Post("/coupons", h.Coupons.CreateCoupon)
	admin.Get("/coupons", h.Coupons.ListCoupons)
	admin.Get("/coupons/:id", h.Coupons.GetCoupon)
	admin.Put("/coupons/:id", h.Coupons.UpdateCoupon)
	admin.Delete("/coupons/:id", h.Coupons.DeleteCoupon)

	admin.Post("/properties", h.Properties.CreateProperty)
	admin.Put("/properties/:id", h.Properties.UpdateProperty)
	admin.Delete("/properties/:id", h.Properties.DeleteProperty)
	admin.Post("/rooms", h.Properties.CreateRoom)

	admin.Patch("/reviews/:id", h.Reviews.ModerateReview)
}
