package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"coachtrips/cmd/middleware"
	"coachtrips/internal/service"
)

type Routers struct {
	Service service.Service
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(middleware.IdentityMiddleware())
	app.Use(cors.Default())
	apiGroup := app.Group("/v1")

	apiGroup.POST("/events", r.Service.CreateEvent)
	apiGroup.GET("/events", r.Service.GetAllEvents)
	apiGroup.GET("/events/:id", r.Service.GetEvent)
	apiGroup.PATCH("/events/:id", r.Service.UpdateEvent)
	apiGroup.POST("/events/:id/cancel", r.Service.CancelEvent)
	apiGroup.GET("/events/:id/live", r.Service.LiveSeats)

	apiGroup.POST("/events/:id/bookings", r.Service.Join)
	apiGroup.GET("/events/:id/bookings", r.Service.EventBookings)
	apiGroup.POST("/events/:id/bookings/:bookingId/pay", r.Service.PayBooking)
	apiGroup.POST("/events/:id/bookings/:bookingId/cancel", r.Service.CancelBooking)

	apiGroup.GET("/events/:id/attendance", r.Service.GetAttendance)
	apiGroup.POST("/events/:id/attendance", r.Service.SaveAttendance)

	apiGroup.GET("/bookings", r.Service.UserBookings)

	return app
}
