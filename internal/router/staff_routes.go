package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/dance-studio-admin/internal/handler"    // staff handlers
	"github.com/iliyamo/dance-studio-admin/internal/middleware" // JWT + role middlewares
	"github.com/iliyamo/dance-studio-admin/internal/model"      // role constants
)

// RegisterStaff registers the endpoints shared by ADMIN and INSTRUCTOR
// accounts: browsing classes, marking attendance and raising makeup
// requests.  Makeup decisions (approve, reject, complete, cancel) are
// ADMIN only and stay here so the whole workflow reads in one place.
func RegisterStaff(e *echo.Echo, cl *handler.ClassHandler, att *handler.AttendanceHandler, mk *handler.MakeupHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleInstructor),
	)

	// ---- Classes (read only for instructors) ----
	g.GET("/classes", cl.List)
	g.GET("/classes/:id", cl.Get)
	g.GET("/classes/:id/schedules", cl.ListSchedules)

	// ---- Attendance ----
	g.PUT("/attendance", att.Record)
	g.PUT("/attendance/bulk", att.BulkRecord)
	g.GET("/classes/:id/attendance", att.ListByClassDate)
	g.GET("/students/:id/attendance", att.ListByStudent)

	// ---- Makeups ----
	g.POST("/makeups", mk.Create)
	g.GET("/makeups", mk.List)

	decisions := e.Group(
		"/v1/makeups",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	decisions.POST("/:id/approve", mk.Approve)
	decisions.POST("/:id/reject", mk.Reject)
	decisions.POST("/:id/complete", mk.Complete)
	decisions.POST("/:id/cancel", mk.Cancel)
}
