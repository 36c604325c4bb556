package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/dance-studio-admin/internal/handler"    // admin handlers
	"github.com/iliyamo/dance-studio-admin/internal/middleware" // JWT + role middlewares
	"github.com/iliyamo/dance-studio-admin/internal/model"      // role constants
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1: the student
// roster, class management, the subscription lifecycle and reporting.
// All routes require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, st *handler.StudentHandler, cl *handler.ClassHandler, sub *handler.SubscriptionHandler, stats *handler.StatsHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Students ----
	g.POST("/students", st.Create)
	g.GET("/students", st.List)
	g.GET("/students/:id", st.Get)
	g.PUT("/students/:id", st.Update)
	g.DELETE("/students/:id", st.Delete) // soft delete, keeps history

	// ---- Classes ----
	g.POST("/classes", cl.Create)
	g.PUT("/classes/:id", cl.Update)
	g.DELETE("/classes/:id", cl.Delete)
	g.POST("/classes/:id/schedules", cl.AddSchedule)
	g.DELETE("/classes/:id/schedules/:schedule_id", cl.DeleteSchedule)

	// ---- Subscriptions ----
	g.POST("/subscriptions", sub.Create)
	g.GET("/subscriptions", sub.List)
	g.GET("/subscriptions/:id", sub.Get)
	g.POST("/subscriptions/:id/pause", sub.Pause)
	g.POST("/subscriptions/:id/resume", sub.Resume)
	g.POST("/subscriptions/:id/extend", sub.Extend)
	g.POST("/subscriptions/:id/cancel", sub.Cancel)

	// ---- Stats ----
	g.GET("/stats/revenue", stats.Revenue)
	g.GET("/stats/revenue/monthly", stats.MonthlyRevenue)
	g.GET("/stats/classes/:id/attendance", stats.ClassAttendance)
	g.GET("/stats/students/:id/attendance", stats.StudentAttendance)
	g.GET("/stats/instructors/:id/attendance", stats.InstructorAttendance)
}
