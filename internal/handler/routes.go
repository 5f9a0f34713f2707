package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers bundles every HTTP handler the API exposes.
type Handlers struct {
	Terms          *TermHandler
	Sections       *SectionHandler
	SectionCourses *SectionCourseHandler
	Schedules      *ScheduleHandler
	Rooms          *RoomHandler
	Faculty        *FacultyHandler
	Catalog        *CatalogHandler
}

// RegisterRoutes mounts all API routes on the given group.
func RegisterRoutes(rg *gin.RouterGroup, h Handlers) {
	terms := rg.Group("/terms")
	{
		terms.GET("", h.Terms.List)
		terms.POST("", h.Terms.Create)
		terms.DELETE("/:id", h.Terms.Delete)
		terms.GET("/:id/sections", h.Terms.ListSections)
	}

	sections := rg.Group("/sections")
	{
		sections.GET("/:id", h.Sections.Get)
		sections.POST("", h.Sections.Create)
		sections.PATCH("/:id/capacity", h.Sections.UpdateCapacity)
		sections.DELETE("/:id", h.Sections.Delete)
		sections.GET("/:id/courses", h.SectionCourses.ListBySection)
		sections.GET("/:id/timetable", h.Schedules.SectionTimetable)
		sections.GET("/:id/timetable/export", h.Schedules.ExportSectionTimetable)
	}

	offerings := rg.Group("/section-courses")
	{
		offerings.POST("", h.SectionCourses.Create)
		offerings.PATCH("/:id/faculty", h.SectionCourses.AssignFaculty)
		offerings.DELETE("/:id", h.SectionCourses.Delete)
	}

	schedules := rg.Group("/schedules")
	{
		schedules.GET("", h.Schedules.List)
		schedules.GET("/:id", h.Schedules.Get)
		schedules.POST("", h.Schedules.Create)
		schedules.PATCH("/:id", h.Schedules.Update)
		schedules.DELETE("/:id", h.Schedules.Delete)
	}

	rooms := rg.Group("/rooms")
	{
		rooms.GET("", h.Rooms.List)
		rooms.POST("", h.Rooms.Create)
		rooms.DELETE("/:id", h.Rooms.Delete)
	}

	faculty := rg.Group("/faculty")
	{
		faculty.GET("", h.Faculty.List)
		faculty.GET("/:id", h.Faculty.Get)
	}

	rg.GET("/departments", h.Catalog.ListDepartments)
	rg.DELETE("/departments/:id", h.Catalog.DeleteDepartment)
	rg.DELETE("/programs/:id", h.Catalog.DeleteProgram)
	rg.GET("/courses", h.Catalog.ListCourses)
	rg.POST("/courses", h.Catalog.CreateCourse)
	rg.DELETE("/courses/:id", h.Catalog.DeleteCourse)
}
