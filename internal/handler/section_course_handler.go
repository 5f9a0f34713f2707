package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadops/timetable-api/internal/service"
	appErrors "github.com/acadops/timetable-api/pkg/errors"
	"github.com/acadops/timetable-api/pkg/response"
)

// SectionCourseHandler manages section-course offering endpoints.
type SectionCourseHandler struct {
	service *service.SectionCourseService
}

// NewSectionCourseHandler constructs handler.
func NewSectionCourseHandler(svc *service.SectionCourseService) *SectionCourseHandler {
	return &SectionCourseHandler{service: svc}
}

// ListBySection godoc
// @Summary List courses offered in a section
// @Tags Section Courses
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/courses [get]
func (h *SectionCourseHandler) ListBySection(c *gin.Context) {
	offerings, err := h.service.ListBySection(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offerings, nil)
}

// Create godoc
// @Summary Offer a course in a section
// @Tags Section Courses
// @Accept json
// @Produce json
// @Param payload body service.CreateSectionCourseRequest true "Offering payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /section-courses [post]
func (h *SectionCourseHandler) Create(c *gin.Context) {
	var req service.CreateSectionCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	offering, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, offering)
}

// AssignFaculty godoc
// @Summary Assign or clear the designated instructor
// @Tags Section Courses
// @Accept json
// @Produce json
// @Param id path string true "SectionCourse ID"
// @Param payload body service.AssignFacultyRequest true "Faculty payload"
// @Success 200 {object} response.Envelope
// @Router /section-courses/{id}/faculty [patch]
func (h *SectionCourseHandler) AssignFaculty(c *gin.Context) {
	var req service.AssignFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	offering, err := h.service.AssignFaculty(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offering, nil)
}

// Delete godoc
// @Summary Withdraw a course offering
// @Tags Section Courses
// @Produce json
// @Param id path string true "SectionCourse ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /section-courses/{id} [delete]
func (h *SectionCourseHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
