package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// JobController is the admin view of the background scheduler
type JobController interface {
	GetJobStatus() map[string]interface{}
	RunJob(name string) error
	RemoveJob(name string) error
}

type JobHandlers struct {
	jobs JobController
}

func NewJobHandlers(jobs JobController) *JobHandlers {
	return &JobHandlers{jobs: jobs}
}

// Status handles GET /api/admin/jobs
func (h *JobHandlers) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.jobs.GetJobStatus())
}

// Run handles POST /api/admin/jobs/:name/run
func (h *JobHandlers) Run(c echo.Context) error {
	name := c.Param("name")
	if err := h.jobs.RunJob(name); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "Job triggered",
		"job":     name,
	})
}

// Remove handles DELETE /api/admin/jobs/:name
func (h *JobHandlers) Remove(c echo.Context) error {
	name := c.Param("name")
	if err := h.jobs.RemoveJob(name); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Job removed until restart",
		"job":     name,
	})
}
