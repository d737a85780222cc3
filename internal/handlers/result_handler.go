package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/repositories"
)

type ResultHandler struct {
	screeningRepo repositories.ScreeningRepository
}

func NewResultHandler(screeningRepo repositories.ScreeningRepository) *ResultHandler {
	return &ResultHandler{
		screeningRepo: screeningRepo,
	}
}

// HandleGetScreening handles GET /screenings/:id
func (h *ResultHandler) HandleGetScreening(c *fiber.Ctx) error {
	runID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid screening ID format",
		})
	}

	run, err := h.screeningRepo.FindByID(c.UserContext(), runID)
	if err != nil {
		if errors.Is(err, repositories.ErrScreeningNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Screening not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load screening",
		})
	}

	return c.JSON(models.ScreeningResponse{
		ID:             run.ID.String(),
		JobDescription: run.JobDescription,
		Results:        run.Results,
		CreatedAt:      run.CreatedAt,
	})
}
