package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	applog "alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/repositories"
	"alfredoptarigan/resume-screener/internal/services"
)

const MsgMissingInput = "Please provide both JD text and at least one resume."

type ScreenHandlerConfig struct {
	MaxFileSize            int64
	MaxFiles               int
	MaxJobDescriptionChars int
}

type ScreenHandler struct {
	screener       services.ScreenerService
	storageService services.StorageService
	history        repositories.ScreeningRepository
	cfg            ScreenHandlerConfig
	logger         *zap.Logger
}

// NewScreenHandler wires the screening endpoint. history may be nil, in which
// case runs are not persisted.
func NewScreenHandler(
	screener services.ScreenerService,
	storageService services.StorageService,
	history repositories.ScreeningRepository,
	cfg ScreenHandlerConfig,
	logger *zap.Logger,
) *ScreenHandler {
	logger = applog.OrNop(logger)
	return &ScreenHandler{
		screener:       screener,
		storageService: storageService,
		history:        history,
		cfg:            cfg,
		logger:         logger,
	}
}

// HandleScreen handles POST /screen
func (h *ScreenHandler) HandleScreen(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
		})
	}

	jobDescription := ""
	if values := form.Value["job_description"]; len(values) > 0 {
		jobDescription = strings.TrimSpace(values[0])
	}
	files := form.File["resumes"]

	if jobDescription == "" || len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": MsgMissingInput,
		})
	}

	if h.cfg.MaxFiles > 0 && len(files) > h.cfg.MaxFiles {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Too many files. Max files per request: %d", h.cfg.MaxFiles),
		})
	}

	for _, file := range files {
		if h.cfg.MaxFileSize > 0 && file.Size > h.cfg.MaxFileSize {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("File %s too large. Max size: %d bytes", services.SanitizeFilename(file.Filename), h.cfg.MaxFileSize),
			})
		}
	}

	if h.cfg.MaxJobDescriptionChars > 0 {
		jobDescription = services.TruncateRunes(jobDescription, h.cfg.MaxJobDescriptionChars)
	}

	h.logger.Info("Screening request received",
		zap.Int("files", len(files)),
		zap.String("job_description", applog.Truncate(jobDescription, 80)),
	)

	workspace, err := h.storageService.NewWorkspace()
	if err != nil {
		h.logger.Error("Failed to create upload workspace", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store uploaded files",
		})
	}
	defer func() {
		if err := workspace.Cleanup(); err != nil {
			h.logger.Warn("Failed to clean up upload workspace", zap.String("dir", workspace.Dir), zap.Error(err))
		}
	}()

	docs := make([]models.Document, 0, len(files))
	for _, file := range files {
		doc, err := workspace.SaveFile(file)
		if err != nil {
			h.logger.Error("Failed to save uploaded file", zap.String("file", file.Filename), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to store uploaded files",
			})
		}
		docs = append(docs, doc)
	}

	results, err := h.screener.Screen(c.UserContext(), jobDescription, docs)
	if err != nil {
		h.logger.Error("Screening failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to screen resumes. Please try again later.",
		})
	}

	ranked := services.RankResults(results)
	id := uuid.New()

	if h.history != nil {
		run := &models.ScreeningRun{
			ID:             id,
			JobDescription: jobDescription,
			Results:        ranked,
		}
		if err := h.history.Create(c.UserContext(), run); err != nil {
			h.logger.Warn("Failed to store screening run", zap.String("id", id.String()), zap.Error(err))
		}
	}

	return c.JSON(models.ScreenResponse{
		ID:      id.String(),
		Results: ranked,
	})
}
