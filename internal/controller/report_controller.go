package controller

import (
	"review-insights-be/internal/dto"
	"review-insights-be/internal/pkg/serverutils"
	"review-insights-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IReportController interface {
	RegisterRoutes(r fiber.Router)
	Register(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Reindex(ctx *fiber.Ctx) error
}

type reportController struct {
	reportService  service.IReportService
	indexerService service.IIndexerService
}

func NewReportController(reportService service.IReportService, indexerService service.IIndexerService) IReportController {
	return &reportController{
		reportService:  reportService,
		indexerService: indexerService,
	}
}

func (c *reportController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/report/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Register)
	h.Get("", c.GetAll)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Delete)
	h.Post("reindex", c.Reindex)
}

func (c *reportController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterReportRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.reportService.Register(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success register report", res))
}

func (c *reportController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.reportService.GetAll(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get reports", res))
}

func (c *reportController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid report id")
	}

	res, err := c.reportService.Get(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show report", res))
}

func (c *reportController) Delete(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid report id")
	}

	if err := c.reportService.Delete(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete report", nil))
}

// Reindex runs a synchronous batch pass. Operational surface, mostly for
// admin tooling; the CLI wraps the same service.
func (c *reportController) Reindex(ctx *fiber.Ctx) error {
	var req dto.ReindexRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	result, err := c.indexerService.Reindex(ctx.Context(), service.ReindexParams{
		AfterId:  req.AfterId,
		PageSize: req.PageSize,
		Refresh:  req.Refresh,
	})
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success reindex", &dto.ReindexResponse{
		Processed: result.Processed,
		Skipped:   result.Skipped,
		Failed:    result.Failed,
		LastId:    result.LastId,
	}))
}
