package controller

import (
	"notebook-ai-be/internal/dto"
	"notebook-ai-be/internal/pkg/serverutils"
	"notebook-ai-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IGenerationJobController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
}

type generationJobController struct {
	jobService service.IGenerationJobService
}

func NewGenerationJobController(jobService service.IGenerationJobService) IGenerationJobController {
	return &generationJobController{
		jobService: jobService,
	}
}

func (c *generationJobController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/generation/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Get("list/:notebookId", c.List)
	h.Get(":id", c.Show)
}

func (c *generationJobController) Create(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.CreateGenerationJobRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.jobService.Create(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create generation job", res))
}

// Show doubles as the polling endpoint, the response carries status and
// output once the worker finishes.
func (c *generationJobController) Show(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.jobService.Get(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get generation job", res))
}

func (c *generationJobController) List(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	notebookId, _ := uuid.Parse(ctx.Params("notebookId"))

	res, err := c.jobService.List(ctx.Context(), userId, notebookId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list generation jobs", res))
}
