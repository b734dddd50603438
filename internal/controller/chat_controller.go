package controller

import (
	"encoding/json"
	"io"
	"strings"

	"notebook-ai-be/internal/dto"
	"notebook-ai-be/internal/pkg/serverutils"
	"notebook-ai-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxAttachmentBytes = 20 << 20

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Send(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("send", c.Send)
	h.Get("history/:notebookId/:conversationId", c.History)
}

// Send accepts either a JSON body or a multipart form. The multipart
// variant carries the JSON fields in a "payload" part plus any number of
// "files" parts for attachments.
func (c *chatController) Send(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.SendChatRequest
	if strings.HasPrefix(ctx.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if err := parseMultipartChat(ctx, &req); err != nil {
			return err
		}
	} else {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.SendChat(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	notebookId, _ := uuid.Parse(ctx.Params("notebookId"))
	conversationId, _ := uuid.Parse(ctx.Params("conversationId"))

	res, err := c.chatService.GetChatHistory(ctx.Context(), userId, notebookId, conversationId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", res))
}

func parseMultipartChat(ctx *fiber.Ctx, req *dto.SendChatRequest) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return err
	}

	if payloads := form.Value["payload"]; len(payloads) > 0 {
		if err := json.Unmarshal([]byte(payloads[0]), req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "malformed payload field")
		}
	}

	for _, fh := range form.File["files"] {
		if fh.Size > maxAttachmentBytes {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "attachment too large")
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return err
		}
		req.Attachments = append(req.Attachments, dto.AttachmentInput{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return nil
}
