package post

import (
	"backend-feedhub/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req CreateInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.AuthorID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "author_id required")
		}
		view, err := svc.Create(c.Context(), req)
		if err != nil {
			return fiber.NewError(apperr.HTTPStatus(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(view)
	})

	r.Post("/:id/like", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			UserID string `json:"user_id"`
		}
		if err := c.BodyParser(&body); err != nil || body.UserID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		view, err := svc.ToggleLike(c.Context(), c.Params("id"), body.UserID)
		if err != nil {
			return fiber.NewError(apperr.HTTPStatus(err), err.Error())
		}
		return c.JSON(view)
	})

	r.Post("/:id/share", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			UserID  string `json:"user_id"`
			Comment string `json:"comment"`
		}
		if err := c.BodyParser(&body); err != nil || body.UserID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		view, err := svc.Share(c.Context(), c.Params("id"), body.UserID, body.Comment)
		if err != nil {
			return fiber.NewError(apperr.HTTPStatus(err), err.Error())
		}
		return c.JSON(view)
	})

	r.Get("/:id/comments", func(c *fiber.Ctx) error {
		comments, err := svc.Comments(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(apperr.HTTPStatus(err), err.Error())
		}
		return c.JSON(comments)
	})

	r.Post("/:id/comments", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Content  string `json:"content"`
			AuthorID string `json:"author_id"`
		}
		if err := c.BodyParser(&body); err != nil || body.AuthorID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "author_id required")
		}
		view, err := svc.AddComment(c.Context(), c.Params("id"), body.AuthorID, body.Content)
		if err != nil {
			return fiber.NewError(apperr.HTTPStatus(err), err.Error())
		}
		return c.JSON(view)
	})

	r.Get("/:id/likes", func(c *fiber.Ctx) error {
		users, err := svc.LikedUsers(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(apperr.HTTPStatus(err), err.Error())
		}
		return c.JSON(users)
	})
}
