package feed

import (
	"backend-feedhub/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/", func(c *fiber.Ctx) error {
		views, err := svc.Get(c.Context(), c.Query("user_id"))
		if err != nil {
			return fiber.NewError(apperr.HTTPStatus(err), err.Error())
		}
		return c.JSON(views)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		view, err := svc.GetPost(c.Context(), c.Query("user_id"), c.Params("id"))
		if err != nil {
			return fiber.NewError(apperr.HTTPStatus(err), err.Error())
		}
		return c.JSON(view)
	})
}
