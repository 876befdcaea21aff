package user

import (
	"backend-feedhub/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		users, err := svc.List(c.Context())
		if err != nil {
			return fiber.NewError(apperr.HTTPStatus(err), err.Error())
		}
		return c.JSON(users)
	})

	r.Get("/:id/friends", func(c *fiber.Ctx) error {
		friends, err := svc.Friends(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(apperr.HTTPStatus(err), err.Error())
		}
		return c.JSON(friends)
	})

	r.Post("/:id/friend-request", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			TargetUserID string `json:"target_user_id"`
		}
		if err := c.BodyParser(&body); err != nil || body.TargetUserID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "target_user_id required")
		}
		if err := svc.SendFriendRequest(c.Context(), c.Params("id"), body.TargetUserID); err != nil {
			return fiber.NewError(apperr.HTTPStatus(err), err.Error())
		}
		return c.JSON(fiber.Map{"message": "Friend request sent"})
	})

	r.Post("/:id/accept-friend", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			RequesterID string `json:"requester_id"`
		}
		if err := c.BodyParser(&body); err != nil || body.RequesterID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "requester_id required")
		}
		if err := svc.AcceptFriendRequest(c.Context(), c.Params("id"), body.RequesterID); err != nil {
			return fiber.NewError(apperr.HTTPStatus(err), err.Error())
		}
		return c.JSON(fiber.Map{"message": "Friend request accepted"})
	})

	r.Post("/:id/location", authMiddleware, func(c *fiber.Ctx) error {
		var loc Location
		if err := c.BodyParser(&loc); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		updated, err := svc.UpdateLocation(c.Context(), c.Params("id"), loc)
		if err != nil {
			return fiber.NewError(apperr.HTTPStatus(err), err.Error())
		}
		return c.JSON(updated)
	})
}
