package server

import (
	"backend-feedhub/internal/auth"
	"backend-feedhub/internal/config"
	"backend-feedhub/internal/feed"
	"backend-feedhub/internal/post"
	"backend-feedhub/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App   *fiber.App
	Cfg   config.Config
	DB    *pgxpool.Pool
	Redis *redis.Client
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:   app,
		Cfg:   cfg,
		DB:    db,
		Redis: redisClient,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	users := user.NewService(s.DB, s.Redis)
	posts := post.NewService(s.DB, users)
	feeds := feed.NewService(users, posts)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB, users), jwtMiddleware)
	user.RegisterRoutes(s.App.Group("/users"), users, jwtMiddleware)

	postGroup := s.App.Group("/posts")
	feed.RegisterRoutes(postGroup, feeds)
	post.RegisterRoutes(postGroup, posts, jwtMiddleware)
}
