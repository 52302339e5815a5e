package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"

	"github.com/launchpadhq/launchpad/app/repository"
	"github.com/launchpadhq/launchpad/internal/pkg/cache"
	"github.com/launchpadhq/launchpad/internal/pkg/database"
	"github.com/launchpadhq/launchpad/internal/pkg/env"
	"github.com/launchpadhq/launchpad/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "3000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())
	cache.SetupCache()

	// Resolve the views/public directories whether started from the project
	// root or from cmd/launchpad.
	basePath := "./"
	for _, p := range []string{"./", "../../"} {
		if _, err := os.Stat(p + "views"); err == nil {
			basePath = p
			break
		}
	}

	engine := html.New(basePath+"views", ".html")
	app := fiber.New(fiber.Config{
		Views: engine,
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())
	app.Static("/assets", basePath+"public/assets")

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}
