package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/rishikalpadas/mydesignbazaar-sub001/app/repository"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/cache"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/database"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/env"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName: "DesignBazaar Subscriptions",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
