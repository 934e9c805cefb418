// @title CTF Game API
// @version 1.0
// @description Backend for the CTF security training game: challenge catalog, exploit checks and player progress.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"ctf_game_backend/internal/app"
	"ctf_game_backend/internal/config"
	"ctf_game_backend/pkg/logger"
	"flag"
	"log"
)

func main() {
	configDir := flag.String("config", "configs", "directory containing config.yaml")
	migrateOnly := flag.Bool("migrate-only", false, "run database migrations and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg, *configDir)
	defer logger.Log.Sync()

	if *migrateOnly {
		log.Println("Database migration finished")
		return
	}

	application.Run()
}
