// Seeds the demo accounts listed in the seed file (game.seed_file).
//
// Usage: go run scripts/seed.go

package main

import (
	"ctf_game_backend/internal/config"
	"ctf_game_backend/internal/model"
	"ctf_game_backend/internal/repository"
	"ctf_game_backend/pkg/database"
	"ctf_game_backend/pkg/logger"
	"errors"
	"log"
	"os"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type seedUser struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	IsPaid   bool   `yaml:"is_paid"`
	IsAdmin  bool   `yaml:"is_admin"`
}

type seedFile struct {
	Users []seedUser `yaml:"users"`
}

func loadSeed(path string) (*seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, err
	}
	return &seed, nil
}

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	seed, err := loadSeed(cfg.Game.SeedFile)
	if err != nil {
		log.Fatalf("Failed to read seed file %s: %v", cfg.Game.SeedFile, err)
	}

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	users := repository.NewUserRepository(db)
	created := 0
	for _, su := range seed.Users {
		if _, err := users.FindByEmail(su.Email); err == nil {
			logger.Log.Info("Seed user exists, skipping", zap.String("email", su.Email))
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Fatalf("Failed to look up %s: %v", su.Email, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash password for %s: %v", su.Email, err)
		}

		user := &model.User{
			Name:     su.Name,
			Email:    su.Email,
			Username: su.Username,
			Password: string(hash),
			IsPaid:   su.IsPaid,
			IsAdmin:  su.IsAdmin,
		}
		if user.Name == "" {
			user.Name = su.Username
		}
		if err := users.Create(user); err != nil {
			log.Fatalf("Failed to create %s: %v", su.Email, err)
		}
		created++
	}

	log.Printf("Seeded %d of %d users", created, len(seed.Users))
}
