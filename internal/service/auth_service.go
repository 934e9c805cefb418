package service

import (
	"ctf_game_backend/internal/config"
	"ctf_game_backend/internal/model"
	"ctf_game_backend/internal/repository"
	"ctf_game_backend/internal/util"
	"ctf_game_backend/pkg/logger"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type AuthService struct {
	UserRepo *repository.UserRepository
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

// RegisterInput is a sign-up form. IsAdmin is only read to reject it.
type RegisterInput struct {
	Name            string
	Email           string
	Username        string
	Password        string
	ConfirmPassword string
	IsAdmin         *bool
}

// Register validates the form and creates an unpaid, non-admin account.
func (s *AuthService) Register(in RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	if email == "" || username == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, util.ErrInvalidRequest
	}
	if strings.EqualFold(email, s.Cfg.Game.AdminEmail) {
		return nil, util.ErrEmailReserved
	}
	if strings.EqualFold(username, config.AdminUsername) {
		return nil, util.ErrUsernameTaken
	}
	if in.IsAdmin != nil {
		return nil, util.ErrInvalidRequest
	}
	if in.Password != in.ConfirmPassword {
		return nil, util.ErrPasswordMismatch
	}
	if len(in.Password) < minPasswordLength {
		return nil, util.ErrPasswordTooShort
	}

	if _, err := s.UserRepo.FindByEmail(email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.UserRepo.FindByUsername(username); err == nil {
		return nil, util.ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = username
	}

	user := &model.User{
		Name:     name,
		Email:    email,
		Username: username,
		Password: string(hashedPassword),
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}

	logger.Log.Info("User registered", zap.Uint("userID", user.ID), zap.String("username", username))
	return user, nil
}

// Login checks credentials and returns a session token with the user.
func (s *AuthService) Login(email, password string) (string, *model.User, error) {
	user, err := s.UserRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, util.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	if user.IsBlocked {
		return "", nil, util.ErrAccountBlocked
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}

	if err := s.UserRepo.UpdateLastLogin(user.ID); err != nil {
		logger.Log.Warn("Failed to update last login", zap.Uint("userID", user.ID), zap.Error(err))
	}

	return token, user, nil
}
