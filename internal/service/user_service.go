package service

import (
	"context"
	"ctf_game_backend/internal/model"
	"ctf_game_backend/internal/repository"
	"ctf_game_backend/internal/util"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"
)

// UserService handles profile reads and edits for the signed-in user.
type UserService struct {
	UserRepo *repository.UserRepository
	Storage  *StorageService
}

func NewUserService(userRepo *repository.UserRepository, storage *StorageService) *UserService {
	return &UserService{
		UserRepo: userRepo,
		Storage:  storage,
	}
}

func (s *UserService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

// UpdateProfile changes name and phone. Name is required.
func (s *UserService) UpdateProfile(id uint, name, phone string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, util.ErrNameRequired
	}

	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	user.Name = name
	user.Phone = strings.TrimSpace(phone)
	user.UpdatedAt = time.Now()

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// UploadAvatar stores an image and points the user's avatar at it.
func (s *UserService) UploadAvatar(ctx context.Context, id uint, filename string, size int64, file io.ReadSeeker) (*model.User, error) {
	if size > util.MaxAvatarSize {
		return nil, util.ErrFileTooLarge
	}

	mimeType, err := util.ValidateMimeType(file, util.AllowedAvatarTypes)
	if err != nil {
		return nil, err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".img"
	}
	objectName := fmt.Sprintf("avatars/%d/%s%s", id, model.GenerateUUID(), ext)

	url, err := s.Storage.Upload(ctx, objectName, file, size, mimeType)
	if err != nil {
		return nil, err
	}

	user.Avatar = url
	user.UpdatedAt = time.Now()
	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}
