package repository

import (
	"ctf_game_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	if user.LastLogin.IsZero() {
		user.LastLogin = now
	}
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("username = ?", username).First(&user).Error
	return &user, err
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

func (r *UserRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.DB.Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *UserRepository) UpdateLastLogin(id uint) error {
	return r.DB.Model(&model.User{}).Where("id = ?", id).Update("last_login", time.Now()).Error
}

// List returns users newest first.
func (r *UserRepository) List() ([]model.User, error) {
	var users []model.User
	err := r.DB.Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *UserRepository) Delete(id uint) error {
	return r.DB.Delete(&model.User{}, id).Error
}

type UserCounts struct {
	Total    int64
	Paid     int64
	NewSince int64
}

func (r *UserRepository) Counts(since time.Time) (UserCounts, error) {
	var counts UserCounts
	if err := r.DB.Model(&model.User{}).Count(&counts.Total).Error; err != nil {
		return counts, err
	}
	if err := r.DB.Model(&model.User{}).Where("is_paid = ?", true).Count(&counts.Paid).Error; err != nil {
		return counts, err
	}
	if err := r.DB.Model(&model.User{}).Where("created_at >= ?", since).Count(&counts.NewSince).Error; err != nil {
		return counts, err
	}
	return counts, nil
}

// CountCreatedBetween counts signups in [from, to).
func (r *UserRepository) CountCreatedBetween(from, to time.Time) (int64, error) {
	var n int64
	err := r.DB.Model(&model.User{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&n).Error
	return n, err
}

func (r *UserRepository) RecentPaid(limit int) ([]model.User, error) {
	var users []model.User
	err := r.DB.Where("is_paid = ?", true).Order("created_at DESC").Limit(limit).Find(&users).Error
	return users, err
}

func (r *UserRepository) IsBlocked(id uint) (bool, error) {
	user, err := r.FindByID(id)
	if err != nil {
		return false, err
	}
	return user.IsBlocked, nil
}

func (r *UserRepository) IsPaid(id uint) (bool, error) {
	user, err := r.FindByID(id)
	if err != nil {
		return false, err
	}
	return user.IsPaid, nil
}
