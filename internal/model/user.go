package model

import (
	"time"
)

// swagger:model User
type User struct {
	BaseModel
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100;unique;not null" json:"email"`
	Username  string    `gorm:"size:50;unique;not null" json:"username"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Phone     string    `gorm:"size:30" json:"phone,omitempty"`
	Avatar    string    `gorm:"size:255" json:"avatar,omitempty"`
	IsPaid    bool      `gorm:"default:false" json:"isPaid"`
	IsBlocked bool      `gorm:"default:false" json:"isBlocked"`
	IsAdmin   bool      `gorm:"default:false" json:"isAdmin"`
	LastLogin time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}
