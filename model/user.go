package model

import "gorm.io/gorm"

// User struct
type User struct {
	gorm.Model
	Email      string `gorm:"uniqueIndex;not null" json:"email"`
	FullName   string `gorm:"not null" json:"full_name"`
	Password   string `gorm:"not null" json:"-"`
	ProfilePic string `gorm:"not null;default:''" json:"profile_pic"`
	Role       string `json:"role"`

	OtpEnabled bool   `gorm:"default:false;" json:"otp"`
	OtpSecret  string `json:"-"`
}
