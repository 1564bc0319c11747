package models

// UserModel is a regular project collaborator. Password holds a bcrypt hash
// and is never serialized.
type UserModel struct {
	Base
	Name     string `json:"name"     gorm:"not null"`
	Email    string `json:"email"    gorm:"not null;uniqueIndex"`
	Password string `json:"-"`
	Avatar   string `json:"avatar"`
	IsAdmin  bool   `json:"is_admin" gorm:"default:false"`
}

func (UserModel) TableName() string { return "users" }

// SSOUserModel is a user provisioned through single sign-on. SSO users are
// mention candidates but cannot log in with a password.
type SSOUserModel struct {
	Base
	Name   string `json:"name"  gorm:"not null"`
	Email  string `json:"email" gorm:"not null;uniqueIndex"`
	Avatar string `json:"avatar"`
}

func (SSOUserModel) TableName() string { return "sso_users" }
