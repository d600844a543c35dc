package model

import (
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Caller is the authenticated principal resolved from a verified bearer
// token. Identity and role always come from here, never from request bodies.
type Caller struct {
	UserID   string
	Username string
	Role     Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name" validate:"required,min=3,max=64"`
	NameLower    string    `json:"-" bson:"name_lower"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Role         Role      `json:"role" bson:"role" validate:"required,oneof=admin member"`
	Timezone     string    `json:"timezone" bson:"timezone" validate:"required"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required"`
	Timezone string `json:"timezone" validate:"required"`
}

type LoginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

type UpdateTimezoneRequest struct {
	Timezone string `json:"timezone" validate:"required"`
}
