package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Message string `json:"message"`
}

// --- Request types ---

type phoneRequest struct {
	Number   string `json:"number"`
	AreaCode string `json:"area_code"`
}

// Phones may be an empty array but must be present.
type signupRequest struct {
	Name     string         `json:"name"     validate:"required"`
	Email    string         `json:"email"    validate:"required"`
	Password string         `json:"password" validate:"required"`
	Phones   []phoneRequest `json:"phones"   validate:"required"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// --- Response types ---

type phoneResponse struct {
	Number   string `json:"number"`
	AreaCode string `json:"area_code"`
}

// userResponse mirrors the stored record, password hash included; clients of
// /signup and /signin have always received the full record.
type userResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"password_hash"`
	Phones       []phoneResponse `json:"phones"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	LastLoginAt  time.Time       `json:"last_login_at"`
	Token        string          `json:"token"`
}

type identityResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
