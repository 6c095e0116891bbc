package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	// StudentID links a STUDENT account to its student record.
	StudentID string `json:"student_id,omitempty"`
	jwt.RegisteredClaims
}
