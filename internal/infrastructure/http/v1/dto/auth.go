package dto

import "kardex/internal/domain/auth"

// RegisterRequest creates a new owner account.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
	BranchID    int64  `json:"branchId"`
}

// ToInput converts the request to a service input.
func (r RegisterRequest) ToInput() auth.RegisterInput {
	return auth.RegisterInput{
		Email:       r.Email,
		Password:    r.Password,
		DisplayName: r.DisplayName,
		BranchID:    r.BranchID,
	}
}

// LoginRequest authenticates a user.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest exchanges a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// StaffRequest adds a staff user to the caller's account.
type StaffRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
}

// ToInput converts the request to a service input.
func (r StaffRequest) ToInput() auth.StaffInput {
	return auth.StaffInput{
		Email:       r.Email,
		Password:    r.Password,
		DisplayName: r.DisplayName,
	}
}

// LoginResponse carries tokens and the authenticated user.
type LoginResponse struct {
	Tokens *auth.TokenPair `json:"tokens"`
	User   *auth.User      `json:"user"`
}
