package handler

import (
	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

func toRegisterInput(req signupRequest, remoteIP string) ports.RegisterInput {
	var phones []domain.Phone
	if req.Phones != nil {
		phones = make([]domain.Phone, len(req.Phones))
		for i, p := range req.Phones {
			phones[i] = domain.Phone{Number: p.Number, AreaCode: p.AreaCode}
		}
	}
	return ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phones:   phones,
		RemoteIP: remoteIP,
	}
}

func toUserResponse(u *domain.User) userResponse {
	phones := make([]phoneResponse, len(u.Phones))
	for i, p := range u.Phones {
		phones[i] = phoneResponse{Number: p.Number, AreaCode: p.AreaCode}
	}
	return userResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Phones:       phones,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
		LastLoginAt:  u.LastLoginAt.UTC(),
		Token:        u.SessionToken,
	}
}

func toIdentityResponse(id *domain.Identity) identityResponse {
	return identityResponse{
		ID:        id.ID,
		Email:     id.Email,
		IssuedAt:  id.IssuedAt,
		ExpiresAt: id.ExpiresAt,
	}
}
