package user

import (
	"fmt"
)

type Service struct {
	repo Repository
}

type Repository interface {
	GetProfile(userID int64) (*Profile, error)
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) GetProfile(userID int64) (*Profile, error) {
	p, err := s.repo.GetProfile(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	return p, nil
}
