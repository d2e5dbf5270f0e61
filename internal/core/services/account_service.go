package services

import (
	"context"
	"fmt"

	"github.com/ginaqueenval/alina-mvp/internal/core/domain"
	"github.com/ginaqueenval/alina-mvp/internal/core/ports"
)

// AccountService porte l'authentification (Application Business Rules).
type AccountService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenProvider
}

func NewAccountService(repo ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenProvider) *AccountService {
	return &AccountService{repo: repo, hasher: hasher, tokens: tokens}
}

func (s *AccountService) Register(ctx context.Context, cmd ports.RegisterCmd) (*ports.AuthResponse, error) {
	// Fail fast sur l'unicité. Vérification "soft" : la contrainte UNIQUE
	// de la DB reste la sécurité ultime contre la race.
	if existing, err := s.repo.GetByEmail(ctx, cmd.Email); err == nil && existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := domain.NewUser(cmd.Email, cmd.Username, hash, cmd.DisplayName)
	if err != nil {
		return nil, err
	}
	if cmd.IsCreator {
		user.BecomeCreator()
	}

	if err := s.repo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("repository save failed: %w", err)
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		// User créé mais token échoué : le client devra passer par Login.
		return nil, fmt.Errorf("token generation failed: %w", err)
	}

	return &ports.AuthResponse{User: user, AccessToken: token}, nil
}

func (s *AccountService) Login(ctx context.Context, cmd ports.LoginCmd) (*ports.AuthResponse, error) {
	user, err := s.repo.GetByEmail(ctx, cmd.Email)
	if err != nil {
		// Réponse générique : on ne révèle pas si c'est l'email ou le mdp.
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, cmd.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("login token gen failed: %w", err)
	}

	return &ports.AuthResponse{User: user, AccessToken: token}, nil
}

func (s *AccountService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *AccountService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *AccountService) ResolveSession(ctx context.Context, token string) (*domain.Session, error) {
	return s.tokens.Validate(token)
}
