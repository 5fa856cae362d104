package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ratixpay/ratixpay-backend/internal/database"
	"github.com/ratixpay/ratixpay-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsuarioIsAlreadyRegistered = errors.New("usuário já está registrado")
	ErrUsuarioIsNotExist          = errors.New("usuário não existe")
	ErrPasswordIsIncorrect        = errors.New("senha incorreta")
)

// AuthService registers and authenticates platform users.
type AuthService struct {
	storage AuthStorage
}

type AuthStorage interface {
	CreateUsuario(ctx context.Context, user database.UsuarioDB) error

	FindUsuario(ctx context.Context, login string) (*database.UsuarioDB, error)
}

func NewAuthService(storage AuthStorage) *AuthService {
	return &AuthService{storage: storage}
}

func (auth *AuthService) Register(ctx context.Context, cred models.Credentials, role models.Role) error {
	if err := validateCredentials(cred); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*cred.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = auth.storage.CreateUsuario(ctx, database.UsuarioDB{
		Usuario: models.Usuario{
			Login: *cred.Login,
			Hash:  string(hashedPassword),
			Role:  role,
		},
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicateUsuario) {
			return ErrUsuarioIsAlreadyRegistered
		}
		return fmt.Errorf("failed to create usuario: %w", err)
	}

	return nil
}

func (auth *AuthService) Login(ctx context.Context, cred models.Credentials) error {
	if err := validateCredentials(cred); err != nil {
		return err
	}

	usuario, err := auth.storage.FindUsuario(ctx, *cred.Login)
	if err != nil {
		return fmt.Errorf("failed to find usuario: %w", err)
	}

	if usuario == nil {
		return ErrUsuarioIsNotExist
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usuario.Hash), []byte(*cred.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordIsIncorrect
		}
		return fmt.Errorf("failed to compare passwords: %w", err)
	}

	return nil
}

func (auth *AuthService) GetUsuario(ctx context.Context, login string) (*models.Usuario, error) {
	usuario, err := auth.storage.FindUsuario(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to find usuario: %w", err)
	}

	if usuario == nil {
		return nil, ErrUsuarioIsNotExist
	}

	return &usuario.Usuario, nil
}

func validateCredentials(cred models.Credentials) error {
	if cred.Login == nil || *cred.Login == "" {
		return &ValidationError{Message: "login não pode ser vazio"}
	}
	if cred.Password == nil || *cred.Password == "" {
		return &ValidationError{Message: "senha não pode ser vazia"}
	}
	return nil
}
