package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ratixpay/ratixpay-backend/internal/models"
)

var (
	ErrDuplicateUsuario = errors.New("usuario already exists")
)

const (
	InsertUsuarioQuery = `
        INSERT INTO
            usuarios (login, hash, role, nome, email, telefone)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	SelectUsuarioByLoginQuery = `
        SELECT
            id,
            login,
            hash,
            role,
            nome,
            email,
            telefone
        FROM
            usuarios
        WHERE
            login = $1
    `
	SelectUsuariosByIDsQuery = `
        SELECT
            id,
            login,
            hash,
            role,
            nome,
            email,
            telefone
        FROM
            usuarios
        WHERE
            id = ANY ($1)
    `
)

type UsuarioDB struct {
	models.Usuario
}

// CreateUsuario inserts a new account row.
func (d *Database) CreateUsuario(ctx context.Context, user UsuarioDB) error {
	_, err := d.db.Exec(ctx, InsertUsuarioQuery,
		user.Login, user.Hash, user.Role, user.Nome, user.Email, user.Telefone)
	if err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateUsuario
		}
		return fmt.Errorf("failed to create usuario: %w", err)
	}
	return nil
}

// FindUsuario looks an account up by login. Absence is (nil, nil).
func (d *Database) FindUsuario(ctx context.Context, login string) (*UsuarioDB, error) {
	user := &UsuarioDB{}

	err := d.db.QueryRow(ctx, SelectUsuarioByLoginQuery, login).
		Scan(&user.ID, &user.Login, &user.Hash, &user.Role, &user.Nome, &user.Email, &user.Telefone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find usuario: %w", err)
	}
	return user, nil
}

// FindUsuariosByIDs fetches a batch of accounts, used to enrich saque
// listings with vendor data.
func (d *Database) FindUsuariosByIDs(ctx context.Context, ids []string) (map[string]UsuarioDB, error) {
	result := make(map[string]UsuarioDB, len(ids))

	if len(ids) == 0 {
		return result, nil
	}

	rows, err := d.db.Query(ctx, SelectUsuariosByIDsQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find usuarios: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var user UsuarioDB
		if err := rows.Scan(&user.ID, &user.Login, &user.Hash, &user.Role, &user.Nome, &user.Email, &user.Telefone); err != nil {
			return nil, fmt.Errorf("failed to scan usuario row: %w", err)
		}
		result[user.ID] = user
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usuario rows: %w", err)
	}

	return result, nil
}
