// Package repository implements the auth store interfaces on top of MySQL.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/zapgroups/admin-api/internal/auth"
	"github.com/zapgroups/admin-api/internal/model"
)

const mysqlErrDupEntry = 1062

// UserRepo persists accounts in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,name,email,password_hash,role,status,department,avatar_url,last_login_at,created_at,updated_at"

// Create inserts an account and returns the stored row.
func (r *UserRepo) Create(ctx context.Context, nu auth.NewUser) (model.User, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name,email,password_hash,role,status,department) VALUES (?,?,?,?,?,?)",
		nu.Name, nu.Email, nu.PasswordHash, nu.Role, nu.Status, nullable(nu.Department))
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlErrDupEntry {
			return model.User{}, auth.ErrDuplicateEmail
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.ByID(ctx, uint64(id))
}

// ByEmail fetches an account by email. The match is exact; casing is
// significant both at registration and at lookup.
func (r *UserRepo) ByEmail(ctx context.Context, email string) (model.User, error) {
	return r.one(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// ByID fetches an account by id.
func (r *UserRepo) ByID(ctx context.Context, id uint64) (model.User, error) {
	return r.one(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// TouchLastLogin stamps users.last_login_at with the current time.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET last_login_at=NOW() WHERE id=?", id)
	return err
}

func (r *UserRepo) one(ctx context.Context, query string, arg interface{}) (model.User, error) {
	var (
		u          model.User
		department sql.NullString
		avatarURL  sql.NullString
		lastLogin  sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Status,
		&department, &avatarURL, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, auth.ErrNotFound
		}
		return model.User{}, err
	}
	u.Department = department.String
	u.AvatarURL = avatarURL.String
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return u, nil
}

// nullable maps the empty string to SQL NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
