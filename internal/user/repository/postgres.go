package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/omnipos-sales-service/internal/database"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, u *model.User) error {
	q := database.Conn(ctx, r.DB)
	query, args, err := q.BindNamed(`
        INSERT INTO users (name, email, role, is_active, created_at)
        VALUES (:name, :email, :role, :is_active, :created_at)
        RETURNING id
    `, u)
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, q, &u.ID, query, args...)
}

func (r *PGRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, `SELECT id, name, email, role, is_active, created_at FROM users WHERE id = ?`, id)
}

func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, `SELECT id, name, email, role, is_active, created_at FROM users WHERE email = ?`, email)
}

func (r *PGRepository) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	q := database.Conn(ctx, r.DB)
	var u model.User
	if err := sqlx.GetContext(ctx, q, &u, q.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
