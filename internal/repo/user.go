package repo

import (
	"context"

	"github.com/good-deeds/board/internal/db"
	"github.com/good-deeds/board/internal/models"
)

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB db.DBTX
}

// ==========================
// Constructor
// ==========================
func NewUserRepo(dbtx db.DBTX) *UserRepo {
	return &UserRepo{DB: dbtx}
}

const userColumns = `id, username, password_hash, COALESCE(city, ''), lat, lng, created_at`

// ==========================
// Create User
// ==========================
func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (username, password_hash, city, lat, lng)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.DB.QueryRowContext(ctx, query, u.Username, u.PasswordHash, u.City, u.Lat, u.Lng).
		Scan(&u.ID, &u.CreatedAt)

	return dbErr("create user", err)
}

// ==========================
// Get By ID
// ==========================
func (r *UserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbErr("get user", err)
	}
	return u, nil
}

// ==========================
// Get By Username
// ==========================
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	u, err := scanUser(r.DB.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, dbErr("get user by username", err)
	}
	return u, nil
}

// ==========================
// Update Location
// ==========================
func (r *UserRepo) UpdateLocation(ctx context.Context, id int, city string, lat, lng float64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET city = $1, lat = $2, lng = $3 WHERE id = $4`,
		city, lat, lng, id,
	)
	if err != nil {
		return dbErr("update user location", err)
	}
	return requireRow("update user location", res)
}

// ==========================
// Search Users
// ==========================
func (r *UserRepo) Search(ctx context.Context, q string) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username ILIKE $1 ORDER BY id`,
		containsPattern(q),
	)
	if err != nil {
		return nil, dbErr("search users", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, dbErr("search users", err)
		}
		users = append(users, *u)
	}
	return users, dbErr("search users", rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.City, &u.Lat, &u.Lng, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}
