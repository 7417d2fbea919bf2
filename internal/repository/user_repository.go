package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/sblogdev/sblog/internal/utils"
)

// User status values.  New self-registered accounts start DISABLED and must
// be enabled by an administrator before they can log in.
const (
    StatusActive   = "ACTIVE"
    StatusDisabled = "DISABLED"
)

// User mirrors the 'users' table.
type User struct {
    ID           uint64
    Username     string
    PasswordHash string
    Role         string
    Status       string
    CreatedAt    time.Time
    UpdatedAt    time.Time
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrUsernameExists = errors.New("username already exists")

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, username, password, role, status string, cost int) (uint64, error) {
    username = strings.TrimSpace(username)
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO users (username, password_hash, role, status) VALUES (?,?,?,?)",
        username, hash, role, status)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return 0, ErrUsernameExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (User, error) {
    username = strings.TrimSpace(username)
    var u User
    err := r.DB.QueryRowContext(ctx,
        "SELECT id,username,password_hash,role,status,created_at,updated_at FROM users WHERE username=? LIMIT 1",
        username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
    return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
    var u User
    err := r.DB.QueryRowContext(ctx,
        "SELECT id,username,password_hash,role,status,created_at,updated_at FROM users WHERE id=? LIMIT 1",
        id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
    return u, err
}

// ExistsByUsername reports whether a username is already taken.
func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
    username = strings.TrimSpace(username)
    var one int
    err := r.DB.QueryRowContext(ctx,
        "SELECT 1 FROM users WHERE username=? LIMIT 1", username).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// UpdatePassword replaces a user's password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return err
    }
    _, err = r.DB.ExecContext(ctx,
        "UPDATE users SET password_hash=? WHERE id=?", hash, id)
    return err
}
