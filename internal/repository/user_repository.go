package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/iliyamo/event-ticketing/internal/utils"
)

// User mirrors the 'users' table.
type User struct {
    ID           uint64
    Email        string
    Handle       string
    PasswordHash string
    Role         string
    IsActive     bool
    CreatedAt    time.Time
    UpdatedAt    time.Time
}

// UserRepo provides the user-identity lookup consumed by the ticketing
// core and the credential storage behind the auth endpoints.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// ErrHandleExists is returned when a registration picks a handle that
// is already taken.
var ErrHandleExists = errors.New("handle already exists")

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, handle, password, role string, cost int) (uint64, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    handle = strings.TrimSpace(handle)
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO users (email, handle, password_hash, role) VALUES (?,?,?,?)",
        email, handle, hash, role)
    if err != nil {
        if isDuplicateEntry(err) {
            // Both columns carry UNIQUE constraints; the driver names
            // the violated key in the message.
            if strings.Contains(err.Error(), "handle") {
                return 0, ErrHandleExists
            }
            return 0, ErrEmailExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    var u User
    err := r.DB.QueryRowContext(ctx,
        "SELECT id,email,handle,password_hash,role,is_active,created_at,updated_at FROM users WHERE email=? LIMIT 1",
        email).Scan(&u.ID, &u.Email, &u.Handle, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
    return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
    var u User
    err := r.DB.QueryRowContext(ctx,
        "SELECT id,email,handle,password_hash,role,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
        id).Scan(&u.ID, &u.Email, &u.Handle, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
    return u, err
}

// ExistActive reports which of the given IDs belong to active users.
// Gift purchases validate every recipient before reserving inventory
// so a bad recipient list fails before any units are taken.
func (r *UserRepo) ExistActive(ctx context.Context, ids []uint64) (map[uint64]bool, error) {
    found := make(map[uint64]bool, len(ids))
    if len(ids) == 0 {
        return found, nil
    }
    placeholders := make([]string, 0, len(ids))
    args := make([]interface{}, 0, len(ids))
    for _, id := range ids {
        placeholders = append(placeholders, "?")
        args = append(args, id)
    }
    q := "SELECT id FROM users WHERE is_active = 1 AND id IN (" + strings.Join(placeholders, ",") + ")"
    rows, err := r.DB.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        found[id] = true
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return found, nil
}
