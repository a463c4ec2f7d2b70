package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/cory-johannsen/traveller/internal/game/campaign"
)

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

// User is a console login account.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

var (
	// ErrUserNotFound is returned when no account has the username.
	ErrUserNotFound = campaign.ErrUserNotFound
	// ErrUserExists is returned when the username is taken, ignoring case.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPasswordTooLong is returned for passwords over MaxPasswordBytes.
	ErrPasswordTooLong = fmt.Errorf("password longer than %d bytes", MaxPasswordBytes)
)

// UserRepository stores accounts with bcrypt password hashes. Usernames are
// unique and matched without regard to case.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a UserRepository backed by db.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts an account, keeping the username's case as typed.
//
// Postcondition: Returns the stored User, ErrUserExists if the name is taken
// in any case, or ErrPasswordTooLong.
func (r *UserRepository) Create(ctx context.Context, username, password string) (User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}

	var u User
	err = r.db.QueryRow(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2)
		 RETURNING id, username, password_hash, created_at`,
		username, hash,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if isDuplicateKeyError(err) {
		return User{}, ErrUserExists
	}
	if err != nil {
		return User{}, fmt.Errorf("inserting user %q: %w", username, err)
	}
	return u, nil
}

// Authenticate returns the account for username if password matches.
// An unknown username costs one bcrypt comparison like a known one.
//
// Postcondition: Returns the User, ErrUserNotFound or ErrInvalidCredentials.
func (r *UserRepository) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := r.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		_ = CheckPassword(password, decoyHash())
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	if !CheckPassword(password, u.PasswordHash) {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// GetByUsername looks an account up by name, ignoring case.
//
// Postcondition: Returns the User or ErrUserNotFound.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := r.db.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at
		 FROM users WHERE lower(username) = lower($1)`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if isNoRows(err) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("querying user %q: %w", username, err)
	}
	return u, nil
}

// HashPassword returns the bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var decoyHash = sync.OnceValue(func() string {
	h, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	return string(h)
})
