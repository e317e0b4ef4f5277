package models

import (
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrUserNotFound is returned by user lookups when no row matches.
var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type Session struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	UserAgent    string    `json:"user_agent"`
	ClientIP     string    `json:"client_ip"`
	IsBlocked    bool      `json:"is_blocked"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// HashPassword hashes and stores the user's password using bcrypt.
func (u *User) HashPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// CheckPassword compares a given password with the stored bcrypt hash.
func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

// CreateUser inserts a new user and sets its ID.
func (u *User) CreateUser(db *sql.DB) error {
	res, err := db.Exec(
		`INSERT INTO users (username, email, password) VALUES (?, ?, ?)`,
		u.Username, u.Email, u.Password)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

// GetUserByUsername retrieves a user by username.
func GetUserByUsername(db *sql.DB, username string) (*User, error) {
	row := db.QueryRow(
		`SELECT id, username, email, password FROM users WHERE username = ?`, username)
	var user User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by primary key.
func GetUserByID(db *sql.DB, id int64) (*User, error) {
	row := db.QueryRow(
		`SELECT id, username, email, password FROM users WHERE id = ?`, id)
	var user User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateSession inserts a new session row.
func CreateSession(db *sql.DB, session *Session) error {
	res, err := db.Exec(
		`INSERT INTO sessions (user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.UserID, session.Token, session.RefreshToken, session.UserAgent,
		session.ClientIP, session.IsBlocked, session.ExpiresAt, time.Now().UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	session.ID = id
	return nil
}

// GetSessionByToken looks up a session by its access token.
func GetSessionByToken(db *sql.DB, token string) (*Session, error) {
	row := db.QueryRow(
		`SELECT id, user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at
		 FROM sessions WHERE token = ?`, token)
	var s Session
	if err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.RefreshToken,
		&s.UserAgent, &s.ClientIP, &s.IsBlocked, &s.ExpiresAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSessionByRefreshToken looks up a session by its refresh token.
func GetSessionByRefreshToken(db *sql.DB, refreshToken string) (*Session, error) {
	row := db.QueryRow(
		`SELECT id, user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at
		 FROM sessions WHERE refresh_token = ?`, refreshToken)
	var s Session
	if err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.RefreshToken,
		&s.UserAgent, &s.ClientIP, &s.IsBlocked, &s.ExpiresAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSessionToken replaces the access token on an existing session.
func UpdateSessionToken(db *sql.DB, sessionID int64, token string) error {
	_, err := db.Exec(`UPDATE sessions SET token = ? WHERE id = ?`, token, sessionID)
	return err
}

// DeleteSessionByToken removes the session holding the given access token.
func DeleteSessionByToken(db *sql.DB, token string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}
