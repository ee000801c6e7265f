package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"pmo-bot/models"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var ErrUsernameTaken = errors.New("store: username already exists")

const (
	defaultTranscriptLimit = 50
	maxTranscriptLimit     = 500
)

// Store persists what outlives a single turn: user accounts and the
// conversation transcript. Reminders and trainings are not stored here.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if err := migrateUp(dbPath); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrateUp(dbPath string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+dbPath)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	if err != nil {
		return err
	}
	if v, _, verr := m.Version(); verr == nil {
		log.Printf("[STORE] schema migrated to version %d", v)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// User operations

func (s *Store) CreateUser(username, displayName, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(displayName) == "" {
		displayName = username
	}
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.Exec(`
		INSERT INTO users (id, username, display_name, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.ID, user.Username, user.DisplayName, user.PasswordHash, user.CreatedAt)
	if isUniqueViolation(err) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	return s.scanUser(s.db.QueryRow(`
		SELECT id, username, display_name, password_hash, created_at
		FROM users WHERE username = ?
	`, username))
}

func (s *Store) GetUserByID(id string) (*models.User, error) {
	return s.scanUser(s.db.QueryRow(`
		SELECT id, username, display_name, password_hash, created_at
		FROM users WHERE id = ?
	`, id))
}

func (s *Store) GetAllUsers() ([]models.User, error) {
	rows, err := s.db.Query(`
		SELECT id, username, display_name, created_at
		FROM users ORDER BY display_name COLLATE NOCASE
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserDisplayName changes the name recorded on the user's future
// reminders and acknowledgments. Existing records keep the old name.
func (s *Store) UpdateUserDisplayName(userID, displayName string) error {
	res, err := s.db.Exec("UPDATE users SET display_name = ? WHERE id = ?", displayName, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.DisplayName, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Store) ValidatePassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	return err == nil
}

// Transcript operations

// AppendTranscript stores entries in order. ID and CreatedAt are filled in
// when empty.
func (s *Store) AppendTranscript(entries ...*models.TranscriptEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO transcript (id, conversation_id, direction, sender_id, sender_name, kind, content, attachment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		var attachment sql.NullString
		if len(e.Attachment) > 0 {
			attachment = sql.NullString{String: string(e.Attachment), Valid: true}
		}
		if _, err := stmt.Exec(e.ID, e.ConversationID, e.Direction, e.SenderID, e.SenderName,
			e.Kind, e.Content, attachment, e.CreatedAt); err != nil {
			return fmt.Errorf("append transcript %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// ConversationTranscript returns the most recent entries of a conversation,
// oldest first.
func (s *Store) ConversationTranscript(conversationID string, limit int) ([]models.TranscriptEntry, error) {
	if limit <= 0 {
		limit = defaultTranscriptLimit
	}
	if limit > maxTranscriptLimit {
		limit = maxTranscriptLimit
	}

	rows, err := s.db.Query(`
		SELECT id, conversation_id, direction, sender_id, sender_name, kind, content, attachment, created_at
		FROM transcript
		WHERE conversation_id = ?
		ORDER BY rowid DESC
		LIMIT ?
	`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.TranscriptEntry{}
	for rows.Next() {
		var e models.TranscriptEntry
		var attachment sql.NullString
		if err := rows.Scan(&e.ID, &e.ConversationID, &e.Direction, &e.SenderID, &e.SenderName,
			&e.Kind, &e.Content, &attachment, &e.CreatedAt); err != nil {
			return nil, err
		}
		if attachment.Valid {
			e.Attachment = []byte(attachment.String)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to get chronological order
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
