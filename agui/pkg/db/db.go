package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/agui-dev/agui-go/agui/pkg/constants"
)

// Server is a named ag-ui endpoint in the local registry.
type Server struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service provides registry operations
type Service struct {
	db *sql.DB
}

// NewService opens the registry database, creating it if needed. An empty
// path selects the per-user default location.
func NewService(dbPath string) (*Service, error) {
	if dbPath == "" {
		dbPath = constants.GetDatabasePath()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	service := &Service{db: db}

	if err := service.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return service, nil
}

// Close closes the database connection
func (s *Service) Close() error {
	return s.db.Close()
}

func (s *Service) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS servers (
			name TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			is_default BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_servers_is_default ON servers(is_default)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// AddServer registers a server. The first server added to an empty
// registry becomes the default.
func (s *Service) AddServer(server *Server) error {
	if strings.TrimSpace(server.Name) == "" {
		return fmt.Errorf("server name is required")
	}
	if strings.TrimSpace(server.URL) == "" {
		return fmt.Errorf("server URL is required")
	}

	count, err := s.getServerCount()
	if err != nil {
		return err
	}
	if count == 0 {
		server.IsDefault = true
	}

	now := time.Now()
	if server.CreatedAt.IsZero() {
		server.CreatedAt = now
	}
	if server.UpdatedAt.IsZero() {
		server.UpdatedAt = now
	}

	query := `INSERT INTO servers (name, url, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err = s.db.Exec(query,
		server.Name, server.URL, server.IsDefault,
		server.CreatedAt, server.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert server: %w", err)
	}

	return nil
}

// GetServer retrieves a server by name. A nil result means the name is
// not registered.
func (s *Service) GetServer(name string) (*Server, error) {
	query := `SELECT name, url, is_default, created_at, updated_at
		FROM servers WHERE name = ?`

	var server Server
	err := s.db.QueryRow(query, name).Scan(
		&server.Name, &server.URL, &server.IsDefault,
		&server.CreatedAt, &server.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get server: %w", err)
	}

	return &server, nil
}

// GetDefault returns the registered default server, or nil when the
// registry has none.
func (s *Service) GetDefault() (*Server, error) {
	query := `SELECT name, url, is_default, created_at, updated_at
		FROM servers WHERE is_default = 1`

	var server Server
	err := s.db.QueryRow(query).Scan(
		&server.Name, &server.URL, &server.IsDefault,
		&server.CreatedAt, &server.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get default server: %w", err)
	}

	return &server, nil
}

// SetDefault marks one registered server as the default.
func (s *Service) SetDefault(name string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE servers SET is_default = 0`); err != nil {
		return fmt.Errorf("failed to clear default flag: %w", err)
	}

	result, err := tx.Exec(
		`UPDATE servers SET is_default = 1, updated_at = ? WHERE name = ?`,
		time.Now(), name,
	)
	if err != nil {
		return fmt.Errorf("failed to set default server: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("server %s is not registered", name)
	}

	return tx.Commit()
}

// ListServers returns all registered servers, newest first.
func (s *Service) ListServers() ([]*Server, error) {
	query := `SELECT name, url, is_default, created_at, updated_at
		FROM servers ORDER BY created_at DESC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query servers: %w", err)
	}
	defer rows.Close()

	var servers []*Server
	for rows.Next() {
		var server Server
		err := rows.Scan(
			&server.Name, &server.URL, &server.IsDefault,
			&server.CreatedAt, &server.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan server: %w", err)
		}
		servers = append(servers, &server)
	}

	return servers, rows.Err()
}

// RemoveServer deletes a server by name.
func (s *Service) RemoveServer(name string) error {
	result, err := s.db.Exec(`DELETE FROM servers WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to remove server: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("server %s is not registered", name)
	}

	return nil
}

func (s *Service) getServerCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM servers`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count servers: %w", err)
	}
	return count, nil
}
