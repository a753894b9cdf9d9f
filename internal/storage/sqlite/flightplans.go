package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yegors/skyplanner/internal/flightplan"
	"github.com/yegors/skyplanner/pkg/logger"
	_ "modernc.org/sqlite"
)

// FlightPlanStorage is a SQLite-based storage for flight plans
type FlightPlanStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewFlightPlanStorage creates a new SQLite-based flight plan storage
func NewFlightPlanStorage(dbPath string, log *logger.Logger) (*FlightPlanStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite storage",
		logger.String("path", dbPath))

	// Open the database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool limits
	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)

	// Set pragmas for better performance and concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Create tables if they don't exist
	if err := initDatabase(db, storageLogger); err != nil {
		db.Close()
		return nil, err
	}

	return &FlightPlanStorage{
		db:     db,
		logger: storageLogger,
	}, nil
}

// Close closes the database connection
func (s *FlightPlanStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// initDatabase initializes the database schema
func initDatabase(db *sql.DB, log *logger.Logger) error {
	log.Info("Initializing database schema")

	// Waypoints are stored as a JSON document: the editor always reads and
	// rewrites a plan wholesale, so there is nothing to gain from a row per
	// waypoint
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS flight_plans (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			platform TEXT,
			start_time TIMESTAMP,
			waypoints TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create flight_plans table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_flight_plans_updated_at
		ON flight_plans(updated_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to create flight_plans index: %w", err)
	}

	return nil
}

// SavePlan inserts or replaces a flight plan
func (s *FlightPlanStorage) SavePlan(fp *flightplan.FlightPath) error {
	waypointsJSON, err := json.Marshal(fp.Waypoints)
	if err != nil {
		return fmt.Errorf("failed to marshal waypoints: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO flight_plans (id, name, platform, start_time, waypoints, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			platform = excluded.platform,
			start_time = excluded.start_time,
			waypoints = excluded.waypoints,
			updated_at = excluded.updated_at
	`, fp.ID, fp.Name, fp.Platform, fp.StartTime.UTC().Format(time.RFC3339Nano),
		string(waypointsJSON), fp.CreatedAt.UTC().Format(time.RFC3339Nano),
		fp.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save flight plan %s: %w", fp.ID, err)
	}

	s.logger.Debug("Saved flight plan",
		logger.String("id", fp.ID),
		logger.String("name", fp.Name),
		logger.Int("waypoints", len(fp.Waypoints)))
	return nil
}

// GetPlan loads one flight plan by ID
func (s *FlightPlanStorage) GetPlan(id string) (*flightplan.FlightPath, error) {
	row := s.db.QueryRow(`
		SELECT id, name, platform, start_time, waypoints, created_at, updated_at
		FROM flight_plans WHERE id = ?
	`, id)

	fp, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, flightplan.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load flight plan %s: %w", id, err)
	}
	return fp, nil
}

// ListPlans returns all flight plans, most recently updated first
func (s *FlightPlanStorage) ListPlans() ([]*flightplan.FlightPath, error) {
	rows, err := s.db.Query(`
		SELECT id, name, platform, start_time, waypoints, created_at, updated_at
		FROM flight_plans ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query flight plans: %w", err)
	}
	defer rows.Close()

	var plans []*flightplan.FlightPath
	for rows.Next() {
		fp, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flight plan: %w", err)
		}
		plans = append(plans, fp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flight plans: %w", err)
	}
	return plans, nil
}

// DeletePlan removes a flight plan by ID
func (s *FlightPlanStorage) DeletePlan(id string) error {
	result, err := s.db.Exec("DELETE FROM flight_plans WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete flight plan %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return flightplan.ErrNotFound
	}

	s.logger.Debug("Deleted flight plan", logger.String("id", id))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*flightplan.FlightPath, error) {
	var fp flightplan.FlightPath
	var startTime, createdAt, updatedAt, waypointsJSON string

	if err := row.Scan(&fp.ID, &fp.Name, &fp.Platform, &startTime,
		&waypointsJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if fp.StartTime, err = time.Parse(time.RFC3339Nano, startTime); err != nil {
		return nil, fmt.Errorf("bad start_time %q: %w", startTime, err)
	}
	if fp.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	if fp.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("bad updated_at %q: %w", updatedAt, err)
	}
	if err := json.Unmarshal([]byte(waypointsJSON), &fp.Waypoints); err != nil {
		return nil, fmt.Errorf("bad waypoints document: %w", err)
	}
	return &fp, nil
}
