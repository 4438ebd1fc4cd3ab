package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mural-robotics/wallsweep/internal/geom"
)

// ErrTrajectoryNotFound is returned by lookups and deletes for ids with
// no stored row. Handlers map it to a 404.
var ErrTrajectoryNotFound = errors.New("trajectory not found")

// Trajectory is one stored planning result: the wall it was planned
// for, its obstacles, and the full coverage path.
type Trajectory struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	WallWidth     float64         `json:"wall_width"`
	WallHeight    float64         `json:"wall_height"`
	Obstacles     []geom.Obstacle `json:"obstacles"`
	PathData      geom.Path       `json:"path_data"`
	CreatedAt     time.Time       `json:"created_at"`
	ExecutionTime float64         `json:"execution_time"`
}

// WorkArea reassembles the planner input this trajectory was stored
// with.
func (t *Trajectory) WorkArea() geom.WorkArea {
	return geom.WorkArea{
		Width:     t.WallWidth,
		Height:    t.WallHeight,
		Obstacles: t.Obstacles,
	}
}

// TrajectorySummary is the list-view row: metadata without the
// obstacle and path payloads.
type TrajectorySummary struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	WallWidth     float64   `json:"wall_width"`
	WallHeight    float64   `json:"wall_height"`
	CreatedAt     time.Time `json:"created_at"`
	ExecutionTime float64   `json:"execution_time"`
}

// CreateTrajectory stores a new trajectory and fills in its assigned ID
// and creation time.
func (db *DB) CreateTrajectory(t *Trajectory) error {
	obstaclesJSON, err := marshalObstacles(t.Obstacles)
	if err != nil {
		return fmt.Errorf("failed to encode obstacles: %w", err)
	}
	pathJSON, err := marshalPath(t.PathData)
	if err != nil {
		return fmt.Errorf("failed to encode path: %w", err)
	}

	createdAt := time.Now().Unix()
	result, err := db.Exec(`
		INSERT INTO trajectories (
			name, wall_width, wall_height, obstacles, path_data,
			created_at, execution_time
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.WallWidth, t.WallHeight, obstaclesJSON, pathJSON,
		createdAt, t.ExecutionTime,
	)
	if err != nil {
		return fmt.Errorf("failed to create trajectory: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	t.ID = int(id)
	t.CreatedAt = time.Unix(createdAt, 0)
	return nil
}

// GetTrajectory retrieves a trajectory by ID, payloads included.
func (db *DB) GetTrajectory(id int) (*Trajectory, error) {
	var (
		t             Trajectory
		obstaclesJSON string
		pathJSON      string
		createdAtUnix int64
	)
	err := db.QueryRow(`
		SELECT id, name, wall_width, wall_height, obstacles, path_data,
		       created_at, execution_time
		FROM trajectories
		WHERE id = ?`, id,
	).Scan(
		&t.ID, &t.Name, &t.WallWidth, &t.WallHeight, &obstaclesJSON,
		&pathJSON, &createdAtUnix, &t.ExecutionTime,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTrajectoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trajectory: %w", err)
	}

	if err := json.Unmarshal([]byte(obstaclesJSON), &t.Obstacles); err != nil {
		return nil, fmt.Errorf("failed to decode obstacles for trajectory %d: %w", id, err)
	}
	if err := json.Unmarshal([]byte(pathJSON), &t.PathData); err != nil {
		return nil, fmt.Errorf("failed to decode path for trajectory %d: %w", id, err)
	}
	t.CreatedAt = time.Unix(createdAtUnix, 0)
	return &t, nil
}

// ListTrajectories returns summaries of all stored trajectories, newest
// first. The id tiebreak keeps the order stable for rows created within
// the same second.
func (db *DB) ListTrajectories() ([]TrajectorySummary, error) {
	rows, err := db.Query(`
		SELECT id, name, wall_width, wall_height, created_at, execution_time
		FROM trajectories
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trajectories: %w", err)
	}
	defer rows.Close()

	var summaries []TrajectorySummary
	for rows.Next() {
		var (
			s             TrajectorySummary
			createdAtUnix int64
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.WallWidth, &s.WallHeight,
			&createdAtUnix, &s.ExecutionTime); err != nil {
			return nil, fmt.Errorf("failed to scan trajectory row: %w", err)
		}
		s.CreatedAt = time.Unix(createdAtUnix, 0)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trajectory rows: %w", err)
	}
	return summaries, nil
}

// DeleteTrajectory removes a stored trajectory.
func (db *DB) DeleteTrajectory(id int) error {
	result, err := db.Exec("DELETE FROM trajectories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete trajectory: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrTrajectoryNotFound
	}
	return nil
}

// marshalObstacles and marshalPath normalize nil slices to the JSON
// empty array so stored payloads and API responses never read null.
func marshalObstacles(obstacles []geom.Obstacle) (string, error) {
	if obstacles == nil {
		obstacles = []geom.Obstacle{}
	}
	data, err := json.Marshal(obstacles)
	return string(data), err
}

func marshalPath(path geom.Path) (string, error) {
	if path == nil {
		path = geom.Path{}
	}
	data, err := json.Marshal(path)
	return string(data), err
}
