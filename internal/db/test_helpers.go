package db

import (
	"os"
	"testing"

	"github.com/mural-robotics/wallsweep/internal/geom"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	fname := t.Name() + ".db"
	_ = os.Remove(fname)

	db, err := NewDB(fname)
	if err != nil {
		t.Fatalf("failed to create test DB: %v", err)
	}
	return db
}

func cleanupTestDB(t *testing.T, db *DB) {
	t.Helper()
	fname := t.Name() + ".db"
	db.Close()
	_ = os.Remove(fname)
	_ = os.Remove(fname + "-shm")
	_ = os.Remove(fname + "-wal")
}

// createTestTrajectory stores a small but fully populated trajectory
// and returns it with ID and CreatedAt filled in.
func createTestTrajectory(t *testing.T, db *DB, name string) *Trajectory {
	t.Helper()

	traj := &Trajectory{
		Name:       name,
		WallWidth:  5,
		WallHeight: 3,
		Obstacles: []geom.Obstacle{
			{X: 1, Y: 1, Width: 0.5, Height: 0.5},
		},
		PathData: geom.Path{
			{X: 0, Y: 0},
			{X: 0.05, Y: 0},
			{X: 0.1, Y: 0},
		},
		ExecutionTime: 0.042,
	}

	if err := db.CreateTrajectory(traj); err != nil {
		t.Fatalf("CreateTrajectory failed: %v", err)
	}
	return traj
}
