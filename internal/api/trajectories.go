package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mural-robotics/wallsweep/internal/db"
	"github.com/mural-robotics/wallsweep/internal/events"
	"github.com/mural-robotics/wallsweep/internal/geom"
	"github.com/mural-robotics/wallsweep/internal/httputil"
	"github.com/mural-robotics/wallsweep/internal/planner"
	"github.com/mural-robotics/wallsweep/internal/units"
)

// maxGridCells caps the occupancy grid a single planning request may
// allocate. Search cost grows with area / resolution², so without a cap
// one oversized wall ties up the server for an unbounded time. 4M cells
// is a 100m x 100m wall at the default 5 cm resolution, far beyond any
// real job.
const maxGridCells = 4_000_000

// TrajectoryRequest is the planning input posted by clients.
type TrajectoryRequest struct {
	Name       string          `json:"name"`
	WallWidth  float64         `json:"wall_width"`
	WallHeight float64         `json:"wall_height"`
	Obstacles  []geom.Obstacle `json:"obstacles"`
}

// handleTrajectories handles list and create operations.
func (s *Server) handleTrajectories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTrajectories(w, r)
	case http.MethodPost:
		s.createTrajectory(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

// handleTrajectoryByID routes get, delete, upload and stats operations
// for a specific trajectory. Paths look like /api/trajectories/5,
// /api/trajectories/5/upload or /api/trajectories/5/stats.
func (s *Server) handleTrajectoryByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/trajectories/")
	idPart, subresource, _ := strings.Cut(path, "/")

	id, err := strconv.Atoi(idPart)
	if err != nil || id < 1 {
		httputil.BadRequest(w, "invalid trajectory id")
		return
	}

	switch subresource {
	case "":
		switch r.Method {
		case http.MethodGet:
			s.getTrajectory(w, r, id)
		case http.MethodDelete:
			s.deleteTrajectory(w, r, id)
		default:
			httputil.MethodNotAllowed(w)
		}
	case "upload":
		if r.Method != http.MethodPost {
			httputil.MethodNotAllowed(w)
			return
		}
		s.uploadTrajectory(w, r, id)
	case "stats":
		if r.Method != http.MethodGet {
			httputil.MethodNotAllowed(w)
			return
		}
		s.trajectoryStats(w, r, id)
	default:
		httputil.NotFound(w, fmt.Sprintf("unknown trajectory resource %q", subresource))
	}
}

// createTrajectory validates the request, plans a coverage path, stores
// the result and announces it on the event bus. Planning time is
// measured through the injected clock and stored with the trajectory.
func (s *Server) createTrajectory(w http.ResponseWriter, r *http.Request) {
	var req TrajectoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		httputil.BadRequest(w, "name is required")
		return
	}

	area := geom.WorkArea{
		Width:     req.WallWidth,
		Height:    req.WallHeight,
		Obstacles: req.Obstacles,
	}
	if err := area.Validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	res := s.planner.Resolution()
	rows := int(area.Height / res)
	cols := int(area.Width / res)
	if rows*cols > maxGridCells {
		httputil.BadRequest(w, fmt.Sprintf("work area too large: %d grid cells exceeds limit of %d", rows*cols, maxGridCells))
		return
	}

	start := s.clock.Now()
	path := s.planner.Plan(area)
	elapsed := s.clock.Since(start).Seconds()

	traj := &db.Trajectory{
		Name:          req.Name,
		WallWidth:     req.WallWidth,
		WallHeight:    req.WallHeight,
		Obstacles:     req.Obstacles,
		PathData:      path,
		ExecutionTime: elapsed,
	}
	if err := s.db.CreateTrajectory(traj); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to store trajectory: %v", err))
		return
	}

	s.bus.Publish(events.Event{
		Type:           events.TypeTrajectoryCreated,
		TrajectoryID:   traj.ID,
		Name:           traj.Name,
		Points:         len(path),
		ElapsedSeconds: elapsed,
	})

	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"id":             traj.ID,
		"message":        "Trajectory created successfully",
		"path_points":    len(path),
		"execution_time": elapsed,
	})
}

// listTrajectories returns summaries of all stored trajectories, newest
// first. Payloads (obstacles, path) are omitted; fetch by id for those.
func (s *Server) listTrajectories(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.db.ListTrajectories()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list trajectories: %v", err))
		return
	}
	if summaries == nil {
		summaries = []db.TrajectorySummary{}
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"trajectories": summaries,
		"count":        len(summaries),
	})
}

func (s *Server) getTrajectory(w http.ResponseWriter, r *http.Request, id int) {
	traj, err := s.db.GetTrajectory(id)
	if errors.Is(err, db.ErrTrajectoryNotFound) {
		httputil.NotFound(w, "trajectory not found")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to get trajectory: %v", err))
		return
	}

	httputil.WriteJSONOK(w, traj)
}

func (s *Server) deleteTrajectory(w http.ResponseWriter, r *http.Request, id int) {
	err := s.db.DeleteTrajectory(id)
	if errors.Is(err, db.ErrTrajectoryNotFound) {
		httputil.NotFound(w, "trajectory not found")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to delete trajectory: %v", err))
		return
	}

	s.bus.Publish(events.Event{
		Type:         events.TypeTrajectoryDeleted,
		TrajectoryID: id,
	})

	httputil.WriteJSONOK(w, map[string]interface{}{
		"id":      id,
		"message": "Trajectory deleted successfully",
	})
}

// uploadTrajectory streams a stored path to the robot controller and
// announces the upload on the event bus.
func (s *Server) uploadTrajectory(w http.ResponseWriter, r *http.Request, id int) {
	traj, err := s.db.GetTrajectory(id)
	if errors.Is(err, db.ErrTrajectoryNotFound) {
		httputil.NotFound(w, "trajectory not found")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to get trajectory: %v", err))
		return
	}

	if err := s.link.UploadTrajectory(traj.PathData); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to upload trajectory: %v", err))
		return
	}

	s.bus.Publish(events.Event{
		Type:         events.TypeRobotUpload,
		TrajectoryID: traj.ID,
		Name:         traj.Name,
		Points:       len(traj.PathData),
	})

	httputil.WriteJSONOK(w, map[string]interface{}{
		"id":      traj.ID,
		"message": "Trajectory sent to robot",
		"points":  len(traj.PathData),
	})
}

// trajectoryStatsResponse wraps PathStats with identification and the
// display units its lengths were converted to.
type trajectoryStatsResponse struct {
	ID       int               `json:"id"`
	Name     string            `json:"name"`
	Units    string            `json:"units"`
	WallArea float64           `json:"wall_area"`
	Stats    planner.PathStats `json:"stats"`
}

// trajectoryStats recomputes path statistics for a stored trajectory
// and converts lengths to the server's display units.
func (s *Server) trajectoryStats(w http.ResponseWriter, r *http.Request, id int) {
	traj, err := s.db.GetTrajectory(id)
	if errors.Is(err, db.ErrTrajectoryNotFound) {
		httputil.NotFound(w, "trajectory not found")
		return
	}
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to get trajectory: %v", err))
		return
	}

	stats := s.planner.Stats(traj.WorkArea(), traj.PathData)

	httputil.WriteJSONOK(w, trajectoryStatsResponse{
		ID:       traj.ID,
		Name:     traj.Name,
		Units:    s.units,
		WallArea: units.ConvertArea(traj.WallWidth*traj.WallHeight, s.units),
		Stats:    convertPathStats(stats, s.units),
	})
}

// convertPathStats returns a copy of stats with every length field
// converted from meters to the target units. Counts and the coverage
// ratio are unit-free and pass through unchanged.
func convertPathStats(stats planner.PathStats, targetUnits string) planner.PathStats {
	stats.Length = units.ConvertLength(stats.Length, targetUnits)
	stats.MeanLane = units.ConvertLength(stats.MeanLane, targetUnits)
	stats.P50Lane = units.ConvertLength(stats.P50Lane, targetUnits)
	stats.P85Lane = units.ConvertLength(stats.P85Lane, targetUnits)
	return stats
}
