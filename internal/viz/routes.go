package viz

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"tailscale.com/tsweb"

	"github.com/mural-robotics/wallsweep/internal/db"
	"github.com/mural-robotics/wallsweep/internal/security"
)

// AttachAdminRoutes mounts trajectory rendering debug pages. These are
// reachable only over localhost/Tailscale, like the other /debug/
// routes.
func AttachAdminRoutes(mux *http.ServeMux, database *db.DB, resolution float64) {
	debug := tsweb.Debugger(mux)

	debug.Handle("trajectory-plot", "Render a stored trajectory as a PNG", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traj, ok := lookupTrajectory(w, r, database)
		if !ok {
			return
		}

		var buf bytes.Buffer
		if err := RenderPathPNG(traj.WorkArea(), traj.PathData, resolution, &buf); err != nil {
			http.Error(w, fmt.Sprintf("Failed to render plot: %v", err), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		// trajectory names are user input, sanitize before they reach a header
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("inline; filename=%q", fmt.Sprintf("trajectory-%d-%s.png", traj.ID, security.SanitizeFilename(traj.Name))))
		_, _ = w.Write(buf.Bytes())
	}))

	debug.Handle("trajectory-chart", "Interactive chart of a stored trajectory", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traj, ok := lookupTrajectory(w, r, database)
		if !ok {
			return
		}

		var buf bytes.Buffer
		if err := PathChartHTML(traj.WorkArea(), traj.PathData, resolution, &buf); err != nil {
			http.Error(w, fmt.Sprintf("Failed to render chart: %v", err), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	}))
}

// lookupTrajectory resolves the ?id= query parameter to a stored
// trajectory, writing the error response itself when it cannot.
func lookupTrajectory(w http.ResponseWriter, r *http.Request, database *db.DB) (*db.Trajectory, bool) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || id < 1 {
		http.Error(w, "Missing or invalid 'id' parameter", http.StatusBadRequest)
		return nil, false
	}

	traj, err := database.GetTrajectory(id)
	if errors.Is(err, db.ErrTrajectoryNotFound) {
		http.Error(w, "Trajectory not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to load trajectory: %v", err), http.StatusInternalServerError)
		return nil, false
	}
	return traj, true
}
