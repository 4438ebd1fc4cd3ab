// Package wallsweep holds the embedded web assets served by the
// planner binary.
package wallsweep

import "embed"

//go:embed static/*
var StaticFiles embed.FS
