// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/hexmap/internal/adapters/config"
	_ "go.trai.ch/hexmap/internal/adapters/logger"
	_ "go.trai.ch/hexmap/internal/adapters/session"
	_ "go.trai.ch/hexmap/internal/adapters/sqlite"
	_ "go.trai.ch/hexmap/internal/adapters/telemetry"
	_ "go.trai.ch/hexmap/internal/adapters/viewstate"
	// Register app and engine nodes.
	_ "go.trai.ch/hexmap/internal/app"
	_ "go.trai.ch/hexmap/internal/engine/dragdrop"
	_ "go.trai.ch/hexmap/internal/engine/interaction"
	_ "go.trai.ch/hexmap/internal/engine/tilecache"
)
