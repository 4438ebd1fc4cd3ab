package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/mural-robotics/wallsweep"
	"github.com/mural-robotics/wallsweep/internal/api"
	"github.com/mural-robotics/wallsweep/internal/config"
	"github.com/mural-robotics/wallsweep/internal/db"
	"github.com/mural-robotics/wallsweep/internal/events"
	"github.com/mural-robotics/wallsweep/internal/httputil"
	"github.com/mural-robotics/wallsweep/internal/planner"
	"github.com/mural-robotics/wallsweep/internal/robotlink"
	"github.com/mural-robotics/wallsweep/internal/timeutil"
	"github.com/mural-robotics/wallsweep/internal/units"
	"github.com/mural-robotics/wallsweep/internal/viz"
)

var (
	devMode       = flag.Bool("dev", false, "Run in dev mode (mock robot link, static files from ./static)")
	listen        = flag.String("listen", ":8080", "Listen address")
	dbFile        = flag.String("db", "wallsweep.db", "Path to the sqlite database")
	unitsFlag     = flag.String("units", "", "Units for reported lengths and areas (overrides config)")
	configPath    = flag.String("config", "", "Path to a JSON config file")
	robotPort     = flag.String("robot-port", "/dev/ttyUSB0", "Serial port for the robot controller (ignored in dev mode)")
	robotDisabled = flag.Bool("robot-disabled", false, "Run without a robot link")
	webhookURL    = flag.String("webhook", "", "URL to POST planner events to (overrides config)")
	logFile       = flag.String("logfile", "", "Also append logs to this file")
)

// devMockLine is the telemetry line the mock robot link replays in dev
// mode, standing in for an idle controller.
const devMockLine = "POS 0.00 0.00\n"

// setFlagsFromEnv fills flags the user did not pass on the command line
// from WALLSWEEP_* environment variables, so a .env file can carry
// deployment defaults.
func setFlagsFromEnv(fs *flag.FlagSet) error {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var envErr error
	fs.VisitAll(func(f *flag.Flag) {
		if set[f.Name] {
			return
		}
		name := "WALLSWEEP_" + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		value, ok := os.LookupEnv(name)
		if !ok {
			return
		}
		if err := fs.Set(f.Name, value); err != nil && envErr == nil {
			envErr = fmt.Errorf("invalid %s=%q: %v", name, value, err)
		}
	})
	return envErr
}

func main() {
	// .env carries deployment defaults; a missing file is fine
	if err := godotenv.Load(); err == nil {
		log.Printf("loaded environment from .env")
	}

	flag.Parse()
	if err := setFlagsFromEnv(flag.CommandLine); err != nil {
		log.Fatalf("failed to apply environment flags: %v", err)
	}

	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("failed to open log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	// `wallsweep migrate <action>` manages the schema and exits
	if flag.Arg(0) == "migrate" {
		db.RunMigrateCommand(flag.Args()[1:], *dbFile)
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if *dbFile == "" {
		log.Fatal("Database path is required")
	}

	cfg := config.DefaultSweepConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadSweepConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	reportUnits := cfg.GetUnits()
	if *unitsFlag != "" {
		reportUnits = *unitsFlag
	}
	if !units.IsValid(reportUnits) {
		log.Fatalf("invalid units %q: valid units are %s", reportUnits, units.GetValidUnitsString())
	}

	webhook := cfg.GetWebhookURL()
	if *webhookURL != "" {
		webhook = *webhookURL
	}

	var link robotlink.LinkInterface
	switch {
	case *robotDisabled:
		link = robotlink.NewDisabledLink()
	case *devMode:
		link = robotlink.NewMockLink([]byte(devMockLine))
	default:
		if *robotPort == "" {
			log.Fatal("Robot port is required")
		}
		var err error
		link, err = robotlink.NewRealLink(*robotPort, cfg.GetRobotOptions())
		if err != nil {
			log.Fatalf("failed to open robot port: %v", err)
		}
	}
	defer link.Close()

	if err := link.Initialize(); err != nil {
		log.Fatalf("failed to initialize robot link: %v", err)
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	bus := events.NewBus()
	defer bus.Close()

	// Create a wait group for the HTTP server, link monitor, telemetry and
	// notifier routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the robot link, re-entering
	// the read loop after transient failures
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			if err := link.Monitor(ctx); err != nil && err != context.Canceled {
				log.Printf("failed to monitor robot link: %v", err)
			}
			select {
			case <-ctx.Done():
				log.Print("monitor routine terminated")
				return
			case <-time.After(cfg.GetReconnectInterval()):
			}
		}
	}()

	// subscribe to robot link lines and pass them to the telemetry handlers
	wg.Add(1)
	go func() {
		defer wg.Done()
		id, c := link.Subscribe()
		defer link.Unsubscribe(id)
		for {
			select {
			case line := <-c:
				if err := robotlink.HandleLine(bus, line); err != nil {
					log.Printf("error handling robot line: %v", err)
				}
			case <-ctx.Done():
				log.Printf("telemetry routine terminated")
				return
			}
		}
	}()

	// forward planner events to the webhook when one is configured
	if webhook != "" {
		notifier := events.NewWebhookNotifier(webhook, httputil.NewStandardClient(&http.Client{Timeout: 10 * time.Second}))
		wg.Add(1)
		go func() {
			defer wg.Done()
			notifier.Run(ctx, bus)
			log.Printf("webhook routine terminated")
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		p := planner.New(cfg.GetResolution())
		mux := api.NewServer(database, p, bus, link, reportUnits, timeutil.RealClock{}).ServeMux()

		link.AttachAdminRoutes(mux)
		database.AttachAdminRoutes(mux)
		bus.AttachAdminRoutes(mux)
		viz.AttachAdminRoutes(mux, database, p.Resolution())

		// read static files from the embedded filesystem in production or
		// from the local ./static in dev for easier iteration without
		// restarting the server
		var staticHandler http.Handler
		if *devMode {
			staticHandler = http.FileServer(http.Dir("./static"))
		} else {
			staticFS, err := fs.Sub(wallsweep.StaticFiles, "static")
			if err != nil {
				log.Fatalf("failed to load embedded static files: %v", err)
			}
			staticHandler = http.FileServer(http.FS(staticFS))
		}
		mux.Handle("/", staticHandler)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		// Create a shutdown context with a shorter timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			// Force close the server if graceful shutdown fails
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
