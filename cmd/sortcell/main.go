package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sortcell/sortcell/internal/actuator"
	"github.com/sortcell/sortcell/internal/api"
	"github.com/sortcell/sortcell/internal/config"
	"github.com/sortcell/sortcell/internal/events"
	"github.com/sortcell/sortcell/internal/monitoring"
	"github.com/sortcell/sortcell/internal/sorter"
	"github.com/sortcell/sortcell/internal/stabilize"
	"github.com/sortcell/sortcell/internal/version"
	"github.com/sortcell/sortcell/internal/vision"
)

var (
	devMode    = flag.Bool("dev", false, "Run without actuator hardware (simulated serial link)")
	listen     = flag.String("listen", ":8080", "Listen address")
	port       = flag.String("port", "/dev/ttyUSB0", "Actuator serial port (ignored in dev mode)")
	frames     = flag.String("frames", "./frames", "Directory the capture process writes frames into")
	configPath = flag.String("config", "", "Optional JSON tuning file")
	debug      = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()
	monitoring.SetDebug(*debug)
	log.Printf("sortcell %s starting", version.String())

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if *frames == "" {
		log.Fatal("Frames directory is required")
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		log.Printf("loaded tuning from %s", *configPath)
	}

	var link *actuator.Link
	if *devMode {
		link = actuator.NewSimulatedLink(
			actuator.WithEstimates(cfg.GetCircleDuration(), cfg.GetShapeDuration()))
		log.Print("running in dev mode, actuator is simulated")
	} else {
		if *port == "" {
			log.Fatal("Serial port is required")
		}
		p, err := actuator.OpenPort(*port, cfg.GetPortOptions())
		if err != nil {
			log.Fatalf("failed to open actuator port %s: %v", *port, err)
		}
		link = actuator.NewLink(p,
			actuator.WithEstimates(cfg.GetCircleDuration(), cfg.GetShapeDuration()))
		log.Printf("actuator connected on %s", *port)
	}
	defer link.Close()

	source := vision.NewFileSource(*frames, vision.Options{
		FrameWidth:  cfg.GetFrameWidth(),
		FrameHeight: cfg.GetFrameHeight(),
		BinaryLevel: cfg.GetBinaryLevel(),
	})

	stab := stabilize.New(cfg.GetStabilizerWindow(), cfg.GetStabilizerThreshold(), cfg.GetStabilizerCooldown())
	bus := events.NewBus()
	defer bus.Close()

	ctrl := sorter.New(sorter.Config{
		MinContourArea:    cfg.GetMinContourArea(),
		TickDelay:         cfg.GetTickDelay(),
		DetectionInterval: cfg.GetDetectionInterval(),
		AcquireBackoff:    cfg.GetAcquireBackoff(),
	}, source, link, stab, bus)

	// Wait group covers the serial monitor, the control loop, and the HTTP
	// server routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the actuator port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := link.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("actuator monitor failed: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// control loop goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ctrl.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("control loop failed: %v", err)
		}
		log.Print("control loop terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(ctrl, link, bus).ServeMux()

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Print("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Print("Graceful shutdown complete")
}
