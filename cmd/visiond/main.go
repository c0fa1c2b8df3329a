// Command visiond is the multi-camera capture-and-fusion process
// supervisor: it loads configuration, opens one camera device and
// capture worker per configured camera, opens the audit log, and serves
// the HTTP control and debug surface until signalled to stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/visionfusion/internal/audit"
	"github.com/banshee-data/visionfusion/internal/camera"
	"github.com/banshee-data/visionfusion/internal/capture"
	"github.com/banshee-data/visionfusion/internal/config"
	"github.com/banshee-data/visionfusion/internal/httpapi"
	"github.com/banshee-data/visionfusion/internal/state"
	"github.com/banshee-data/visionfusion/internal/version"
)

var (
	configFile   = flag.String("config", config.DefaultConfigPath, "path to JSON configuration file")
	versionFlag  = flag.Bool("version", false, "print version information and exit")
	versionShort = flag.Bool("v", false, "print version information and exit (shorthand)")
)

const settlingTraceCapacity = 256

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(os.Stdout)

	if *versionFlag || *versionShort {
		fmt.Printf("visiond v%s (git SHA: %s)\n", version.Version, version.GitSHA)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config from %s: %v", *configFile, err)
	}
	log.Printf("visiond v%s (git SHA: %s), loaded config from %s", version.Version, version.GitSHA, *configFile)

	auditLogger, err := audit.Open(cfg.GetAuditDBPath())
	if err != nil {
		log.Fatalf("failed to open audit log at %s: %v", cfg.GetAuditDBPath(), err)
	}
	defer auditLogger.Close()

	cameras := make(map[string]state.CameraConfig, len(cfg.Camera))
	for id, spec := range cfg.Camera {
		cameras[id] = state.CameraConfig{Width: spec.GetWidth(), Height: spec.GetHeight()}
	}
	store := state.NewSharedState("/", cfg.GetIPv4(), cfg.GetPort(), cameras)

	devices := make(map[string]camera.Device, len(cameras))
	traces := make(map[string]*capture.SettlingTrace, len(cameras))
	cameraIDs := make([]string, 0, len(cameras))
	for id, c := range cameras {
		cameraIDs = append(cameraIDs, id)
		dev, err := camera.Open(id, c.Width, c.Height)
		if err != nil {
			log.Fatalf("failed to open camera %s: %v", id, err)
		}
		devices[id] = dev
		traces[id] = capture.NewSettlingTrace(settlingTraceCapacity)
	}

	hasFused := func(id string) bool {
		_, ok, err := store.FusedResult(id)
		return err == nil && ok
	}
	store.OnTransition(auditLogger.Listener(hasFused))

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for id, dev := range devices {
		worker := capture.New(capture.Config{
			ID:     id,
			Device: dev,
			Store:  store,
			Trace:  traces[id],
		})
		wg.Add(1)
		go func(id string, w *capture.Worker) {
			defer wg.Done()
			w.Run(ctx)
			log.Printf("capture worker %s terminated", id)
		}(id, worker)
	}

	server := httpapi.New(httpapi.Config{
		Store:     store,
		Audit:     auditLogger,
		Addr:      fmt.Sprintf("%s:%d", cfg.GetIPv4(), cfg.GetPort()),
		Traces:    traces,
		CameraIDs: cameraIDs,
	})

	serverErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		serverErr <- server.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutdown signal received, draining capture workers")
	case err := <-serverErr:
		if err != nil {
			stop()
			wg.Wait()
			log.Fatalf("httpapi server failed to start: %v", err)
		}
	}

	if err := store.SetRunning(false); err != nil {
		log.Printf("failed to clear is_running: %v", err)
	}

	wg.Wait()
	log.Printf("graceful shutdown complete")
}
