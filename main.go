// The pathtime server exposes time-optimal trajectory retiming over HTTP
// and persists runs to SQLite.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/waypoint-robotics/pathtime/api"
	"github.com/waypoint-robotics/pathtime/db"
	"github.com/waypoint-robotics/pathtime/internal/config"
)

var (
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	dbFile     = flag.String("db", "", "SQLite database path (overrides config db_path, which defaults to pathtime.db)")
	configFile = flag.String("config", "", "Tuning config JSON file (defaults to built-ins)")
	noStore    = flag.Bool("no-store", false, "Disable run persistence")
)

func main() {
	flag.Parse()

	cfg := config.DefaultTuningConfig()
	if *configFile != "" {
		loaded, err := config.LoadTuningConfig(*configFile)
		if err != nil {
			log.Fatalf("[server] failed to load config: %v", err)
		}
		cfg = loaded
	}

	addr := cfg.GetListen()
	if *listen != "" {
		addr = *listen
	}
	dbPath := cfg.GetDBPath()
	if *dbFile != "" {
		dbPath = *dbFile
	}

	var store *db.DB
	if !*noStore && dbPath != "" {
		var err error
		store, err = db.NewDB(dbPath)
		if err != nil {
			log.Fatalf("[server] failed to open database %s: %v", dbPath, err)
		}
		defer store.Close()
		log.Printf("[server] persisting runs to %s", dbPath)
	} else {
		log.Printf("[server] run persistence disabled")
	}

	server := &http.Server{
		Addr:    addr,
		Handler: api.NewServer(store, cfg).ServeMux(),
	}

	go func() {
		log.Printf("[server] listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[server] listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("[server] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[server] shutdown: %v", err)
	}
}
