package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"github.com/officepulse/officepulse/internal/api"
	"github.com/officepulse/officepulse/internal/cache"
	dbstore "github.com/officepulse/officepulse/internal/db"
	"github.com/officepulse/officepulse/internal/middleware"
	"github.com/officepulse/officepulse/internal/realtime"
	"github.com/officepulse/officepulse/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	addr := utils.SafeEnv("PULSE_ADDR", ":8080")
	commit := os.Getenv("PULSE_COMMIT")
	buildTime := os.Getenv("PULSE_BUILD_TIME")

	store, err := openStore()
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	hub := realtime.NewHub()
	readCache := cache.New()

	mux := http.NewServeMux()
	api.NewRouter(store, hub, readCache).Register(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "OfficePulse API",
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	// Static dashboard assets when bundled into the image.
	if staticDir := os.Getenv("PULSE_STATIC_DIR"); staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}

	handler := middleware.SecureHeaders(middleware.CORS(middleware.NoStore(middleware.WithAuth(mux))))

	log.Printf("OfficePulse server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// openStore picks sqlite when PULSE_SQLITE_PATH is set, otherwise the
// in-memory store.
func openStore() (api.Store, error) {
	path := os.Getenv("PULSE_SQLITE_PATH")
	if path == "" {
		return api.NewMemoryStore(), nil
	}
	conn, err := sql.Open("sqlite3", "file:"+path+"?cache=shared&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		return nil, err
	}
	return dbstore.NewStore(conn)
}
