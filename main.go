package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	auth "Layup/internal/auth"
	batch "Layup/internal/calc/batch"
	chart "Layup/internal/calc/chart"
	importer "Layup/internal/calc/importer"
	lamina "Layup/internal/calc/lamina"
	laminate "Layup/internal/calc/laminate"
	micromech "Layup/internal/calc/micromech"
	report "Layup/internal/calc/report"
	sweep "Layup/internal/calc/sweep"
	materials "Layup/internal/materials"
	profile "Layup/internal/profile"
	repo "Layup/internal/repo"
)

var wg sync.WaitGroup

type config struct {
	Addr         string
	TokenKey     string
	DatabaseURL  string
	TLSCert      string
	TLSKey       string
	RateRPS      float64
	RateBurst    int
	SweepWorkers int
}

// loadConfig reads .env when present, then the environment.
func loadConfig() (config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := config{
		Addr:         getenv("LAYUP_ADDR", ":8443"),
		TokenKey:     os.Getenv("TOKEN_KEY"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		TLSCert:      os.Getenv("TLS_CERT"),
		TLSKey:       os.Getenv("TLS_KEY"),
		RateRPS:      5,
		RateBurst:    10,
		SweepWorkers: runtime.GOMAXPROCS(0),
	}
	if cfg.TokenKey == "" {
		return config{}, errors.New("TOKEN_KEY environment variable is not set")
	}
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return config{}, errors.New("TLS_CERT and TLS_KEY must be set together")
	}
	var err error
	if cfg.RateRPS, err = envFloat("RATE_LIMIT_RPS", cfg.RateRPS); err != nil {
		return config{}, err
	}
	if cfg.RateBurst, err = envInt("RATE_LIMIT_BURST", cfg.RateBurst); err != nil {
		return config{}, err
	}
	if cfg.SweepWorkers, err = envInt("SWEEP_WORKERS", cfg.SweepWorkers); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s: want a positive number, got %q", key, s)
	}
	return v, nil
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s: want a positive integer, got %q", key, s)
	}
	return v, nil
}

func CORS(mux *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

// deps are the stores the routes need.
type deps struct {
	users     repo.Repository
	materials repo.MaterialRepository
	table     *materials.Table
}

func HandleList(mux *mux.Router, cfg config, d deps) {
	authEnv := &auth.Authenv{JWTkey: []byte(cfg.TokenKey), Repo: d.users, Secure: cfg.TLSCert != ""}
	profileH := &profile.ProfileHandler{Repo: d.users, Materials: d.materials}
	materialsH := &materials.Handler{Table: d.table}

	limiter := auth.NewIPRateLimiter(rate.Limit(cfg.RateRPS), cfg.RateBurst)

	api := mux.PathPrefix("/api").Subrouter()
	api.Use(limiter.LimitMiddleware)

	api.HandleFunc("/login", authEnv.AuthHandler).Methods("POST")
	api.HandleFunc("/register", authEnv.RegisterHandler).Methods("POST")
	api.HandleFunc("/materials", materialsH.List).Methods("GET")
	api.HandleFunc("/materials/{name:.+}", materialsH.Get).Methods("GET")

	secureApi := api.PathPrefix("/user").Subrouter()
	secureApi.Use(authEnv.AuthMiddleware)

	secureApi.HandleFunc("/profile", profileH.GetProfile).Methods("GET")
	secureApi.HandleFunc("/materials", materialsH.Create).Methods("POST")

	var presets lamina.Presets = d.table
	runner := sweep.Runner{Workers: cfg.SweepWorkers}

	micromechH := &micromech.Handler{}
	laminaH := &lamina.Handler{Presets: presets}
	laminateH := &laminate.Handler{Presets: presets}
	sweepH := &sweep.Handler{Presets: presets, Runner: runner}
	chartH := &chart.Handler{Presets: presets, Runner: runner}
	reportH := &report.Handler{Presets: presets}
	batchH := &batch.Handler{Presets: presets}
	importH := &importer.Handler{Presets: presets}

	secureApi.HandleFunc("/tools/micromechanics/calc", micromechH.Calc).Methods("POST")
	secureApi.HandleFunc("/tools/lamina/calc", laminaH.Calc).Methods("POST")
	secureApi.HandleFunc("/tools/laminate/calc", laminateH.Calc).Methods("POST")
	secureApi.HandleFunc("/tools/laminate/solve", laminateH.Solve).Methods("POST")
	secureApi.HandleFunc("/tools/laminate/stress", laminateH.Stress).Methods("POST")
	secureApi.HandleFunc("/tools/sweep/rotation", sweepH.Rotation).Methods("POST")
	secureApi.HandleFunc("/tools/sweep/ply", sweepH.Ply).Methods("POST")
	secureApi.HandleFunc("/tools/sweep/rotation.png", chartH.Rotation).Methods("POST")
	secureApi.HandleFunc("/tools/laminate/profile.png", chartH.Profile).Methods("POST")
	secureApi.HandleFunc("/tools/report/pdf", reportH.Generate).Methods("POST")
	secureApi.HandleFunc("/tools/batch/calc", batchH.Calc).Methods("POST")
	secureApi.HandleFunc("/tools/batch/import", importH.Import).Methods("POST")
	secureApi.HandleFunc("/tools/batch/export", importH.Export).Methods("POST")
}

// openStores connects to Postgres when a DSN is configured, otherwise keeps
// everything in memory. The returned db is nil in the in-memory case.
func openStores(ctx context.Context, cfg config) (*sql.DB, deps, error) {
	if cfg.DatabaseURL == "" {
		mem := repo.NewMemory()
		return nil, deps{users: mem, materials: mem, table: materials.New(mem)}, nil
	}
	db, err := repo.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, deps{}, err
	}
	mats := repo.NewPostgresMaterialDB(db)
	return db, deps{users: repo.NewPostgresUserDB(db), materials: mats, table: materials.New(mats)}, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, d, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal("Database error: ", err)
	}
	if db != nil {
		defer db.Close()
		loaded, rejected, err := d.table.Load(ctx)
		if err != nil {
			log.Fatal("Loading materials: ", err)
		}
		log.Printf("Materials: built-in presets plus %d from database (%d rejected)", loaded, rejected)
	} else {
		log.Println("Materials: built-in presets, no DATABASE_URL set; users and materials kept in memory")
	}

	mux := mux.NewRouter()
	HandleList(mux, cfg, d)
	handler := CORS(mux)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Println("Starting server on", cfg.Addr)
	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		if cfg.TLSCert != "" {
			err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Println("Shutdown signal received, closing active connections")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")

	wg.Wait()
}
