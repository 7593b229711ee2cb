package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/officepulse/officepulse/internal/cache"
	"github.com/officepulse/officepulse/internal/middleware"
	"github.com/officepulse/officepulse/internal/realtime"
	"github.com/officepulse/officepulse/internal/services"
)

var validate = validator.New()

type Router struct {
	store     Store
	hub       *realtime.Hub
	cache     *cache.TTL
	auth      *services.AuthService
	sessions  *services.SessionService
	responses *services.ResponseService
	analytics *services.AnalyticsService
}

func NewRouter(store Store, hub *realtime.Hub, c *cache.TTL) *Router {
	return &Router{
		store:     store,
		hub:       hub,
		cache:     c,
		auth:      services.NewAuthService(store, middleware.SignToken),
		sessions:  services.NewSessionService(store, c),
		responses: services.NewResponseService(store, c, hub),
		analytics: services.NewAnalyticsService(store, c),
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", rt.handleRegister) // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)       // POST
	mux.HandleFunc("/api/sessions", rt.handleSessions)      // GET, POST
	mux.HandleFunc("/api/sessions/", rt.handleSessionScoped)
	mux.HandleFunc("/api/join", rt.handleJoin)         // POST
	mux.HandleFunc("/api/answers", rt.handleAnswer)    // POST
	mux.HandleFunc("/api/complete", rt.handleComplete) // POST
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeServiceError(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorForbidden:
			status = http.StatusForbidden
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		}
		http.Error(w, se.Message, status)
		return
	}
	log.Printf("api: internal error: %v", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// decodeValid decodes a JSON body into dst and runs its validation tags.
func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return services.NewInvalidError(err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		return services.NewInvalidError(err.Error())
	}
	return nil
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// presenterID pulls the authenticated presenter from the request context,
// writing a 401 if absent.
func presenterID(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := middleware.PresenterIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return uid, true
}
