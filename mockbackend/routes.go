package mockbackend

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter wires every endpoint of c behind CORS and fault injection
func NewRouter(c *Controller) http.Handler {
	r := mux.NewRouter()
	r.Use(c.RequestLogger, c.InjectFaults)

	r.HandleFunc("/healthz", c.Health).Methods(http.MethodGet)
	RegisterAuthRoutes(r, c)
	RegisterDiscoveryRoutes(r, c)
	RegisterMatchRoutes(r, c)
	RegisterPreferenceRoutes(r, c)

	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(r)
}

// RegisterAuthRoutes sets up the token endpoint
func RegisterAuthRoutes(r *mux.Router, c *Controller) {
	r.HandleFunc("/token", c.Login).Methods(http.MethodPost)
}

// RegisterDiscoveryRoutes sets up suggestions, swiping, blocking and reporting
func RegisterDiscoveryRoutes(r *mux.Router, c *Controller) {
	r.Handle("/suggestions", c.RequireAuth(http.HandlerFunc(c.GetSuggestions))).Methods(http.MethodGet)
	r.Handle("/swipe/{swipeeId}", c.RequireAuth(http.HandlerFunc(c.Swipe))).Methods(http.MethodPost)
	r.Handle("/block_user", c.RequireAuth(http.HandlerFunc(c.BlockUser))).Methods(http.MethodPost)
	r.Handle("/report_user", c.RequireAuth(http.HandlerFunc(c.ReportUser))).Methods(http.MethodPost)
}

// RegisterPreferenceRoutes sets up the discovery filter endpoint
func RegisterPreferenceRoutes(r *mux.Router, c *Controller) {
	r.Handle("/users/{userId}/preferences", c.RequireAuth(http.HandlerFunc(c.UpdatePreferences))).Methods(http.MethodPost)
}

// RegisterMatchRoutes sets up the match listing
func RegisterMatchRoutes(r *mux.Router, c *Controller) {
	r.Handle("/matches", c.RequireAuth(http.HandlerFunc(c.GetMatches))).Methods(http.MethodGet)
}
