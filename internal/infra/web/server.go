package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"telegram-marketplace-bot/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server exposes the admin API: login, marketplace statistics, user and
// store inspection, and store moderation.
type Server struct {
	statsUC   usecase.StatsUseCase
	userUC    usecase.UserUseCase
	storeUC   usecase.StoreUseCase
	offerUC   usecase.OfferUseCase
	bookingUC usecase.BookingUseCase

	username string
	password string
	auth     *AuthManager
	log      *zerolog.Logger
}

func NewServer(
	statsUC usecase.StatsUseCase,
	userUC usecase.UserUseCase,
	storeUC usecase.StoreUseCase,
	offerUC usecase.OfferUseCase,
	bookingUC usecase.BookingUseCase,
	username, password string,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		statsUC:   statsUC,
		userUC:    userUC,
		storeUC:   storeUC,
		offerUC:   offerUC,
		bookingUC: bookingUC,
		username:  username,
		password:  password,
		auth:      auth,
		log:       logger,
	}
}

// Router assembles the full route tree, public endpoints first.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/api/v1/auth/login", s.loginHandler())
	r.Post("/api/v1/auth/logout", s.logoutHandler())

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/api/v1/stats", statsHandler(s.statsUC))
		r.Get("/api/v1/users", usersListHandler(s.userUC))
		r.Get("/api/v1/users/{id}", userGetHandler(s.userUC, s.bookingUC))
		r.Get("/api/v1/stores/pending", storesPendingHandler(s.storeUC))
		r.Get("/api/v1/stores/{id}/offers", storeOffersHandler(s.offerUC))
		r.Post("/api/v1/stores/{id}/approve", storeApproveHandler(s.storeUC))
		r.Post("/api/v1/stores/{id}/reject", storeRejectHandler(s.storeUC))
	})

	return r
}

// authMiddleware rejects requests without a valid admin token.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			s.log.Error().Msg("admin auth manager is not configured")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil || s.username == "" || s.password == "" {
			s.log.Error().Msg("admin credentials are not configured")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.password)) == 1
		if !userOK || !passOK {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if _, err := s.auth.Mint(w, req.Username); err != nil {
			s.log.Error().Err(err).Msg("failed to mint admin session")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if s.auth != nil {
			s.auth.Clear(w)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
