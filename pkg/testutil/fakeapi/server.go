// Package fakeapi runs an in-process stand-in for the food rescue backend.
//
// It speaks the same routes, encodings and FastAPI-style error bodies as the
// real service so client packages can be tested end to end without one.
// State lives in memory and is discarded with the server.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"foodrescue/internal/domain"
)

const (
	// BasePath is where the API is mounted, matching the production layout.
	BasePath = "/api/v1"
	// DefaultOTP is the code issued by RequestOTP unless overridden.
	DefaultOTP = "123456"

	signingKey = "fakeapi-signing-key"
	tokenTTL   = 30 * time.Minute
)

type account struct {
	user     domain.User
	password string
}

// Server is a running fake backend. Create it with New; it shuts down with
// the test that created it.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	nextID      int64
	accounts    map[string]*account
	food        map[int64]*domain.FoodItem
	claims      map[int64]*domain.Claim
	otps        map[string]string
	resets      map[string]string
	googleUsers map[string]domain.User
	requests    []string
	insight     string
}

// Option configures a Server before it starts.
type Option func(*Server)

// WithInsight sets the text returned by the AI insight endpoint.
func WithInsight(text string) Option {
	return func(s *Server) {
		s.insight = text
	}
}

// New starts a fake backend. Stop it with Close.
func New(opts ...Option) *Server {
	s := &Server{
		accounts:    make(map[string]*account),
		food:        make(map[int64]*domain.FoodItem),
		claims:      make(map[int64]*domain.Claim),
		otps:        make(map[string]string),
		resets:      make(map[string]string),
		googleUsers: make(map[string]domain.User),
		insight:     "Donations are concentrated downtown.",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// BaseURL is the API root to hand to the gateway client.
func (s *Server) BaseURL() string {
	return s.URL + BasePath
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recordRequests)
	r.Route(BasePath, func(r chi.Router) {
		r.Post("/auth/token", s.handleToken)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/google", s.handleGoogle)
		r.Post("/auth/otp/request", s.handleOTPRequest)
		r.Post("/auth/otp/verify", s.handleOTPVerify)
		r.Post("/auth/password/reset/request", s.handleResetRequest)
		r.Post("/auth/password/reset/confirm", s.handleResetConfirm)

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(domain.RoleDonor))
			r.Post("/donor/food", s.handleSubmitFood)
			r.Get("/donor/food/history", s.handleDonorHistory)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(domain.RoleNGO))
			r.Get("/ngo/food/available", s.handleAvailable)
			r.Post("/ngo/food/claim/{id}", s.handleClaim)
			r.Get("/ngo/food/history", s.handleNGOHistory)
			r.Put("/ngo/food/claim/{id}", s.handleUpdateClaim)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(domain.RoleAdmin))
			r.Get("/admin/users", s.handleUsers)
			r.Put("/admin/users/{id}/verify", s.handleVerify)
			r.Get("/admin/analytics", s.handleAnalytics)
			r.Get("/ai/analytics-insight", s.handleInsight)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.requireRole())
			r.Post("/ai/shelf-life", s.handleShelfLife)
			r.Post("/ai/match-ngo", s.handleMatch)
			r.Post("/ai/draft-message", s.handleDraft)
		})
	})
	return r
}

// Seed adds a verified, active account and returns the stored user.
func (s *Server) Seed(email, password, name string, role domain.Role) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addAccount(email, password, name, role, "Downtown", true)
}

// SeedFood adds an available food item owned by the given donor.
func (s *Server) SeedFood(donorID int64, name, location string) domain.FoodItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	item := &domain.FoodItem{
		ID:         s.nextID,
		Name:       name,
		Quantity:   "10 portions",
		Location:   location,
		PickupTime: time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second),
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		Status:     domain.FoodStatusPending,
		DonorID:    donorID,
	}
	s.food[item.ID] = item
	return *item
}

// RegisterGoogleToken makes idToken acceptable to /auth/google for email.
func (s *Server) RegisterGoogleToken(idToken, email, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.googleUsers[idToken] = domain.User{Email: email, Name: name}
}

// OTP returns the code most recently issued for email.
func (s *Server) OTP(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.otps[email]
}

// ResetToken returns the password reset token most recently issued for email.
func (s *Server) ResetToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, owner := range s.resets {
		if owner == email {
			return token
		}
	}
	return ""
}

// IssueToken mints an access token for email without a login round trip.
func (s *Server) IssueToken(email string) string {
	token, err := issueToken(email, time.Now().Add(tokenTTL))
	if err != nil {
		panic(err)
	}
	return token
}

// Requests lists "METHOD /path" for every request received, in order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) recordRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// addAccount must be called with s.mu held.
func (s *Server) addAccount(email, password, name string, role domain.Role, location string, verified bool) domain.User {
	s.nextID++
	acc := &account{
		user: domain.User{
			ID:         s.nextID,
			Email:      email,
			Name:       name,
			Location:   location,
			Role:       role,
			IsActive:   true,
			IsVerified: verified,
		},
		password: password,
	}
	s.accounts[email] = acc
	return acc.user
}

func issueToken(email string, expires time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   email,
		ExpiresAt: jwt.NewNumericDate(expires),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
}

func parseToken(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(signingKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *Server) tokenResponse(w http.ResponseWriter, user domain.User) {
	token, err := issueToken(user.Email, time.Now().Add(tokenTTL))
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, domain.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        &user,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeMissing mimics a request validation failure: a list of field errors.
func writeMissing(w http.ResponseWriter, fields ...string) {
	errs := make([]map[string]any, 0, len(fields))
	for _, f := range fields {
		errs = append(errs, map[string]any{
			"loc":  []string{"body", f},
			"msg":  "Field required",
			"type": "missing",
		})
	}
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": errs})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid JSON body: %v", err))
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeMissing(w, "id")
		return 0, false
	}
	return id, true
}

func sortedFood(items map[int64]*domain.FoodItem, keep func(*domain.FoodItem) bool) []domain.FoodItem {
	out := make([]domain.FoodItem, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
