package fakeapi

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"foodrescue/internal/domain"
)

type ctxKey struct{}

func userFrom(r *http.Request) domain.User {
	u, _ := r.Context().Value(ctxKey{}).(domain.User)
	return u
}

// requireRole authenticates the bearer token and, when roles are given,
// rejects users outside them.
func (s *Server) requireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				writeDetail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			email, err := parseToken(raw)
			if err != nil {
				writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}
			s.mu.Lock()
			acc, found := s.accounts[email]
			s.mu.Unlock()
			if !found {
				writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}
			if len(roles) > 0 && !containsRole(roles, acc.user.Role) {
				writeDetail(w, http.StatusForbidden, "Not "+article(roles[0]))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, acc.user)))
		})
	}
}

func containsRole(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func article(role domain.Role) string {
	switch role {
	case domain.RoleNGO:
		return "an NGO"
	case domain.RoleAdmin:
		return "an admin"
	default:
		return "a " + string(role)
	}
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	email, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if email == "" || password == "" {
		writeMissing(w, "username", "password")
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[email]
	s.mu.Unlock()
	switch {
	case !ok || acc.password != password:
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
	case !acc.user.IsActive:
		writeDetail(w, http.StatusBadRequest, "Inactive user")
	case !acc.user.IsVerified:
		writeDetail(w, http.StatusForbidden, "User account not yet verified by admin")
	default:
		s.tokenResponse(w, acc.user)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.Registration
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" || req.Role == "" {
		writeMissing(w, "email", "password", "name", "role")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Email]; exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	user := s.addAccount(req.Email, req.Password, req.Name, req.Role, req.Location, req.Role == domain.RoleDonor)
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleGoogle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.googleUsers[req.Token]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid Google token: token not recognized")
		return
	}
	acc, exists := s.accounts[profile.Email]
	var user domain.User
	if exists {
		user = acc.user
	} else {
		user = s.addAccount(profile.Email, "", profile.Name, domain.RoleDonor, "Not specified", true)
	}
	s.tokenResponse(w, user)
}

func (s *Server) handleOTPRequest(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeMissing(w, "email")
		return
	}
	s.mu.Lock()
	_, exists := s.accounts[email]
	if exists {
		s.otps[email] = DefaultOTP
	}
	s.mu.Unlock()
	if !exists {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to your email"})
}

func (s *Server) handleOTPVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	code, issued := s.otps[req.Email]
	acc := s.accounts[req.Email]
	if issued && code == req.Code {
		delete(s.otps, req.Email)
	}
	s.mu.Unlock()

	if !issued || code != req.Code || acc == nil {
		writeDetail(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	s.tokenResponse(w, acc.user)
}

func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	if _, ok := s.accounts[req.Email]; ok {
		s.resets[uuid.NewString()] = req.Email
	}
	s.mu.Unlock()
	// Same answer whether or not the account exists.
	writeJSON(w, http.StatusOK, map[string]string{"message": "If the email exists, a reset link has been sent"})
}

func (s *Server) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.resets[req.Token]
	if !ok {
		writeDetail(w, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}
	delete(s.resets, req.Token)
	s.accounts[email].password = req.NewPassword
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmitFood(w http.ResponseWriter, r *http.Request) {
	var req domain.FoodSubmission
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" || req.Quantity == "" || req.Location == "" {
		writeMissing(w, "name", "quantity", "location")
		return
	}
	donor := userFrom(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	item := &domain.FoodItem{
		ID:          s.nextID,
		Name:        req.Name,
		Description: req.Description,
		Quantity:    req.Quantity,
		Location:    req.Location,
		PickupTime:  req.PickupTime,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
		Status:      domain.FoodStatusPending,
		DonorID:     donor.ID,
	}
	s.food[item.ID] = item
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDonorHistory(w http.ResponseWriter, r *http.Request) {
	donor := userFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, sortedFood(s.food, func(f *domain.FoodItem) bool { return f.DonorID == donor.ID }))
}

func (s *Server) handleAvailable(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, sortedFood(s.food, func(f *domain.FoodItem) bool { return f.Status == domain.FoodStatusPending }))
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ngo := userFrom(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	item, found := s.food[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "Food item not found")
		return
	}
	if item.Status != domain.FoodStatusPending {
		writeDetail(w, http.StatusBadRequest, "Food item is no longer available")
		return
	}
	item.Status = domain.FoodStatusClaimed
	s.nextID++
	claim := &domain.Claim{
		ID:         s.nextID,
		FoodItemID: item.ID,
		NGOID:      ngo.ID,
		ClaimedAt:  time.Now().UTC().Truncate(time.Second),
		Status:     domain.FoodStatusClaimed,
	}
	s.claims[claim.ID] = claim
	writeJSON(w, http.StatusOK, claim)
}

func (s *Server) handleNGOHistory(w http.ResponseWriter, r *http.Request) {
	ngo := userFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Claim, 0, len(s.claims))
	for _, c := range s.claims {
		if c.NGOID != ngo.ID {
			continue
		}
		claim := *c
		if item, ok := s.food[c.FoodItemID]; ok {
			copied := *item
			claim.FoodItem = &copied
		}
		out = append(out, claim)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status domain.FoodStatus `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if !req.Status.IsValid() {
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid status: %s", req.Status))
		return
	}
	ngo := userFrom(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	claim, found := s.claims[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "Claim not found")
		return
	}
	if claim.NGOID != ngo.ID {
		writeDetail(w, http.StatusForbidden, "Not authorized to update this claim")
		return
	}
	claim.Status = req.Status
	if item, ok := s.food[claim.FoodItemID]; ok {
		item.Status = req.Status
	}
	writeJSON(w, http.StatusOK, claim)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]domain.User, 0, len(s.accounts))
	for _, acc := range s.accounts {
		users = append(users, acc.user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.user.ID == id {
			acc.user.IsVerified = true
			writeJSON(w, http.StatusOK, acc.user)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "User not found")
}

func (s *Server) analytics() domain.Analytics {
	donorCounts := map[string]int{}
	ngoCounts := map[string]int{}
	total := 0
	for _, item := range s.food {
		if item.Status == domain.FoodStatusDelivered {
			total++
		}
		donorCounts[item.Location]++
	}
	for _, acc := range s.accounts {
		if acc.user.Role == domain.RoleNGO && acc.user.Location != "" {
			ngoCounts[acc.user.Location]++
		}
	}
	return domain.Analytics{
		TotalFoodRedistributed: total,
		TopDonorLocations:      topLocations(donorCounts),
		TopNGOLocations:        topLocations(ngoCounts),
	}
}

func topLocations(counts map[string]int) []domain.LocationCount {
	out := make([]domain.LocationCount, 0, len(counts))
	for loc, n := range counts {
		out = append(out, domain.LocationCount{Location: loc, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Location < out[j].Location
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.analytics())
}

func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.analytics()
	a.Insight = s.insight
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleShelfLife(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeMissing(w, "description")
		return
	}
	writeJSON(w, http.StatusOK, domain.ShelfLife{
		Estimation: "2-3 days refrigerated",
		Warnings:   []string{"Keep below 5°C"},
	})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req domain.MatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := domain.MatchResponse{Suggestions: []domain.NGOSuggestion{}}
	for _, acc := range s.accounts {
		if acc.user.Role != domain.RoleNGO {
			continue
		}
		score := 0.5
		if acc.user.Location == req.Location {
			score = 0.9
		}
		resp.Suggestions = append(resp.Suggestions, domain.NGOSuggestion{
			NGOID:      acc.user.ID,
			Name:       acc.user.Name,
			Location:   acc.user.Location,
			MatchScore: score,
			Reason:     "Serves " + acc.user.Location,
		})
	}
	sort.Slice(resp.Suggestions, func(i, j int) bool {
		return resp.Suggestions[i].MatchScore > resp.Suggestions[j].MatchScore
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	var req domain.DraftRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, domain.DraftResponse{
		DraftMessage: fmt.Sprintf("%s of %s available for pickup at %s.", req.Quantity, req.FoodName, req.Location),
	})
}
