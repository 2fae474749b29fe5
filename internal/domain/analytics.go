package domain

import "time"

// LocationCount is one row of a "top locations" breakdown.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// Analytics is the platform summary served to admins. The AI insight
// endpoint returns the same shape with a generated Insight.
type Analytics struct {
	TotalFoodRedistributed int             `json:"total_food_redistributed"`
	TopDonorLocations      []LocationCount `json:"top_donor_locations"`
	TopNGOLocations        []LocationCount `json:"top_ngo_locations"`
	Insight                string          `json:"insight"`
}

// ShelfLife is the AI estimate for how long a described item stays safe.
type ShelfLife struct {
	Estimation string   `json:"shelf_life_estimation"`
	Warnings   []string `json:"warnings"`
}

// MatchRequest asks the AI service for NGOs suited to a donation.
type MatchRequest struct {
	Location string `json:"location"`
	FoodType string `json:"food_type"`
	Quantity string `json:"quantity"`
}

// NGOSuggestion is one ranked NGO candidate. MatchScore is in [0, 1].
type NGOSuggestion struct {
	NGOID      int64   `json:"ngo_id"`
	Name       string  `json:"name"`
	Location   string  `json:"location"`
	MatchScore float64 `json:"match_score"`
	Reason     string  `json:"reason"`
}

// MatchResponse lists NGO suggestions, best first.
type MatchResponse struct {
	Suggestions []NGOSuggestion `json:"suggestions"`
}

// DraftRequest asks the AI service to write a pickup announcement.
type DraftRequest struct {
	FoodName   string    `json:"food_name"`
	Quantity   string    `json:"quantity"`
	Location   string    `json:"location"`
	PickupTime time.Time `json:"pickup_time"`
}

// DraftResponse carries the generated announcement text.
type DraftResponse struct {
	DraftMessage string `json:"draft_message"`
}
