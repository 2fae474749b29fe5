package domain

import "time"

// FoodStatus tracks a donation through its pickup lifecycle.
type FoodStatus string

const (
	FoodStatusPending   FoodStatus = "pending"
	FoodStatusClaimed   FoodStatus = "claimed"
	FoodStatusDelivered FoodStatus = "delivered"
	FoodStatusCancelled FoodStatus = "cancelled"
)

// IsValid reports whether the status is one the server understands.
func (s FoodStatus) IsValid() bool {
	switch s {
	case FoodStatusPending, FoodStatusClaimed, FoodStatusDelivered, FoodStatusCancelled:
		return true
	}
	return false
}

// IsClaimUpdate reports whether an NGO may move a claim into this status.
func (s FoodStatus) IsClaimUpdate() bool {
	return s == FoodStatusDelivered || s == FoodStatusCancelled
}

// FoodSubmission is what a donor sends when offering surplus food.
type FoodSubmission struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Quantity    string    `json:"quantity"`
	Location    string    `json:"location"`
	PickupTime  time.Time `json:"pickup_time"`
}

// FoodItem is a donation as stored by the server.
type FoodItem struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Quantity    string     `json:"quantity"`
	Location    string     `json:"location"`
	PickupTime  time.Time  `json:"pickup_time"`
	CreatedAt   time.Time  `json:"created_at"`
	Status      FoodStatus `json:"status"`
	DonorID     int64      `json:"donor_id"`
	Donor       *User      `json:"donor,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
}

// Claim records an NGO taking responsibility for a food item.
type Claim struct {
	ID         int64      `json:"id"`
	FoodItemID int64      `json:"food_item_id"`
	NGOID      int64      `json:"ngo_id"`
	ClaimedAt  time.Time  `json:"claimed_at"`
	Status     FoodStatus `json:"status"`
	FoodItem   *FoodItem  `json:"food_item,omitempty"`
	NGO        *User      `json:"ngo,omitempty"`
}
