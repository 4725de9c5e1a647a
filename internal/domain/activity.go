package domain

import "time"

// SportRecommendation is the tagged outcome of a sport recommendation request.
type SportRecommendation struct {
	Success     bool      `json:"success"`
	Reason      Reason    `json:"reason,omitempty"`
	UserID      int64     `json:"userId"`
	Activities  []string  `json:"recommendations"`
	GeneratedAt time.Time `json:"timestamp,omitempty"`
}
