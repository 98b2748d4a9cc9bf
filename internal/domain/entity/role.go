package entity

import "time"

// Role is an approver role scoped to a business unit. The engine references
// roles by id only; name resolution is a presentation concern, surfaced here
// solely so progress responses can carry a display name.
type Role struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	BusinessUnitID  string    `json:"business_unit_id"`
	CapabilityFlags []string  `json:"capability_flags,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
