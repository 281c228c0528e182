// internal/domain/models/agencyassignment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AgencyAssignment is the delegation edge from an agency to one of its
// third parties. An active edge lets the agency see the exchanges that
// third party participates in, with a capped view-only profile.
//
// Invariant: the (agency_contact_id, third_party_contact_id) pair is
// unique while active. Edges are deactivated, never deleted.
type AgencyAssignment struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AgencyContactID     primitive.ObjectID `bson:"agency_contact_id" json:"agency_contact_id"`
	ThirdPartyContactID primitive.ObjectID `bson:"third_party_contact_id" json:"third_party_contact_id"`
	IsActive            bool               `bson:"is_active" json:"is_active"`

	// CanViewPerformance gates the performance metrics the agency sees
	// through this edge; PerformanceScore is the rolled-up metric itself.
	CanViewPerformance bool     `bson:"can_view_performance" json:"can_view_performance"`
	PerformanceScore   *float64 `bson:"performance_score,omitempty" json:"performance_score,omitempty"`

	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	CreatedByID primitive.ObjectID `bson:"created_by_id" json:"created_by_id"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
