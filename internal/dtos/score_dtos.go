package dtos

import "github.com/ronnyabuto/rent-service/internal/models"

// TenantScoreResponse wraps the score breakdown with the tenant identity
// the caller asked about.
type TenantScoreResponse struct {
	TenantPhone string                `json:"tenant_phone"`
	Score       models.ScoreBreakdown `json:"score"`
}
