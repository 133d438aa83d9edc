package interfaces

import (
	"net/http"

	"go-reliable-fetch/internal/models"
)

//go:generate mockgen -package=mock -source=validity_classifier.go -destination=mock/validity_classifier.go

// ValidityClassifier decides how long a response stays fresh and how long it is kept for fallback
type ValidityClassifier interface {
	// ValiditySeconds returns the logical freshness window, 0 meaning do not cache
	ValiditySeconds(req *models.FetchRequest, status int, headers http.Header) int64
	// TTLForValidity returns lifetimes for an explicit validity
	TTLForValidity(validitySeconds int64) models.TTL
}
