package interfaces

import (
	"context"
	"net/http"
	"time"

	"go-reliable-fetch/internal/models"
)

//go:generate mockgen -package=mock -source=transport.go -destination=mock/transport.go

// Transport performs a single GET against an upstream
type Transport interface {
	Perform(ctx context.Context, url string, headers http.Header, timeout time.Duration, followRedirects bool) (*models.TransportResponse, error)
}
