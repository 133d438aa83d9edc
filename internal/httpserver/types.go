package httpserver

// SetRequest is the body of POST /api/cache/{key}
type SetRequest struct {
	Content *string  `json:"content"`
	MaxAge  *int64   `json:"maxAge"` // seconds
	Tags    []string `json:"tags,omitempty"`
}
