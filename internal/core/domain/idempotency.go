package domain

// CachedResponse is a finished mutating response replayed for a repeated Idempotency-Key.
type CachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// BuildIdempotencyKey scopes a client key to the caller and route so keys never collide across users.
func BuildIdempotencyKey(caller Address, method, route, clientKey string) string {
	return caller.String() + ":" + method + ":" + route + ":" + clientKey
}
