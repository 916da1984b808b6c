// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes. These give clients a more specific reason
// for closure than the standard codes.
const (
	SlowConsumerError   = 3000 // Client's outbound queue overflowed or a write timed out.
	ServerShutdownError = 3001 // Server is shutting down.
)
