// internal/ident/ident.go
package ident

import "github.com/google/uuid"

// Opaque identifier generators. Every entity gets a v4 UUID string; the
// distinct constructors exist so call sites read as what they allocate.

// NewClientID returns an identifier for a websocket connection.
func NewClientID() string {
	return uuid.NewString()
}

// NewPlayerID returns an identifier for a participant. Bound to the
// connection for its lifetime; there is no resumption.
func NewPlayerID() string {
	return uuid.NewString()
}

// NewLobbyID returns an identifier for a lobby.
func NewLobbyID() string {
	return uuid.NewString()
}

// NewDrawingID returns an identifier for a submitted drawing.
func NewDrawingID() string {
	return uuid.NewString()
}
