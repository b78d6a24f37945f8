package util

import "github.com/google/uuid"

// NewSessionID gera identificador opaco para sessões do painel.
func NewSessionID() string {
	return uuid.NewString()
}
