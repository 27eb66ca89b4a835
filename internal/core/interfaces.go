// Package core defines the core interfaces and types for the roast relay.
package core

import (
	"context"
)

// Analyzer asks a language model to fetch a page and roast it.
// Implementations return *GatewayError values of type ErrorTypeUpstream on vendor failure.
type Analyzer interface {
	Analyze(ctx context.Context, url string) (*Analysis, error)
}

// Synthesizer converts text to encoded audio (audio/mpeg).
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// VoiceID identifies the voice; it is part of the audio cache key.
	VoiceID() string
}

// ShareStore persists and loads share records.
type ShareStore interface {
	Create(ctx context.Context, req *CreateShareRequest) (*ShareRecord, error)
	Get(ctx context.Context, id string) (*ShareRecord, error)
	Enabled() bool
}
