// Package genai binds the task flows to an external generation service.
// Each flow is a typed request/response pair: input is validated before any
// network call, the model's raw reply is coerced into the declared output
// shape, and a malformed or empty reply fails the flow as a whole. Flows
// make a single attempt; retrying is the caller's decision.
package genai

import "context"

// Generator is the external text/image/audio generation collaborator.
type Generator interface {
	// GenerateText sends a prompt expecting a JSON reply and returns the raw
	// model text.
	GenerateText(ctx context.Context, prompt string) (string, error)
	// GenerateImage returns the generated image as a data URI.
	GenerateImage(ctx context.Context, prompt string) (string, error)
	// GenerateSpeech renders the text as speech and returns an audio data URI.
	GenerateSpeech(ctx context.Context, text string) (string, error)
}
