package agent

import (
	"context"

	"github.com/themobileprof/voicepilot/internal/interfaces"
)

// NopSynthesizer discards speech output. It keeps the machine usable
// in tests and headless tools where no audio device exists.
type NopSynthesizer struct{}

// Speak returns immediately without rendering anything.
func (NopSynthesizer) Speak(ctx context.Context, text string) error { return nil }

// Cancel does nothing.
func (NopSynthesizer) Cancel() {}

var _ interfaces.Synthesizer = NopSynthesizer{}
