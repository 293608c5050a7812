package session

import (
	"sync"

	"github.com/SAP-F-2025/practice-service/internal/models"
)

// DefaultMaxPlays is how many times a listening recording may be played.
const DefaultMaxPlays = 2

// ReplayGate counts completed playbacks. Pausing does not count; only a
// playback that reaches the end does.
type ReplayGate struct {
	mu       sync.Mutex
	plays    int
	maxPlays int
}

func NewReplayGate(maxPlays int) *ReplayGate {
	if maxPlays <= 0 {
		maxPlays = DefaultMaxPlays
	}
	return &ReplayGate{maxPlays: maxPlays}
}

// Ended records a natural completion and returns the updated count. Once the
// limit is reached further completions are ignored.
func (g *ReplayGate) Ended() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.plays < g.maxPlays {
		g.plays++
	}
	return g.plays
}

func (g *ReplayGate) Plays() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.plays
}

func (g *ReplayGate) CanPlay() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.plays < g.maxPlays
}

// CanRevealTranscript is true only in practice mode after every allowed play.
func (g *ReplayGate) CanRevealTranscript(mode models.AttemptMode) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return mode == models.ModePractice && g.plays >= g.maxPlays
}

func (g *ReplayGate) Reset() {
	g.mu.Lock()
	g.plays = 0
	g.mu.Unlock()
}
