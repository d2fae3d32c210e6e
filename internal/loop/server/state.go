package server

import (
	"cmp"
	"slices"

	"github.com/tomz197/chainbreaker/internal/game"
)

// TopScoreEntry represents a single entry on the live leaderboard.
type TopScoreEntry struct {
	Username string
	Score    int
	Level    int
	Tier     game.Tier
	clientID int // Used for deterministic tie-break when scores are equal
}

// TopScores returns up to n connected players with a game in progress or
// just finished, highest score first.
func (s *Server) TopScores(n int) []TopScoreEntry {
	if n <= 0 {
		return nil
	}

	s.mu.RLock()
	handles := make([]*ClientHandle, 0, len(s.clients))
	for _, h := range s.clients {
		handles = append(handles, h)
	}
	s.mu.RUnlock()

	entries := make([]TopScoreEntry, 0, len(handles))
	for _, h := range handles {
		snap := h.Controller.Snapshot()
		if snap.Phase == game.PhaseMenu || snap.Score == 0 {
			continue
		}
		entries = append(entries, TopScoreEntry{
			Username: h.Username,
			Score:    snap.Score,
			Level:    snap.Level,
			Tier:     snap.Difficulty,
			clientID: h.ID,
		})
	}

	slices.SortFunc(entries, func(a, b TopScoreEntry) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.clientID, b.clientID)
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
