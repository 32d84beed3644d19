package main

// Cooperative game flow:
// - First connection creates a room and takes seat A; the second join takes
//   seat B and starts the game.
// - Each sequence stage names which seat must send which value, in order. A
//   step from the wrong seat is rejected without touching progress; a wrong
//   value from the right seat resets the attempt.
// - Clearing the last stage completes the game and tears the room down. Late
//   events against a torn-down or not-yet-started room are dropped silently,
//   so a straggling click after a peer left never produces an error.

import (
	"time"
)

// Messages sent to clients. Each carries its own type discriminator.

type RoomCreatedMessage struct {
	Type      string `json:"type"` // "roomCreated"
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
}

type RoomJoinedMessage struct {
	Type      string `json:"type"` // "roomJoined"
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
}

type GameStartMessage struct {
	Type     string     `json:"type"` // "gameStart"
	Stage    int        `json:"stage"`
	Puzzle   PuzzleView `json:"puzzle"`
	NextRole string     `json:"nextRole,omitempty"`
}

type ProgressUpdateMessage struct {
	Type     string         `json:"type"` // "progressUpdate"
	Progress []ProgressStep `json:"progress"`
	Cleared  bool           `json:"cleared"`
	NextRole string         `json:"nextRole,omitempty"`
}

// Sent only to the client that acted out of turn.
type WrongTurnMessage struct {
	Type    string `json:"type"` // "wrongTurn"
	Role    string `json:"role"` // the seat whose turn it is
	Message string `json:"message"`
}

type StageClearMessage struct {
	Type    string `json:"type"` // "stageClear"
	Stage   int    `json:"stage"`
	Message string `json:"message"`
}

// SimpleMessage is for generic notifications ("incorrect", "gameComplete",
// "peerLeft", "notFoundError", "sessionFull", "sessionExpired").
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Game is the event-handling core. It owns no sessions itself; it mutates
// records held by the injected registry and reports through the injected
// broadcaster. One inbound event is handled to completion under its session's
// lock, so events on the same session never interleave.
type Game struct {
	cfg       *Config
	registry  *Registry
	catalog   *Catalog
	broadcast Broadcaster
}

func newGame(cfg *Config, registry *Registry, catalog *Catalog, broadcast Broadcaster) *Game {
	return &Game{
		cfg:       cfg,
		registry:  registry,
		catalog:   catalog,
		broadcast: broadcast,
	}
}

// CreateRoom opens a cooperative session with the creator as Player A.
func (g *Game) CreateRoom(connID string) {
	s := g.registry.CreateCooperative(connID)
	g.broadcast.Join(s.ID, connID)

	g.broadcast.SendTo(connID, RoomCreatedMessage{
		Type:      "roomCreated",
		SessionID: s.ID,
		Role:      "A",
	})

	logf(g.cfg, "GAMES: Room %s created", s.ID)
}

// JoinRoom seats a second player and, once the room is full, starts stage 1.
func (g *Game) JoinRoom(sessionID, connID string) {
	role, started, err := g.registry.JoinCooperative(sessionID, connID)
	switch err {
	case ErrSessionNotFound:
		g.broadcast.SendTo(connID, SimpleMessage{
			Type:    "notFoundError",
			Message: "No session with that code exists.",
		})
		return
	case ErrSessionFull:
		g.broadcast.SendTo(connID, SimpleMessage{
			Type:    "sessionFull",
			Message: "That session already has two players.",
		})
		return
	}

	g.broadcast.Join(sessionID, connID)
	g.broadcast.SendTo(connID, RoomJoinedMessage{
		Type:      "roomJoined",
		SessionID: sessionID,
		Role:      role,
	})

	logf(g.cfg, "GAMES: Player %s joined room %s", role, sessionID)

	if !started {
		return
	}

	s, ok := g.registry.Cooperative(sessionID)
	if !ok {
		return
	}

	s.mu.Lock()
	s.touch()
	g.broadcast.SendToSession(s.ID, GameStartMessage{
		Type:     "gameStart",
		Stage:    s.Stage,
		Puzzle:   s.Puzzle.View(),
		NextRole: s.Puzzle.NextRole(s.Progress),
	})
	s.mu.Unlock()
}

// SubmitAction validates one contribution against the current stage. Missing
// and unstarted sessions are ignored silently.
func (g *Game) SubmitAction(sessionID, connID, role, value string) {
	s, ok := g.registry.Cooperative(sessionID)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Started {
		return
	}
	s.touch()

	switch p := s.Puzzle.(type) {
	case *SequencePuzzle:
		if len(s.Progress) >= len(p.Sequence) {
			// Stage already assembled; nothing left to validate.
			return
		}

		expected := p.Sequence[len(s.Progress)]
		switch {
		case expected.Role != role:
			// The seat, not the connection, is what the sequence binds to.
			g.broadcast.SendTo(connID, WrongTurnMessage{
				Type:    "wrongTurn",
				Role:    expected.Role,
				Message: "It is Player " + expected.Role + "'s turn.",
			})

		case expected.Value == value:
			s.Progress = append(s.Progress, ProgressStep{Role: role, Value: value})
			if len(s.Progress) == len(p.Sequence) {
				s.Cleared = true
				g.broadcast.SendToSession(s.ID, StageClearMessage{
					Type:    "stageClear",
					Stage:   s.Stage,
					Message: p.ClearMessage(),
				})
				logf(g.cfg, "GAMES: Room %s cleared stage %d", s.ID, s.Stage)
			}

		default:
			s.Progress = nil
			s.Cleared = false
			g.broadcast.SendToSession(s.ID, SimpleMessage{
				Type:    "incorrect",
				Message: p.FailMessage(),
			})
		}

	case *AnswerPuzzle:
		if s.Cleared {
			return
		}

		if value == p.Answer {
			s.Cleared = true
			g.broadcast.SendToSession(s.ID, StageClearMessage{
				Type:    "stageClear",
				Stage:   s.Stage,
				Message: p.ClearMessage(),
			})
			logf(g.cfg, "GAMES: Room %s cleared stage %d", s.ID, s.Stage)
		} else {
			g.broadcast.SendToSession(s.ID, SimpleMessage{
				Type:    "incorrect",
				Message: p.FailMessage(),
			})
		}
	}

	progress := s.Progress
	if progress == nil {
		progress = []ProgressStep{}
	}
	g.broadcast.SendToSession(s.ID, ProgressUpdateMessage{
		Type:     "progressUpdate",
		Progress: progress,
		Cleared:  s.Cleared,
		NextRole: s.Puzzle.NextRole(s.Progress),
	})
}

// AdvanceStage moves a room to its next stage, or completes and tears down
// the game past the final one. Unknown, unstarted, and already-completed
// rooms are ignored silently.
func (g *Game) AdvanceStage(sessionID string) {
	s, ok := g.registry.Cooperative(sessionID)
	if !ok {
		return
	}

	s.mu.Lock()
	if !s.Started {
		s.mu.Unlock()
		return
	}
	s.touch()
	s.Stage++
	s.Progress = nil
	s.Cleared = false

	if s.Stage > g.catalog.MaxStage() {
		// Mark the room dead before broadcasting so an event holding a stale
		// lookup is rejected once it takes the lock.
		s.Started = false
		g.broadcast.SendToSession(s.ID, SimpleMessage{
			Type:    "gameComplete",
			Message: gameCompleteMessage,
		})
		s.mu.Unlock()

		g.registry.DeleteCooperative(s.ID)
		g.broadcast.DropSession(s.ID)
		logf(g.cfg, "GAMES: Room %s completed all stages", s.ID)
		return
	}

	s.Puzzle = g.catalog.PuzzleForStage(s.Stage)
	g.broadcast.SendToSession(s.ID, GameStartMessage{
		Type:     "gameStart",
		Stage:    s.Stage,
		Puzzle:   s.Puzzle.View(),
		NextRole: s.Puzzle.NextRole(nil),
	})
	s.mu.Unlock()
}

// Disconnect reclaims everything a dropped connection was part of: surviving
// partners are told their peer left, emptied rooms and owned quizzes are
// deleted. Repeated signals for the same connection are no-ops.
func (g *Game) Disconnect(connID string) {
	res := g.registry.RemoveMember(connID)

	for _, removal := range res.rooms {
		if removal.deleted {
			g.broadcast.DropSession(removal.sessionID)
			logf(g.cfg, "GAMES: Room %s deleted", removal.sessionID)
			continue
		}
		g.broadcast.Leave(removal.sessionID, connID)
		for _, survivor := range removal.survivors {
			g.broadcast.SendTo(survivor, SimpleMessage{
				Type:    "peerLeft",
				Message: "Your partner left the session.",
			})
		}
		logf(g.cfg, "GAMES: Player left room %s", removal.sessionID)
	}

	for _, id := range res.quizzes {
		g.broadcast.DropSession(id)
		logf(g.cfg, "GAMES: Quiz %s deleted", id)
	}
}

// reaperLoop periodically reclaims sessions idle longer than timeout. Clients
// that drop without a clean disconnect otherwise leak their sessions forever.
func (g *Game) reaperLoop(timeout time.Duration) {
	ticker := time.NewTicker(timeout / 2)
	for range ticker.C {
		g.reapIdle(time.Now().Add(-timeout))
	}
}

func (g *Game) reapIdle(cutoff time.Time) {
	for _, ex := range g.registry.ExpireIdle(cutoff) {
		for _, connID := range ex.Members {
			g.broadcast.SendTo(connID, SimpleMessage{
				Type:    "sessionExpired",
				Message: "Session ended after inactivity.",
			})
		}
		g.broadcast.DropSession(ex.ID)
		logf(g.cfg, "GAMES: Session %s expired", ex.ID)
	}
}
