package main

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionFull     = errors.New("session is full")
)

// ProgressStep is one accepted contribution toward the current stage.
type ProgressStep struct {
	Role  string `json:"role"`
	Value string `json:"value"`
}

// Member ties a connection to its seat. The role is fixed at join time and
// never re-derived from arrival order afterwards.
type Member struct {
	ConnID string
	Role   string
}

// CooperativeSession is one two-player puzzle room.
//
// Membership is guarded by the registry lock; game state (stage, progress,
// flags) by the session's own mutex, so rooms progress independently.
type CooperativeSession struct {
	mu sync.Mutex

	ID       string
	Members  []Member
	Stage    int
	Puzzle   Puzzle
	Progress []ProgressStep
	Started  bool
	Cleared  bool

	lastActive time.Time
}

// touch must be called with s.mu held.
func (s *CooperativeSession) touch() {
	s.lastActive = time.Now()
}

// QuizSession is one single-player quiz run.
type QuizSession struct {
	mu sync.Mutex

	ID      string
	OwnerID string
	Current int
	Total   int

	lastActive time.Time
}

func (s *QuizSession) touch() {
	s.lastActive = time.Now()
}

// Registry owns every live session. It is constructed once at startup and
// injected wherever sessions are needed; there is no global state. All side
// effects stay inside the in-memory maps.
type Registry struct {
	mu      sync.RWMutex
	catalog *Catalog
	rooms   map[string]*CooperativeSession
	quizzes map[string]*QuizSession
}

func newRegistry(catalog *Catalog) *Registry {
	return &Registry{
		catalog: catalog,
		rooms:   make(map[string]*CooperativeSession),
		quizzes: make(map[string]*QuizSession),
	}
}

// newSessionIDLocked generates a 6-char uppercase alphanumeric code that does
// not collide with any live session. Caller must hold r.mu.
func (r *Registry) newSessionIDLocked() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const max = byte(255 - (256 % len(letters)))

	for {
		out := make([]byte, 0, 6)
		buf := make([]byte, 12)

		for len(out) < 6 {
			if _, err := rand.Read(buf); err != nil {
				panic("crypto/rand failure: " + err.Error())
			}
			for _, b := range buf {
				if b <= max {
					out = append(out, letters[int(b)%len(letters)])
					if len(out) == 6 {
						break
					}
				}
			}
		}

		id := string(out)
		if _, exists := r.rooms[id]; exists {
			continue
		}
		if _, exists := r.quizzes[id]; exists {
			continue
		}
		return id
	}
}

// CreateCooperative opens a new room with the creator seated as Player A.
func (r *Registry) CreateCooperative(creatorID string) *CooperativeSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &CooperativeSession{
		ID:         r.newSessionIDLocked(),
		Members:    []Member{{ConnID: creatorID, Role: "A"}},
		Stage:      1,
		Puzzle:     r.catalog.PuzzleForStage(1),
		lastActive: time.Now(),
	}
	r.rooms[s.ID] = s

	return s
}

// JoinCooperative seats a second player. The joiner takes role B unless no
// member currently holds A. Reports whether this join started the game.
func (r *Registry) JoinCooperative(sessionID, joinerID string) (role string, started bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.rooms[sessionID]
	if !ok {
		return "", false, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Members) >= 2 {
		return "", false, ErrSessionFull
	}

	role = "B"
	hasA := false
	for _, m := range s.Members {
		if m.Role == "A" {
			hasA = true
			break
		}
	}
	if !hasA {
		role = "A"
	}

	s.Members = append(s.Members, Member{ConnID: joinerID, Role: role})
	if len(s.Members) == 2 {
		s.Started = true
		started = true
	}
	s.touch()

	return role, started, nil
}

// CreateQuiz opens a single-player quiz session at question 1.
func (r *Registry) CreateQuiz(ownerID string) *QuizSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &QuizSession{
		ID:         r.newSessionIDLocked(),
		OwnerID:    ownerID,
		Current:    1,
		Total:      r.catalog.QuestionCount(),
		lastActive: time.Now(),
	}
	r.quizzes[s.ID] = s

	return s
}

func (r *Registry) Cooperative(sessionID string) (*CooperativeSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.rooms[sessionID]
	return s, ok
}

func (r *Registry) Quiz(sessionID string) (*QuizSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.quizzes[sessionID]
	return s, ok
}

func (r *Registry) DeleteCooperative(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rooms, sessionID)
}

func (r *Registry) DeleteQuiz(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.quizzes, sessionID)
}

// roomRemoval describes the effect of removing a connection from one room.
type roomRemoval struct {
	sessionID string
	survivors []string
	deleted   bool
}

// removalResult summarizes a disconnect sweep.
type removalResult struct {
	rooms   []roomRemoval
	quizzes []string
}

// RemoveMember drops a connection from every session it belongs to: empty
// rooms are deleted, survivors are reported so the caller can notify them,
// and owned quiz sessions are deleted outright. Safe to call repeatedly for
// connections already gone.
func (r *Registry) RemoveMember(connID string) removalResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res removalResult

	for id, s := range r.rooms {
		s.mu.Lock()

		idx := -1
		for i, m := range s.Members {
			if m.ConnID == connID {
				idx = i
				break
			}
		}
		if idx == -1 {
			s.mu.Unlock()
			continue
		}

		s.Members = append(s.Members[:idx], s.Members[idx+1:]...)
		s.touch()

		removal := roomRemoval{sessionID: id}
		if len(s.Members) == 0 {
			delete(r.rooms, id)
			removal.deleted = true
		} else {
			for _, m := range s.Members {
				removal.survivors = append(removal.survivors, m.ConnID)
			}
		}
		s.mu.Unlock()

		res.rooms = append(res.rooms, removal)
	}

	for id, s := range r.quizzes {
		if s.OwnerID == connID {
			delete(r.quizzes, id)
			res.quizzes = append(res.quizzes, id)
		}
	}

	return res
}

// expiredSession names a reclaimed session and whoever was still in it.
type expiredSession struct {
	ID      string
	Members []string
}

// ExpireIdle deletes every session whose last activity predates cutoff and
// returns them so the caller can notify lingering members.
func (r *Registry) ExpireIdle(cutoff time.Time) []expiredSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []expiredSession

	for id, s := range r.rooms {
		s.mu.Lock()
		stale := s.lastActive.Before(cutoff)
		var ids []string
		if stale {
			for _, m := range s.Members {
				ids = append(ids, m.ConnID)
			}
		}
		s.mu.Unlock()

		if stale {
			delete(r.rooms, id)
			expired = append(expired, expiredSession{ID: id, Members: ids})
		}
	}

	for id, s := range r.quizzes {
		s.mu.Lock()
		stale := s.lastActive.Before(cutoff)
		s.mu.Unlock()

		if stale {
			delete(r.quizzes, id)
			expired = append(expired, expiredSession{ID: id, Members: []string{s.OwnerID}})
		}
	}

	return expired
}
