package main

// Solo quiz flow: one connection owns one session, questions advance linearly.
// A wrong answer can be retried forever; a correct answer reveals the
// explanation but never advances on its own. Advancing past the final
// question completes the quiz and tears the session down.

type QuizStartedMessage struct {
	Type          string       `json:"type"` // "quizStarted"
	SessionID     string       `json:"sessionId"`
	Question      QuestionView `json:"question"`
	QuestionIndex int          `json:"questionIndex"`
	Total         int          `json:"total"`
}

type AnswerResultMessage struct {
	Type        string `json:"type"` // "answerResult"
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
	Message     string `json:"message,omitempty"`
}

type QuestionUpdateMessage struct {
	Type          string       `json:"type"` // "questionUpdate"
	Question      QuestionView `json:"question"`
	QuestionIndex int          `json:"questionIndex"`
	Total         int          `json:"total"`
}

type QuizCompleteMessage struct {
	Type    string `json:"type"` // "quizComplete"
	Message string `json:"message"`
	Total   int    `json:"total"`
}

const wrongAnswerMessage = "Wrong answer. Access denied, try again."

// StartQuiz opens a quiz session and deals the first question.
func (g *Game) StartQuiz(connID string) {
	s := g.registry.CreateQuiz(connID)
	g.broadcast.Join(s.ID, connID)

	g.broadcast.SendTo(connID, QuizStartedMessage{
		Type:          "quizStarted",
		SessionID:     s.ID,
		Question:      g.catalog.QuestionAt(s.Current).View(),
		QuestionIndex: s.Current,
		Total:         s.Total,
	})

	logf(g.cfg, "GAMES: Quiz %s started", s.ID)
}

// SubmitAnswer checks an answer against the current question. Matching is
// exact and case-sensitive. Missing sessions are ignored silently.
func (g *Game) SubmitAnswer(sessionID, answer string) {
	s, ok := g.registry.Quiz(sessionID)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Current > s.Total {
		return
	}
	s.touch()

	q := g.catalog.QuestionAt(s.Current)
	if answer == q.Answer {
		g.broadcast.SendTo(s.OwnerID, AnswerResultMessage{
			Type:        "answerResult",
			Correct:     true,
			Explanation: q.Explanation,
		})
		return
	}

	g.broadcast.SendTo(s.OwnerID, AnswerResultMessage{
		Type:    "answerResult",
		Correct: false,
		Message: wrongAnswerMessage,
	})
}

// AdvanceQuestion moves to the next question, or completes and tears down
// the quiz past the final one.
func (g *Game) AdvanceQuestion(sessionID string) {
	s, ok := g.registry.Quiz(sessionID)
	if !ok {
		return
	}

	s.mu.Lock()
	if s.Current > s.Total {
		s.mu.Unlock()
		return
	}
	s.touch()
	s.Current++

	if s.Current > s.Total {
		// Past the final question the session is dead; events holding a stale
		// lookup are rejected once they take the lock.
		g.broadcast.SendTo(s.OwnerID, QuizCompleteMessage{
			Type:    "quizComplete",
			Message: quizCompleteMessage,
			Total:   s.Total,
		})
		s.mu.Unlock()

		g.registry.DeleteQuiz(s.ID)
		g.broadcast.DropSession(s.ID)
		logf(g.cfg, "GAMES: Quiz %s completed", s.ID)
		return
	}

	g.broadcast.SendTo(s.OwnerID, QuestionUpdateMessage{
		Type:          "questionUpdate",
		Question:      g.catalog.QuestionAt(s.Current).View(),
		QuestionIndex: s.Current,
		Total:         s.Total,
	})
	s.mu.Unlock()
}
