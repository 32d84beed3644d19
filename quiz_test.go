package main

import (
	"testing"
	"time"
)

func startedQuiz(t *testing.T, g *Game, b *recordingBroadcaster) QuizStartedMessage {
	t.Helper()

	g.StartQuiz("conn-q")
	ev, ok := b.last()
	if !ok {
		t.Fatal("no event after StartQuiz")
	}
	msg, ok := ev.msg.(QuizStartedMessage)
	if !ok {
		t.Fatalf("expected QuizStartedMessage, got %T", ev.msg)
	}

	b.reset()
	return msg
}

func TestStartQuiz(t *testing.T) {
	g, r, b := newTestGame()

	g.StartQuiz("conn-q")

	ev, _ := b.last()
	if ev.connID != "conn-q" {
		t.Errorf("quizStarted should go to the owner, went to %q", ev.connID)
	}
	msg, ok := ev.msg.(QuizStartedMessage)
	if !ok {
		t.Fatalf("expected QuizStartedMessage, got %T", ev.msg)
	}
	if msg.QuestionIndex != 1 || msg.Total != 5 {
		t.Errorf("expected question 1 of 5, got %d of %d", msg.QuestionIndex, msg.Total)
	}
	if msg.Question.Prompt == "" || len(msg.Question.Options) == 0 {
		t.Errorf("question view missing prompt or options: %+v", msg.Question)
	}
	if _, ok := r.Quiz(msg.SessionID); !ok {
		t.Error("started quiz not in registry")
	}
}

func TestSubmitAnswerCorrect(t *testing.T) {
	g, r, b := newTestGame()
	quiz := startedQuiz(t, g, b)

	g.SubmitAnswer(quiz.SessionID, "pwd")

	ev, _ := b.last()
	result, ok := ev.msg.(AnswerResultMessage)
	if !ok || ev.connID != "conn-q" {
		t.Fatalf("expected answerResult to the owner, got %+v", ev)
	}
	if !result.Correct {
		t.Error("\"pwd\" is the correct answer to question 1")
	}
	if result.Explanation == "" {
		t.Error("correct answers reveal the explanation")
	}

	// A correct answer never advances on its own.
	s, _ := r.Quiz(quiz.SessionID)
	if s.Current != 1 {
		t.Errorf("submitAnswer must not advance, current question is %d", s.Current)
	}
}

func TestSubmitAnswerIncorrect(t *testing.T) {
	g, _, b := newTestGame()
	quiz := startedQuiz(t, g, b)

	g.SubmitAnswer(quiz.SessionID, "ls")

	ev, _ := b.last()
	result := ev.msg.(AnswerResultMessage)
	if result.Correct {
		t.Error("\"ls\" should be wrong for question 1")
	}
	if result.Explanation != "" {
		t.Error("wrong answers must not leak the explanation")
	}
	if result.Message == "" {
		t.Error("wrong answers carry the generic message")
	}

	// Answers are resubmittable.
	b.reset()
	g.SubmitAnswer(quiz.SessionID, "pwd")
	ev, _ = b.last()
	if !ev.msg.(AnswerResultMessage).Correct {
		t.Error("retry after a wrong answer should succeed")
	}
}

func TestSubmitAnswerCaseSensitive(t *testing.T) {
	g, _, b := newTestGame()
	quiz := startedQuiz(t, g, b)

	g.SubmitAnswer(quiz.SessionID, "PWD")

	ev, _ := b.last()
	if ev.msg.(AnswerResultMessage).Correct {
		t.Error("answer matching is exact and case-sensitive")
	}
}

func TestSubmitAnswerUnknownSessionIsSilent(t *testing.T) {
	g, _, b := newTestGame()

	g.SubmitAnswer("ZZZZZZ", "pwd")

	if events := b.all(); len(events) != 0 {
		t.Errorf("answer to unknown quiz must be dropped silently, got %+v", events)
	}
}

func TestAdvanceQuestion(t *testing.T) {
	g, _, b := newTestGame()
	quiz := startedQuiz(t, g, b)

	g.AdvanceQuestion(quiz.SessionID)

	ev, _ := b.last()
	update, ok := ev.msg.(QuestionUpdateMessage)
	if !ok {
		t.Fatalf("expected QuestionUpdateMessage, got %T", ev.msg)
	}
	if update.QuestionIndex != 2 || update.Total != 5 {
		t.Errorf("expected question 2 of 5, got %d of %d", update.QuestionIndex, update.Total)
	}
	if update.Question.Prompt == "" {
		t.Error("question update missing prompt")
	}
}

func TestQuizCompletion(t *testing.T) {
	g, r, b := newTestGame()
	quiz := startedQuiz(t, g, b)

	for i := 0; i < 4; i++ {
		g.AdvanceQuestion(quiz.SessionID)
	}
	b.reset()
	g.AdvanceQuestion(quiz.SessionID) // past question 5

	events := b.all()
	if len(events) != 1 {
		t.Fatalf("expected exactly one quizComplete, got %d events", len(events))
	}
	done, ok := events[0].msg.(QuizCompleteMessage)
	if !ok {
		t.Fatalf("expected QuizCompleteMessage, got %T", events[0].msg)
	}
	if done.Total != 5 {
		t.Errorf("unexpected total: %d", done.Total)
	}
	if _, ok := r.Quiz(quiz.SessionID); ok {
		t.Error("completed quiz should be torn down")
	}

	// Everything after teardown is silently ignored.
	b.reset()
	g.SubmitAnswer(quiz.SessionID, "pwd")
	g.AdvanceQuestion(quiz.SessionID)
	if events := b.all(); len(events) != 0 {
		t.Errorf("events against a torn-down quiz must be silent, got %+v", events)
	}
}

func TestQuizCompletionAtomicWithTeardown(t *testing.T) {
	catalog := defaultCatalog()
	registry := newRegistry(catalog)
	b := &stallingBroadcaster{
		stall: func(msg any) bool {
			_, ok := msg.(QuizCompleteMessage)
			return ok
		},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	g := newGame(&Config{}, registry, catalog, b)
	quiz := startedQuiz(t, g, &b.recordingBroadcaster)

	for i := 0; i < 4; i++ {
		g.AdvanceQuestion(quiz.SessionID)
	}
	b.reset()

	completed := make(chan struct{})
	go func() {
		g.AdvanceQuestion(quiz.SessionID) // past question 5; parks inside quizComplete
		close(completed)
	}()
	<-b.entered

	// The quiz is still registered while quizComplete is in flight; answers and
	// advances racing the teardown must be rejected, not clamped to question 1.
	raced := make(chan struct{})
	go func() {
		g.SubmitAnswer(quiz.SessionID, "pwd")
		g.AdvanceQuestion(quiz.SessionID)
		close(raced)
	}()
	time.Sleep(10 * time.Millisecond)

	close(b.release)
	<-completed
	<-raced

	events := b.all()
	if len(events) != 1 {
		t.Fatalf("expected exactly one quizComplete, got %+v", events)
	}
	if _, ok := events[0].msg.(QuizCompleteMessage); !ok {
		t.Fatalf("expected quizComplete, got %+v", events[0])
	}
}

func TestQuizOwnerDisconnect(t *testing.T) {
	g, r, b := newTestGame()
	quiz := startedQuiz(t, g, b)

	g.Disconnect("conn-q")

	if _, ok := r.Quiz(quiz.SessionID); ok {
		t.Error("owner disconnect should delete the quiz")
	}
	if events := b.all(); len(events) != 0 {
		t.Errorf("quiz teardown should notify nobody, got %+v", events)
	}
}
