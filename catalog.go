package main

// Puzzle Duo content tables.
//
// The cooperative game walks two players through assembling shell commands:
// Player A holds the hint, Player B (mostly) holds the keyboard, and each stage
// defines which seat must contribute each piece, in order. Stage 2 is the older
// single-answer style, kept for variety: either player may answer, no ordering.
//
// The quiz is a solo, linear run of Linux trivia with explanations.
//
// Both tables are static and versionless; out-of-range indices clamp to the
// first entry rather than erroring.

const (
	defaultClearMessage = "Stage clear!"
	defaultFailMessage  = "Incorrect. Reset and try again."
	gameCompleteMessage = "All stages cleared. Well played!"
	quizCompleteMessage = "Quiz complete. You know your way around a shell."
)

// SequenceStep is one required contribution: which seat must send which value.
type SequenceStep struct {
	Role  string `json:"role"`
	Value string `json:"value"`
}

// PuzzleView is the client-safe projection of a puzzle. Correct sequences and
// answers never leave the server.
type PuzzleView struct {
	Kind    string   `json:"kind"` // "sequence" or "answer"
	Hint    string   `json:"hint"`
	Options []string `json:"options"`
	Length  int      `json:"length,omitempty"` // steps in a sequence puzzle
}

// Puzzle is the tagged union over the two puzzle shapes. Validation logic
// type-switches on the concrete type; nothing sniffs fields.
type Puzzle interface {
	// NextRole names the seat expected to act given the accepted progress so
	// far, or "" when no ordered step remains.
	NextRole(progress []ProgressStep) string
	View() PuzzleView
	ClearMessage() string
	FailMessage() string
}

// SequencePuzzle requires an exact ordered sequence of (role, value) steps.
type SequencePuzzle struct {
	Hint     string
	Sequence []SequenceStep
	Options  []string
	OnClear  string
	OnFail   string
}

func (p *SequencePuzzle) NextRole(progress []ProgressStep) string {
	if len(progress) >= len(p.Sequence) {
		return ""
	}
	return p.Sequence[len(progress)].Role
}

func (p *SequencePuzzle) View() PuzzleView {
	return PuzzleView{
		Kind:    "sequence",
		Hint:    p.Hint,
		Options: p.Options,
		Length:  len(p.Sequence),
	}
}

func (p *SequencePuzzle) ClearMessage() string {
	if p.OnClear != "" {
		return p.OnClear
	}
	return defaultClearMessage
}

func (p *SequencePuzzle) FailMessage() string {
	if p.OnFail != "" {
		return p.OnFail
	}
	return defaultFailMessage
}

// AnswerPuzzle requires a single correct value from either seat.
type AnswerPuzzle struct {
	Hint    string
	Answer  string
	Options []string
	OnClear string
	OnFail  string
}

func (p *AnswerPuzzle) NextRole(progress []ProgressStep) string {
	return ""
}

func (p *AnswerPuzzle) View() PuzzleView {
	return PuzzleView{
		Kind:    "answer",
		Hint:    p.Hint,
		Options: p.Options,
	}
}

func (p *AnswerPuzzle) ClearMessage() string {
	if p.OnClear != "" {
		return p.OnClear
	}
	return defaultClearMessage
}

func (p *AnswerPuzzle) FailMessage() string {
	if p.OnFail != "" {
		return p.OnFail
	}
	return defaultFailMessage
}

// Question is one quiz entry. Answer matching is exact and case-sensitive.
type Question struct {
	Prompt      string
	Options     []string
	Answer      string
	Explanation string
}

// QuestionView withholds the answer and explanation.
type QuestionView struct {
	Prompt  string   `json:"question"`
	Options []string `json:"options"`
}

func (q Question) View() QuestionView {
	return QuestionView{
		Prompt:  q.Prompt,
		Options: q.Options,
	}
}

// Catalog bundles the puzzle stages and quiz questions for one server.
type Catalog struct {
	puzzles   []Puzzle
	questions []Question
}

// PuzzleForStage returns the puzzle for a 1-based stage number, clamping
// out-of-range stages to the first entry.
func (c *Catalog) PuzzleForStage(stage int) Puzzle {
	if stage < 1 || stage > len(c.puzzles) {
		return c.puzzles[0]
	}
	return c.puzzles[stage-1]
}

// MaxStage is the highest playable stage number.
func (c *Catalog) MaxStage() int {
	return len(c.puzzles)
}

// QuestionAt returns the question for a 1-based id, clamping out-of-range ids
// to the first entry.
func (c *Catalog) QuestionAt(id int) Question {
	if id < 1 || id > len(c.questions) {
		return c.questions[0]
	}
	return c.questions[id-1]
}

// QuestionCount is the fixed quiz length.
func (c *Catalog) QuestionCount() int {
	return len(c.questions)
}

func defaultCatalog() *Catalog {
	return &Catalog{
		puzzles: []Puzzle{
			&SequencePuzzle{
				Hint: "Search /var/log for anything with \"secret\" in the name. " +
					"A starts the command, B supplies the target, and so on, one word each.",
				Sequence: []SequenceStep{
					{Role: "A", Value: "find"},
					{Role: "B", Value: "/var/log"},
					{Role: "A", Value: "-name"},
					{Role: "B", Value: "\"*secret*\""},
				},
				Options: []string{"find", "grep", "/var/log", "/etc", "-name", "-type", "\"*secret*\"", "\"*.log\""},
				OnClear: "The hidden logs are yours. On to the next terminal.",
			},
			&AnswerPuzzle{
				Hint: "The owner may read and write this file; the group and everyone " +
					"else may only read it. Which chmod mode fits?",
				Answer:  "644",
				Options: []string{"600", "644", "755", "777"},
				OnClear: "Permissions locked down. Keep moving.",
			},
			&SequencePuzzle{
				Hint: "Hunt for hardcoded passwords across the system configuration, " +
					"recursively. Same drill: alternate seats, one word at a time.",
				Sequence: []SequenceStep{
					{Role: "A", Value: "grep"},
					{Role: "B", Value: "-r"},
					{Role: "A", Value: "\"password\""},
					{Role: "B", Value: "/etc"},
				},
				Options: []string{"grep", "find", "-r", "-i", "\"password\"", "\"secret\"", "/etc", "/home"},
				OnClear: "Every credential accounted for. Final firewall down.",
			},
		},
		questions: []Question{
			{
				Prompt:      "Which command prints the current working directory?",
				Options:     []string{"pwd", "ls", "cd", "whoami"},
				Answer:      "pwd",
				Explanation: "pwd stands for \"print working directory\" and writes the absolute path of the shell's current directory.",
			},
			{
				Prompt:      "Which command lists all files in a directory, including hidden ones?",
				Options:     []string{"ls -l", "ls -a", "ls -h", "ls -r"},
				Answer:      "ls -a",
				Explanation: "The -a flag tells ls to include entries whose names begin with a dot, which are hidden by default.",
			},
			{
				Prompt:      "Which signal does the kill command send when none is specified?",
				Options:     []string{"SIGKILL", "SIGTERM", "SIGHUP", "SIGSTOP"},
				Answer:      "SIGTERM",
				Explanation: "kill defaults to SIGTERM, a polite request to exit that the process may catch and handle; SIGKILL cannot be caught.",
			},
			{
				Prompt:      "Which command shows the last ten lines of a file?",
				Options:     []string{"head", "tail", "less", "cat"},
				Answer:      "tail",
				Explanation: "tail prints the end of a file, ten lines unless told otherwise; tail -f keeps following as the file grows.",
			},
			{
				Prompt:      "Which command changes the owner of a file?",
				Options:     []string{"chmod", "chown", "chgrp", "usermod"},
				Answer:      "chown",
				Explanation: "chown changes a file's owning user (and optionally group); chmod only changes permission bits.",
			},
		},
	}
}
