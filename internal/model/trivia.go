package model

import "time"

// Clue is an immutable source prompt from the ingestion corpus. Its id
// defines the total order the batch processor cursors over.
type Clue struct {
	ID        int64     `json:"id"`
	Category  string    `json:"category"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// TriviaQuestion is the multiple-choice artifact derived from a Clue.
// It is never mutated after creation.
type TriviaQuestion struct {
	ID            int64     `json:"id"`
	ClueID        int64     `json:"clue_id"`
	Question      string    `json:"question"`
	CorrectAnswer string    `json:"correct_answer"`
	WrongAnswers  [3]string `json:"wrong_answers"`
	Model         string    `json:"model"`
	CreatedAt     time.Time `json:"created_at"`

	// Clue is populated by store reads that join the source clue.
	Clue *Clue `json:"clue,omitempty"`
}

// TriviaDraft is an in-memory candidate produced by the generation
// client, not yet persisted. Field names match the structured output
// shape requested from the model.
type TriviaDraft struct {
	Question      string   `json:"question"`
	CorrectAnswer string   `json:"correctAnswer"`
	WrongAnswers  []string `json:"wrongAnswers"`
}
