package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave  Action = "autosave"
	ActionViolation Action = "violation"
	ActionSubmit    Action = "submit"
	ActionSync      Action = "sync"
	ActionPing      Action = "ping"
)

// RequestPayload is the single client message shape; unused fields stay empty
// depending on the action.
type RequestPayload struct {
	Action Action `json:"action"`

	// autosave
	QuestionID        string   `json:"question_id,omitempty"`
	SelectedOptionID  *string  `json:"selected_option_id,omitempty"`
	SelectedOptionIDs []string `json:"selected_option_ids,omitempty"`
	NumericAnswer     *float64 `json:"numeric_answer,omitempty"`
	IsFlagged         bool     `json:"is_flagged,omitempty"`
	TimeSpentSeconds  int      `json:"time_spent_seconds,omitempty"`

	// violation
	ViolationType    string `json:"violation_type,omitempty"`
	ViolationDetails string `json:"violation_details,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSaved     Event = "saved"
	EventViolation Event = "violation"
	EventFinished  Event = "finished"
	EventSync      Event = "sync"
	EventPong      Event = "pong"
	EventEnded     Event = "ended"
)

type SavedResponse struct {
	Event      Event  `json:"event"`
	QuestionID string `json:"question_id"`
}

type ViolationResponse struct {
	Event        Event `json:"event"`
	Violations   int   `json:"violations"`
	Disqualified bool  `json:"disqualified"`
}

type FinishedResponse struct {
	Event        Event  `json:"event"`
	Status       string `json:"status"`
	Score        int    `json:"score"`
	TotalCorrect int    `json:"total_correct"`
}

type SyncResponse struct {
	Event            Event   `json:"event"`
	Status           string  `json:"status"`
	RemainingSeconds float64 `json:"remaining_seconds"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

// EndedResponse tells the client the attempt is terminal and writes must stop.
type EndedResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}
