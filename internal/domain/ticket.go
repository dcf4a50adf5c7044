package domain

// TicketPayload is the inbound support ticket form.
type TicketPayload struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Device      string `json:"device"`
	Category    string `json:"category"`
	Description string `json:"description"`
	LocationID  string `json:"locationId"`
	Consent     bool   `json:"consent,omitempty"`
}

// TicketSummary is the three-field summary produced for a new ticket.
type TicketSummary struct {
	ProblemBrief    string
	Urgency         string
	SuggestedAction string
}

// ChatMessage is a single support-chat turn.
type ChatMessage struct {
	Role    string `json:"role"` // user|assistant
	Content string `json:"content"`
}
