package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"thefix/internal/domain"
)

// ErrValidation marks malformed request payloads; handlers map it to a
// 400 and never retry.
var ErrValidation = errors.New("invalid payload")

const ticketSystemPrompt = `You are The Fix support concierge. Collect the customer's details and craft:
- problemBrief: one-sentence description of device + issue
- urgency: classify as high/medium/low with short reason
- suggestedAction: next step with reassurance, mention backups/warranty if relevant.
Use warm, concise tone.`

const chatSystemPrompt = `You are FixBot, a helpful support assistant for The Fix electronics repair shops.
- Ask focused clarifying questions.
- Share pricing ranges or timelines only when confident.
- Encourage scheduling a visit, booking online, or using curbside drop-off.
- Keep responses under 120 words and use a friendly, professional voice.`

// TicketResponse is what a successful ticket submission returns.
type TicketResponse struct {
	TicketID  string `json:"ticketId"`
	Summary   string `json:"summary"`
	NextSteps string `json:"nextSteps"`
}

// SupportService validates support requests and asks the completion
// collaborator for a summary or chat reply. The collaborator may be nil
// (unconfigured) and may fail; either way the caller gets a
// deterministic canned response, never an error from that path.
type SupportService struct {
	completer domain.Completer
	stores    []domain.StoreLocation
}

func NewSupportService(c domain.Completer, stores []domain.StoreLocation) *SupportService {
	return &SupportService{completer: c, stores: stores}
}

/********** ticket intake **********/

// CreateTicket validates the payload, summarizes it and assigns an ID.
// Validation failures are the only error; the summarization collaborator
// being down degrades to the canned summary.
func (s *SupportService) CreateTicket(ctx context.Context, p domain.TicketPayload) (TicketResponse, error) {
	if err := validateTicket(p); err != nil {
		return TicketResponse{}, err
	}

	locationName := s.locationName(p.LocationID)
	summary := s.summarize(ctx, p, locationName)
	id := "FIX-" + strings.ToUpper(uuid.NewString()[:8])

	log.Info().
		Str("ticketId", id).
		Str("device", p.Device).
		Str("category", p.Category).
		Str("location", firstNonEmpty(locationName, p.LocationID)).
		Msg("support ticket created")

	return TicketResponse{
		TicketID:  id,
		Summary:   fmt.Sprintf("%s (Urgency: %s)", summary.ProblemBrief, summary.Urgency),
		NextSteps: summary.SuggestedAction,
	}, nil
}

func validateTicket(p domain.TicketPayload) error {
	switch {
	case len(strings.TrimSpace(p.Name)) < 2:
		return fmt.Errorf("%w: name must be at least 2 characters", ErrValidation)
	case !validEmail(p.Email):
		return fmt.Errorf("%w: email is not valid", ErrValidation)
	case len(strings.TrimSpace(p.Device)) < 2:
		return fmt.Errorf("%w: device must be at least 2 characters", ErrValidation)
	case len(strings.TrimSpace(p.Category)) < 2:
		return fmt.Errorf("%w: category must be at least 2 characters", ErrValidation)
	case len(strings.TrimSpace(p.Description)) < 10:
		return fmt.Errorf("%w: description must be at least 10 characters", ErrValidation)
	case strings.TrimSpace(p.LocationID) == "":
		return fmt.Errorf("%w: locationId is required", ErrValidation)
	}
	return nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	return err == nil && addr.Address == strings.TrimSpace(s)
}

func (s *SupportService) locationName(id string) string {
	for _, st := range s.stores {
		if st.ID == id {
			return st.Name
		}
	}
	return ""
}

func (s *SupportService) summarize(ctx context.Context, p domain.TicketPayload, locationName string) domain.TicketSummary {
	if s.completer == nil {
		return cannedSummary(p)
	}

	content := fmt.Sprintf("Customer: %s\nEmail: %s\nDevice: %s\nCategory: %s\nLocation: %s\nDescription: %s",
		p.Name, p.Email, p.Device, p.Category, firstNonEmpty(locationName, "unspecified"), p.Description)

	text, err := s.completer.Complete(ctx, ticketSystemPrompt, []domain.ChatMessage{{Role: "user", Content: content}})
	if err != nil {
		log.Warn().Err(err).Msg("summarization unavailable, using canned summary")
		return cannedSummary(p)
	}
	return parseSummary(text)
}

func cannedSummary(p domain.TicketPayload) domain.TicketSummary {
	brief := fmt.Sprintf("%s reported for %s issue. %s", p.Device, strings.ToLower(p.Category), p.Description)
	if len(brief) > 220 {
		brief = brief[:220]
	}
	return domain.TicketSummary{
		ProblemBrief:    brief,
		Urgency:         "medium – schedule repair within 24 hours.",
		SuggestedAction: "Our Midtown team will reach out shortly to confirm appointment options. Please back up your data if possible before drop-off.",
	}
}

var (
	briefPrefix  = regexp.MustCompile(`(?i)^problem[ a-z]*[:\-]\s*`)
	urgentPrefix = regexp.MustCompile(`(?i)^urgency[:\-]\s*`)
	actionPrefix = regexp.MustCompile(`(?i)^(next\s*steps?|suggested action)[:\-]\s*`)
)

// parseSummary matches labeled lines in the free-form reply, falling
// back to positional heuristics (first/last non-empty line) when the
// model skipped the labels.
func parseSummary(text string) domain.TicketSummary {
	var segments []string
	for _, line := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			segments = append(segments, t)
		}
	}

	out := domain.TicketSummary{
		ProblemBrief:    "Device issue summary unavailable.",
		Urgency:         "medium – review details with the customer.",
		SuggestedAction: "Please follow up with the customer.",
	}
	if len(segments) > 0 {
		out.ProblemBrief = segments[0]
		out.SuggestedAction = segments[len(segments)-1]
	}
	for _, seg := range segments {
		lower := strings.ToLower(seg)
		switch {
		case strings.HasPrefix(lower, "problem"):
			out.ProblemBrief = briefPrefix.ReplaceAllString(seg, "")
		case strings.HasPrefix(lower, "urgency"):
			out.Urgency = urgentPrefix.ReplaceAllString(seg, "")
		case actionPrefix.MatchString(seg):
			out.SuggestedAction = actionPrefix.ReplaceAllString(seg, "")
		}
	}
	return out
}

/********** chat **********/

var (
	pricePattern      = regexp.MustCompile(`(?i)price|cost`)
	turnaroundPattern = regexp.MustCompile(`(?i)how long|turnaround|time`)
)

// ChatReply relays the conversation to the completion collaborator,
// degrading to deterministic canned replies when it is unconfigured or
// unavailable.
func (s *SupportService) ChatReply(ctx context.Context, msgs []domain.ChatMessage) (string, error) {
	if len(msgs) == 0 {
		return "", fmt.Errorf("%w: at least one message is required", ErrValidation)
	}
	for _, m := range msgs {
		if m.Role != "user" && m.Role != "assistant" {
			return "", fmt.Errorf("%w: message role must be user or assistant", ErrValidation)
		}
		if strings.TrimSpace(m.Content) == "" {
			return "", fmt.Errorf("%w: message content is required", ErrValidation)
		}
	}

	if s.completer == nil {
		return cannedChatReply(msgs[len(msgs)-1].Content), nil
	}

	reply, err := s.completer.Complete(ctx, chatSystemPrompt, msgs)
	if err != nil {
		log.Warn().Err(err).Msg("chat completion unavailable, using canned reply")
		return cannedChatReply(msgs[len(msgs)-1].Content), nil
	}
	if strings.TrimSpace(reply) == "" {
		return "Let me double-check that for you.", nil
	}
	return reply, nil
}

func cannedChatReply(latest string) string {
	switch {
	case pricePattern.MatchString(latest):
		return "Screen repairs typically start at $99 and batteries at $69, depending on the device. Let me know which model you have and I can narrow it down."
	case turnaroundPattern.MatchString(latest):
		return "Most phone repairs finish the same day, often within 2 hours. Drop-offs after 5pm may be ready next morning."
	default:
		return "Thanks for the details! I will package this up for our human team and they will follow up shortly."
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
