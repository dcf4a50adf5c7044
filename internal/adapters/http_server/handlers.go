package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"thefix/internal/adapters/ratelimit"
	"thefix/internal/app"
	"thefix/internal/domain"
)

const nearbyDefaultLimit = 5

type Handlers struct {
	Locator *app.LocatorService
	Support *app.SupportService
	Stores  []domain.StoreLocation
	Catalog []domain.ServiceEntry
	Tickets domain.TicketLog // nil when the spreadsheet is unconfigured
	Limiter *ratelimit.Limiter

	// TicketsOrigin is the storefront origin allowed to POST /api/tickets.
	TicketsOrigin string
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/api", func(r chi.Router) {
		r.Get("/geocode", h.geocode)
		r.Get("/locations", h.listLocations)
		r.Get("/locations/nearby", h.nearbyLocations)
		r.Get("/services", h.listServices)
		r.Post("/support", h.support)

		r.Route("/tickets", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: []string{h.TicketsOrigin},
				AllowedMethods: []string{"POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type"},
			}))
			r.Post("/", h.appendTicket)
		})
	})
}

/********** response helpers **********/

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

/********** store locator **********/

func (h *Handlers) geocode(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeMessage(w, http.StatusBadRequest, "Supply a query")
		return
	}

	key := remoteIP(r)
	if key == "" {
		key = "anonymous"
	}
	if !h.Limiter.Allow(r.Context(), key) {
		writeMessage(w, http.StatusTooManyRequests, "Too many requests. Try again soon.")
		return
	}

	res, err := h.Locator.Resolve(r.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "No coordinates found for that search.")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Search is unavailable right now.")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) listLocations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Stores)
}

func (h *Handlers) nearbyLocations(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid latitude")
		return
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid longitude")
		return
	}
	origin := domain.Coordinate{Lat: lat, Lng: lng}
	if !origin.Valid() {
		writeMessage(w, http.StatusBadRequest, "Coordinates out of range")
		return
	}

	limit := nearbyDefaultLimit
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 20 {
			writeMessage(w, http.StatusBadRequest, "limit must be an integer between 1 and 20")
			return
		}
		limit = l
	}

	writeJSON(w, http.StatusOK, h.Locator.Nearest(origin, limit))
}

/********** catalog **********/

func (h *Handlers) listServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Catalog)
}

/********** support **********/

type supportRequest struct {
	Mode     string                `json:"mode"`
	Messages []domain.ChatMessage  `json:"messages"`
	Payload  *domain.TicketPayload `json:"payload"`

	// bare-payload form: the ticket fields arrive at the top level
	domain.TicketPayload
}

func (h *Handlers) support(w http.ResponseWriter, r *http.Request) {
	var req supportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Mode == "chat" {
		reply, err := h.Support.ChatReply(r.Context(), req.Messages)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid chat request")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
		return
	}

	payload := req.TicketPayload
	if req.Payload != nil {
		payload = *req.Payload
	}
	resp, err := h.Support.CreateTicket(r.Context(), payload)
	if err != nil {
		if errors.Is(err, app.ErrValidation) {
			writeMessage(w, http.StatusBadRequest, "Invalid ticket payload")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Could not create the ticket.")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

/********** ticket audit log **********/

type ticketRow struct {
	TicketID string `json:"ticketId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Device   string `json:"device"`
	Category string `json:"category"`
	Location string `json:"location"`
}

func (row ticketRow) valid() bool {
	if row.TicketID == "" || row.Name == "" || row.Device == "" || row.Category == "" || row.Location == "" {
		return false
	}
	_, err := mail.ParseAddress(row.Email)
	return err == nil
}

func (h *Handlers) appendTicket(w http.ResponseWriter, r *http.Request) {
	if h.Tickets == nil {
		log.Error().Msg("ticket log requested but spreadsheet is not configured")
		writeMessage(w, http.StatusInternalServerError, "Failed to log ticket")
		return
	}

	var row ticketRow
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if !row.valid() {
		writeMessage(w, http.StatusBadRequest, "Invalid ticket payload")
		return
	}

	err := h.Tickets.Append(r.Context(), []string{
		time.Now().UTC().Format(time.RFC3339),
		row.TicketID, row.Name, row.Email, row.Device, row.Category, row.Location,
	})
	if err != nil {
		log.Error().Err(err).Str("ticketId", row.TicketID).Msg("ticket append failed")
		writeMessage(w, http.StatusInternalServerError, "Failed to log ticket")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
