package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aretw0/tonnetz"
	"github.com/aretw0/tonnetz/internal/presentation/graph"
	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/lattice"
	"github.com/aretw0/tonnetz/pkg/metrics"
	"github.com/aretw0/tonnetz/pkg/midifile"
	"github.com/aretw0/tonnetz/pkg/palette"
	"github.com/aretw0/tonnetz/pkg/session"
	"github.com/go-chi/chi/v5"
)

// MaxMIDIBytes bounds the body of POST /midi.
const MaxMIDIBytes = 8 << 20

// DefaultFrames is the number of palette transition samples returned when the
// request does not ask for a count.
const DefaultFrames = 11

// Engine defines the interface for the Tonnetz core.
type Engine interface {
	Lattice() *lattice.Lattice
	Build(rows, columns int, spacing float64) (*lattice.Lattice, error)
	Notes() []domain.NoteName
	Select(ctx context.Context, sessionID string, c domain.Coord) (*session.Highlight, error)
	Sweep(ctx context.Context, sessionID string) (*domain.SelectionDiff, error)
	ApplyPalette(ctx context.Context, sessionID, name string) (palette.Transition, *domain.SelectionDiff, error)
	Session(ctx context.Context, sessionID string) (*domain.Selection, error)
	DeleteSession(ctx context.Context, sessionID string) error
	ListSessions(ctx context.Context) ([]string, error)
	ImportMIDI(r io.Reader) (*midifile.Score, error)
	MatchEvents(events []domain.NoteEvent) []tonnetz.Match
	Metrics() *metrics.Collector
	Version() string
}

var _ Engine = (*tonnetz.Engine)(nil)

// Server serves the Engine over HTTP.
type Server struct {
	Engine  Engine
	Streams *StreamManager
}

// NodeDetail is the response of GET /lattice/nodes/{row}/{column}.
type NodeDetail struct {
	Node      domain.Node    `json:"node"`
	Edges     []domain.Edge  `json:"edges"`
	Neighbors []domain.Coord `json:"neighbors"`
	Degree    int            `json:"degree"`
}

// PaletteRequest is the body of PUT /sessions/{id}/palette.
type PaletteRequest struct {
	Name   string `json:"name"`
	Frames int    `json:"frames,omitempty"`
}

// PaletteChange is the response of PUT /sessions/{id}/palette.
type PaletteChange struct {
	From       string          `json:"from"`
	To         string          `json:"to"`
	DurationMS int64           `json:"duration_ms"`
	Frames     []palette.Frame `json:"frames"`
}

// AssignRequest is the body of POST /notes/assign.
type AssignRequest struct {
	Count int               `json:"count"`
	Notes []domain.NoteName `json:"notes,omitempty"`
}

// MIDIImport is the response of POST /midi.
type MIDIImport struct {
	*midifile.Score
	Matches []tonnetz.Match `json:"matches"`
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine) http.Handler {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
	}
	return s.Routes()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	r.Get("/lattice", s.GetLattice)
	r.Get("/lattice/nodes/{row}/{column}", s.GetNode)
	r.Get("/graph.mmd", s.GetGraph)
	r.Get("/palettes", s.GetPalettes)
	r.Post("/notes/assign", s.AssignNotes)
	r.Post("/midi", s.ImportMIDI)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Get("/{id}", s.GetSession)
		r.Delete("/{id}", s.DeleteSession)
		r.Post("/{id}/select", s.Select)
		r.Post("/{id}/sweep", s.Sweep)
		r.Put("/{id}/palette", s.ApplyPalette)
		r.Get("/{id}/events", s.SubscribeEvents)
	})

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Handle("/metrics", s.Engine.Metrics().Handler())

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Tonnetz API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetLattice handles the GET /lattice request.
func (s *Server) GetLattice(w http.ResponseWriter, r *http.Request) {
	l := s.Engine.Lattice()

	q := r.URL.Query()
	if q.Has("rows") || q.Has("columns") || q.Has("spacing") {
		rows, err := intParam(q.Get("rows"), l.Rows())
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid rows: %v", err), http.StatusBadRequest)
			return
		}
		columns, err := intParam(q.Get("columns"), l.Columns())
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid columns: %v", err), http.StatusBadRequest)
			return
		}
		spacing := l.Spacing()
		if v := q.Get("spacing"); v != "" {
			if spacing, err = strconv.ParseFloat(v, 64); err != nil {
				http.Error(w, fmt.Sprintf("Invalid spacing: %v", err), http.StatusBadRequest)
				return
			}
		}

		if l, err = s.Engine.Build(rows, columns, spacing); err != nil {
			writeError(w, "GetLattice", err)
			return
		}
	}

	writeJSON(w, "GetLattice", l)
}

// GetNode handles the GET /lattice/nodes/{row}/{column} request.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	row, errRow := strconv.Atoi(chi.URLParam(r, "row"))
	column, errCol := strconv.Atoi(chi.URLParam(r, "column"))
	if errRow != nil || errCol != nil {
		http.Error(w, "Invalid coordinate", http.StatusBadRequest)
		return
	}

	l := s.Engine.Lattice()
	c := domain.Coord{Row: row, Column: column}
	node, ok := l.Node(c)
	if !ok {
		writeError(w, "GetNode", fmt.Errorf("%w: %s", domain.ErrNodeNotFound, c))
		return
	}

	writeJSON(w, "GetNode", NodeDetail{
		Node:      node,
		Edges:     l.IncidentEdges(c),
		Neighbors: l.Neighbors(c),
		Degree:    l.Degree(c),
	})
}

// GetGraph handles the GET /graph.mmd request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	var overlay *graph.GraphOverlay
	if id := r.URL.Query().Get("session_id"); id != "" {
		sel, err := s.Engine.Session(r.Context(), id)
		if err != nil {
			writeError(w, "GetGraph", err)
			return
		}
		overlay = graph.OverlayFromSelection(sel)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(s.Engine.Lattice(), overlay))
}

// GetPalettes handles the GET /palettes request.
func (s *Server) GetPalettes(w http.ResponseWriter, r *http.Request) {
	all := palette.All()
	resp := make([]palette.Hex, len(all))
	for i, p := range all {
		resp[i] = p.Hex()
	}
	writeJSON(w, "GetPalettes", resp)
}

// AssignNotes handles the POST /notes/assign request.
func (s *Server) AssignNotes(w http.ResponseWriter, r *http.Request) {
	var body AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		slog.Warn("AssignNotes: Invalid request body", "error", err)
		return
	}
	if body.Notes == nil {
		body.Notes = s.Engine.Notes()
	}
	if body.Count > lattice.MaxNodes {
		writeError(w, "AssignNotes", fmt.Errorf("%w: count %d exceeds %d", domain.ErrInvalidDimensions, body.Count, lattice.MaxNodes))
		return
	}

	labels, err := lattice.AssignNotes(body.Count, body.Notes)
	if err != nil {
		writeError(w, "AssignNotes", err)
		return
	}
	writeJSON(w, "AssignNotes", map[string][]domain.NoteName{"notes": labels})
}

// ImportMIDI handles the POST /midi request. The body is the raw file.
func (s *Server) ImportMIDI(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, MaxMIDIBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "MIDI file too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	score, err := s.Engine.ImportMIDI(bytes.NewReader(data))
	if err != nil {
		writeError(w, "ImportMIDI", err)
		return
	}

	writeJSON(w, "ImportMIDI", MIDIImport{
		Score:   score,
		Matches: s.Engine.MatchEvents(score.Events),
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.ListSessions(r.Context())
	if err != nil {
		writeError(w, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, "ListSessions", map[string][]string{"sessions": ids})
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sel, err := s.Engine.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "GetSession", err)
		return
	}
	writeJSON(w, "GetSession", sel)
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Select handles the POST /sessions/{id}/select request.
func (s *Server) Select(w http.ResponseWriter, r *http.Request) {
	var c domain.Coord
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		slog.Warn("Select: Invalid request body", "error", err)
		return
	}

	sessionID := chi.URLParam(r, "id")
	h, err := s.Engine.Select(r.Context(), sessionID, c)
	if err != nil {
		writeError(w, "Select", err)
		return
	}

	s.broadcast(sessionID, h.Diff)
	writeJSON(w, "Select", h)
}

// Sweep handles the POST /sessions/{id}/sweep request.
func (s *Server) Sweep(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	diff, err := s.Engine.Sweep(r.Context(), sessionID)
	if err != nil {
		writeError(w, "Sweep", err)
		return
	}
	if diff == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.broadcast(sessionID, diff)
	writeJSON(w, "Sweep", diff)
}

// ApplyPalette handles the PUT /sessions/{id}/palette request.
func (s *Server) ApplyPalette(w http.ResponseWriter, r *http.Request) {
	var body PaletteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		slog.Warn("ApplyPalette: Invalid request body", "error", err)
		return
	}
	frames := body.Frames
	if frames == 0 {
		frames = DefaultFrames
	}
	if frames < 2 || frames > 120 {
		http.Error(w, "frames must be between 2 and 120", http.StatusBadRequest)
		return
	}

	sessionID := chi.URLParam(r, "id")
	tr, diff, err := s.Engine.ApplyPalette(r.Context(), sessionID, body.Name)
	if err != nil {
		writeError(w, "ApplyPalette", err)
		return
	}

	s.broadcast(sessionID, diff)
	writeJSON(w, "ApplyPalette", PaletteChange{
		From:       tr.From,
		To:         tr.To,
		DurationMS: palette.TransitionDuration.Milliseconds(),
		Frames:     tr.Frames(frames),
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, "GetHealth", map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	} else if err != nil {
		slog.Error("Failed to load OpenAPI spec", "error", err)
	}

	writeJSON(w, "GetInfo", map[string]string{
		"app":         "tonnetz-http",
		"version":     s.Engine.Version(),
		"api_version": apiVersion,
	})
}

func (s *Server) broadcast(sessionID string, diff *domain.SelectionDiff) {
	if diff == nil {
		slog.Debug("No diff calculated", "session_id", sessionID)
		return
	}
	payload, err := json.Marshal(diff)
	if err != nil {
		slog.Error("Diff encode failed", "error", err)
		return
	}
	s.Streams.Broadcast(sessionID, string(payload))
}

// -- Helpers --

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidDimensions),
		errors.Is(err, domain.ErrInvalidSpacing),
		errors.Is(err, domain.ErrEmptyPalette),
		errors.Is(err, domain.ErrUnknownPalette),
		errors.Is(err, domain.ErrInvalidNote):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, midifile.ErrDecode):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error(op+" failed", "error", err)
	} else {
		slog.Warn(op+" rejected", "error", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, op string, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(op+" response encode failed", "error", err)
	}
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
