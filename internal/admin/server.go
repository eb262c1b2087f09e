package admin

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"satops-plan/internal/plan"
	"satops-plan/internal/session"
)

// Server exposes a small monitoring UI over the planning engine and the
// discussion registry.
type Server struct {
	Engine   *plan.Engine
	Sessions *session.MemoryStore
	trigger  func()
	tpl      *template.Template
}

//go:embed templates/index.html
var content embed.FS

// NewServer creates an admin server. trigger, if non-nil, is invoked by the
// /trigger-cycle endpoint to request an out-of-band planning cycle.
func NewServer(engine *plan.Engine, sessions *session.MemoryStore, trigger func()) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	return &Server{Engine: engine, Sessions: sessions, trigger: trigger, tpl: tpl}
}

func (s *Server) routes() {
	http.HandleFunc("/", s.handleIndex)
	http.HandleFunc("/current-cycle", s.handleCurrentCycle)
	http.HandleFunc("/cycles", s.handleHistory)
	http.HandleFunc("/sessions", s.handleSessions)
	http.HandleFunc("/trigger-cycle", s.handleTrigger)
}

func (s *Server) Start(addr string) error {
	s.routes()
	return http.ListenAndServe(addr, nil)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	current, running := s.Engine.CurrentCycle()
	data := struct {
		Running  bool
		Current  plan.Cycle
		Counter  int64
		History  []plan.Cycle
		Sessions []session.Handle
	}{
		Running:  running,
		Current:  current,
		Counter:  s.Engine.Counter(),
		History:  s.Engine.History(),
		Sessions: s.Sessions.Snapshot(),
	}
	s.tpl.Execute(w, data)
}

func (s *Server) handleCurrentCycle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	current, ok := s.Engine.CurrentCycle()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"running": false})
		return
	}
	json.NewEncoder(w).Encode(current)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Engine.History())
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Sessions.Snapshot())
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.trigger == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	s.trigger()
	w.WriteHeader(http.StatusAccepted)
}
