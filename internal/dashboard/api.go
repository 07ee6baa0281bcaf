package dashboard

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/sjvdm/roadprog/internal/cache"
	"github.com/sjvdm/roadprog/internal/reconcile"
	"github.com/sjvdm/roadprog/internal/tracker"
)

// API serves the JSON endpoints backing the dashboard view.
//
// Status rows come from the sqlite cache (cheap, refreshed by the watch
// daemon); summary and progress go through the tracker so their numbers
// always reflect the files, even mid-resync.
type API struct {
	cache   *cache.DB
	tracker *tracker.Tracker
	logger  *log.Logger
}

// NewAPI creates the API handler set.
func NewAPI(db *cache.DB, tr *tracker.Tracker, logger *log.Logger) *API {
	if logger == nil {
		logger = log.Default()
	}
	return &API{cache: db, tracker: tr, logger: logger}
}

// Register attaches the API routes to mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", a.handleStatus)
	mux.HandleFunc("/api/summary", a.handleSummary)
	mux.HandleFunc("/api/progress", a.handleProgress)
	mux.HandleFunc("/api/editors", a.handleEditors)
	mux.HandleFunc("/api/stats", a.handleStats)
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	rows, err := a.cache.StatusRows(r.Context())
	if err != nil {
		a.fail(w, "failed to read status table", err)
		return
	}
	if rows == nil {
		rows = []reconcile.StatusRow{}
	}
	a.respond(w, rows)
}

func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.tracker.Summary()
	if err != nil {
		a.fail(w, "failed to compute summary", err)
		return
	}
	a.respond(w, summary)
}

func (a *API) handleProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := a.tracker.OverallProgress()
	if err != nil {
		a.fail(w, "failed to compute progress", err)
		return
	}
	a.respond(w, progress)
}

func (a *API) handleEditors(w http.ResponseWriter, r *http.Request) {
	editors, err := a.tracker.ListEditors()
	if err != nil {
		a.fail(w, "failed to list editors", err)
		return
	}
	if editors == nil {
		editors = []string{}
	}
	a.respond(w, editors)
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.cache.GetStats(r.Context())
	if err != nil {
		a.fail(w, "failed to read cache stats", err)
		return
	}
	a.respond(w, stats)
}

func (a *API) respond(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Printf("Failed to encode response: %v", err)
	}
}

func (a *API) fail(w http.ResponseWriter, notice string, err error) {
	a.logger.Printf("API error: %s: %v", notice, err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": notice})
}

// BroadcastSync publishes a sync_complete event and fresh stats after a
// cache resync.
func BroadcastSync(s *Server, stats cache.Stats, duration time.Duration) {
	data, err := json.Marshal(SyncData{
		Suburbs:     stats.Suburbs,
		Completions: stats.Completed,
		Duration:    duration,
	})
	if err != nil {
		return
	}
	s.Broadcast(Message{Type: MessageTypeSync, Timestamp: time.Now(), Data: data})

	statsData, err := json.Marshal(stats)
	if err != nil {
		return
	}
	s.Broadcast(Message{Type: MessageTypeStats, Timestamp: time.Now(), Data: statsData})
}
