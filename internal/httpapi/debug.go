package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/tailscale/tailsql/server/tailsql"

	"tailscale.com/tsweb"
)

// tailBroadcaster fans fusion_state transitions out to subscribed SSE
// clients, following the serial port tail pattern: one channel per
// subscriber, closed on Unsubscribe.
type tailBroadcaster struct {
	mu          sync.Mutex
	subscribers map[string]chan string
}

func newTailBroadcaster() *tailBroadcaster {
	return &tailBroadcaster{subscribers: make(map[string]chan string)}
}

func (b *tailBroadcaster) subscribe() (string, chan string) {
	id := randomHex(8)
	ch := make(chan string, 16)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *tailBroadcaster) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

func (b *tailBroadcaster) publish(cameraID, from, to, requestID string) {
	line := fmt.Sprintf("%s: %s -> %s (request_id=%s)", cameraID, from, to, requestID)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- line:
		default:
		}
	}
}

func randomHex(n int) string {
	buf := make([]byte, n)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}

func (s *Server) attachDebugRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("tail", "live fusion_state transition feed (SSE)", s.handleDebugTail)

	mux.HandleFunc("/debug/settling/{id}", s.handleSettlingChart)
	debug.HandleFunc("settling", "per-camera settling trace charts", s.handleSettlingIndex)

	if s.auditDB != nil {
		tsql, err := tailsql.NewServer(tailsql.Options{
			RoutePrefix: "/debug/tailsql/",
		})
		if err != nil {
			log.Printf("httpapi: failed to create tailsql server: %v", err)
		} else {
			tsql.SetDB("sqlite://audit.db", s.auditDB.DB(), &tailsql.DBOptions{
				Label: "Audit DB",
			})
			debug.Handle("tailsql/", "SQL live debugging over the audit log", tsql.NewMux())
		}
	}
}

func (s *Server) handleDebugTail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	id, ch := s.tail.subscribe()
	defer s.tail.unsubscribe(id)

	w.Write([]byte(": ping\n\n"))
	flusher.Flush()

	for {
		select {
		case line, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", line)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleSettlingIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintln(w, "<html><body><h1>settling traces</h1><ul>")
	for _, id := range s.cameraIDs {
		fmt.Fprintf(w, `<li><a href="/debug/settling/%s">%s</a></li>`, id, id)
	}
	fmt.Fprintln(w, "</ul></body></html>")
}

// handleSettlingChart renders one camera's settling-loop mean-intensity
// trace as a go-echarts line chart.
func (s *Server) handleSettlingChart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	trace, ok := s.traces[id]
	if !ok {
		http.NotFound(w, r)
		return
	}

	samples := trace.Snapshot()
	xs := make([]string, len(samples))
	ys := make([]opts.LineData, len(samples))
	for i, sample := range samples {
		xs[i] = sample.At.Format("15:04:05.000")
		ys[i] = opts.LineData{Value: sample.Mean}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "settling trace " + id, Theme: "dark", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Settling trace", Subtitle: "camera " + id}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "mean intensity", Min: 0, Max: 255}),
	)
	line.SetXAxis(xs).AddSeries("mean", ys)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := line.Render(w); err != nil {
		log.Printf("httpapi: render settling chart for %q: %v", id, err)
	}
}
