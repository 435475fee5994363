// Package api exposes the engine's runtime state over HTTP for operators:
// live flows, recent alerts and pipeline counters.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"FlowSentry/internal/alerter"
	"FlowSentry/internal/engine/pipeline"
	"FlowSentry/internal/model"
)

// defaultFlowLimit caps the /flows response when no limit is given.
const defaultFlowLimit = 100

// Server wraps the HTTP API around a running pipeline.
type Server struct {
	srv      *http.Server
	pipeline *pipeline.Pipeline
	alerter  *alerter.Alerter
	started  time.Time
}

// NewServer builds the router and binds it to addr.
func NewServer(addr string, p *pipeline.Pipeline, al *alerter.Alerter) *Server {
	s := &Server{
		pipeline: p,
		alerter:  al,
		started:  time.Now(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/flows", s.handleFlows).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/alerts", s.handleAlerts).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	log.Printf("API server listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type statsResponse struct {
	Flows         int     `json:"flows"`
	Processed     uint64  `json:"processed"`
	Dropped       uint64  `json:"dropped"`
	Filtered      uint64  `json:"filtered"`
	Alerts        int     `json:"alerts"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Flows:         s.pipeline.FlowCount(),
		Processed:     s.pipeline.Processed(),
		Dropped:       s.pipeline.Dropped(),
		Filtered:      s.pipeline.Filtered(),
		UptimeSeconds: time.Since(s.started).Seconds(),
	}
	if s.alerter != nil {
		resp.Alerts = len(s.alerter.Recent())
	}
	writeJSON(w, resp)
}

type flowResponse struct {
	SrcIP         string  `json:"src_ip"`
	DstIP         string  `json:"dst_ip"`
	SrcPort       uint16  `json:"src_port"`
	DstPort       uint16  `json:"dst_port"`
	Protocol      string  `json:"protocol"`
	StartTime     string  `json:"start_time"`
	FwdPackets    int     `json:"fwd_packets"`
	BwdPackets    int     `json:"bwd_packets"`
	Label         string  `json:"label"`
	Confidence    float64 `json:"confidence"`
	ClassifyCount uint64  `json:"classify_count"`
}

func (s *Server) handleFlows(w http.ResponseWriter, r *http.Request) {
	limit := defaultFlowLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	snaps := s.pipeline.FlowSnapshots()
	if len(snaps) > limit {
		snaps = snaps[:limit]
	}

	flows := make([]flowResponse, 0, len(snaps))
	for _, snap := range snaps {
		fr := flowResponse{
			SrcIP:         snap.SrcIP.String(),
			DstIP:         snap.DstIP.String(),
			SrcPort:       snap.SrcPort,
			DstPort:       snap.DstPort,
			Protocol:      model.ProtocolName(snap.Protocol),
			StartTime:     snap.StartTime.Format(time.RFC3339Nano),
			FwdPackets:    len(snap.Fwd),
			BwdPackets:    len(snap.Bwd),
			Label:         snap.LastLabel,
			ClassifyCount: snap.ClassifyCount,
		}
		if snap.LastClassification != nil {
			fr.Confidence = snap.LastClassification.Confidence
		}
		flows = append(flows, fr)
	}
	writeJSON(w, flows)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if s.alerter == nil {
		writeJSON(w, []model.Alert{})
		return
	}
	writeJSON(w, s.alerter.Recent())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding API response: %v", err)
	}
}
