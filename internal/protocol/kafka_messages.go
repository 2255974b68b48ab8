package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/smukkama/farm-report/internal/report"
)

const EventTypeReportGenerated = "REPORT_GENERATED"

// ReportEvent announces a written report on the reports topic
type ReportEvent struct {
	Type         string           `json:"type"`
	RunID        string           `json:"run_id"`
	GeneratedAt  time.Time        `json:"generated_at"`
	ReportPath   string           `json:"report_path"`
	TotalSamples int              `json:"total_samples"`
	Patterns     []PatternSummary `json:"patterns"`
}

// PatternSummary is one cluster of the report. Label and Narrative are
// empty for clusters without members.
type PatternSummary struct {
	Pattern      int     `json:"pattern"`
	Label        string  `json:"label,omitempty"`
	MemberCount  int     `json:"member_count"`
	Temperature  float64 `json:"temperature,omitempty"`
	Illumination float64 `json:"illumination,omitempty"`
	Narrative    string  `json:"narrative,omitempty"`
}

// NewReportEvent builds the event for a report written to path
func NewReportEvent(r *report.Report, path string) *ReportEvent {
	narratives := make(map[int]string, len(r.Interpretations))
	for _, in := range r.Interpretations {
		narratives[in.ClusterID] = in.Narrative
	}

	ev := &ReportEvent{
		Type:         EventTypeReportGenerated,
		RunID:        r.RunID,
		GeneratedAt:  r.GeneratedAt,
		ReportPath:   path,
		TotalSamples: r.TotalSamples,
		Patterns:     make([]PatternSummary, 0, len(r.Clusters)),
	}
	for _, c := range r.Clusters {
		p := PatternSummary{Pattern: c.Pattern, MemberCount: c.MemberCount}
		if c.Valid {
			p.Label = string(r.Label(c.ID))
			p.Temperature = c.Temperature
			p.Illumination = c.Illumination
			p.Narrative = narratives[c.ID]
		}
		ev.Patterns = append(ev.Patterns, p)
	}
	return ev
}

// EncodeReportEvent encodes a ReportEvent to JSON
func EncodeReportEvent(ev *ReportEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// DecodeReportEvent decodes JSON to ReportEvent
func DecodeReportEvent(data []byte) (*ReportEvent, error) {
	var ev ReportEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode report event: %w", err)
	}
	if ev.Type != EventTypeReportGenerated {
		return nil, fmt.Errorf("unexpected event type %q", ev.Type)
	}
	return &ev, nil
}
