package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"slices"
	"time"

	"github.com/aegisguard/aegis/internal/audit"
	"github.com/aegisguard/aegis/internal/metrics"
	"github.com/aegisguard/aegis/internal/model"
)

// Scan verdicts.
const (
	VerdictClean   = "clean"
	VerdictFlagged = "flagged"
)

// Probability of a flagged verdict, in percent. The real detection
// pipeline runs out of process; this stub exists so the dashboard and
// threat flow can be exercised end to end.
const flaggedPercent = 25

// ScanService runs on-demand media scans. Verdicts are randomized
// placeholders until the detection pipeline is wired in; a flagged
// verdict still creates a real threat record for the owner.
type ScanService struct {
	threats *ThreatService
	audit   audit.Sink
	metrics metrics.Recorder
}

// NewScanService creates a new ScanService.
func NewScanService(threats *ThreatService, sink audit.Sink, recorder metrics.Recorder) *ScanService {
	if sink == nil {
		sink = audit.NopSink{}
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ScanService{
		threats: threats,
		audit:   sink,
		metrics: recorder,
	}
}

// ScanInput defines input for requesting a scan.
type ScanInput struct {
	MediaURL string
	Category string
}

// ScanResult is the outcome of a scan request.
type ScanResult struct {
	ID        string        `json:"id"`
	Verdict   string        `json:"verdict"`
	ScannedAt time.Time     `json:"scanned_at"`
	Threat    *model.Threat `json:"threat,omitempty"`
}

// Scan checks the given media for the owner. A flagged verdict
// records a threat attributed to the scan.
func (s *ScanService) Scan(ctx context.Context, ownerID string, input ScanInput) (*ScanResult, error) {
	if err := validateMediaURL(input.MediaURL); err != nil {
		return nil, err
	}

	// Category defaults to deepfake video
	category := model.CategoryDeepfakeVideo
	if input.Category != "" {
		if !slices.Contains(model.ValidThreatCategories, input.Category) {
			return nil, ErrInvalidCategory
		}
		category = input.Category
	}

	result := &ScanResult{
		ID:        newULID(),
		Verdict:   VerdictClean,
		ScannedAt: time.Now().UTC(),
	}

	roll, err := cryptoRandInt(100)
	if err != nil {
		return nil, fmt.Errorf("failed to run scan: %w", err)
	}
	if roll < flaggedPercent {
		result.Verdict = VerdictFlagged

		threat, err := s.threats.Report(ctx, ownerID, ReportThreatInput{
			Source:      "manual_scan",
			Category:    category,
			Severity:    string(model.SeverityHigh),
			Description: "Flagged by on-demand scan",
			MediaURL:    input.MediaURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to record flagged scan: %w", err)
		}
		result.Threat = threat
	}

	s.metrics.IncScanRequested(result.Verdict)
	s.audit.Record(ctx, newEvent(ctx, audit.EventScanRequested, "verdict "+result.Verdict))

	return result, nil
}

// cryptoRandInt returns a cryptographically secure random integer in [0, max).
func cryptoRandInt(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
