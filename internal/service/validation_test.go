package service

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCreateSubscriptionValidationErrors(t *testing.T) {
	svc := &SubscriptionService{}

	tests := []struct {
		name    string
		input   CreateSubscriptionInput
		wantErr error
	}{
		{
			name:    "unknown_plan",
			input:   CreateSubscriptionInput{PlanID: "platinum"},
			wantErr: ErrUnknownPlan,
		},
		{
			name:    "empty_plan",
			input:   CreateSubscriptionInput{PlanID: ""},
			wantErr: ErrUnknownPlan,
		},
		{
			name:    "invalid_billing_cycle",
			input:   CreateSubscriptionInput{PlanID: "pro", BillingCycle: "weekly"},
			wantErr: ErrInvalidBillingCycle,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "user-1", test.input)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
		})
	}
}

func TestUpdateSubscriptionValidationErrors(t *testing.T) {
	svc := &SubscriptionService{}

	badPlan := "platinum"
	badCycle := "weekly"
	badStatus := "paused"

	tests := []struct {
		name    string
		input   UpdateSubscriptionInput
		wantErr error
	}{
		{"empty_patch", UpdateSubscriptionInput{}, ErrEmptyPatch},
		{"unknown_plan", UpdateSubscriptionInput{PlanID: &badPlan}, ErrUnknownPlan},
		{"invalid_billing_cycle", UpdateSubscriptionInput{BillingCycle: &badCycle}, ErrInvalidBillingCycle},
		{"invalid_status", UpdateSubscriptionInput{Status: &badStatus}, ErrInvalidStatus},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), "user-1", test.input)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
		})
	}
}

func TestUpdateProtectionEmptyPatch(t *testing.T) {
	svc := &ProtectionService{}

	_, err := svc.Update(context.Background(), "user-1", UpdateProtectionInput{})
	if !errors.Is(err, ErrEmptyPatch) {
		t.Fatalf("expected %v, got %v", ErrEmptyPatch, err)
	}
}

func TestReportThreatValidationErrors(t *testing.T) {
	svc := &ThreatService{}

	longDescription := strings.Repeat("a", maxDescriptionLength+1)

	tests := []struct {
		name    string
		input   ReportThreatInput
		wantErr error
	}{
		{
			name:    "missing_source",
			input:   ReportThreatInput{Category: "voice_clone"},
			wantErr: ErrInvalidSource,
		},
		{
			name:    "unknown_category",
			input:   ReportThreatInput{Source: "monitoring", Category: "alien_signal"},
			wantErr: ErrInvalidCategory,
		},
		{
			name:    "invalid_severity",
			input:   ReportThreatInput{Source: "monitoring", Category: "voice_clone", Severity: "extreme"},
			wantErr: ErrInvalidSeverity,
		},
		{
			name: "description_too_long",
			input: ReportThreatInput{
				Source:      "monitoring",
				Category:    "voice_clone",
				Description: longDescription,
			},
			wantErr: ErrDescriptionTooLong,
		},
		{
			name: "bad_media_url",
			input: ReportThreatInput{
				Source:   "monitoring",
				Category: "voice_clone",
				MediaURL: "ftp://example.com/clip.mp4",
			},
			wantErr: ErrInvalidMediaURL,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := svc.Report(context.Background(), "user-1", test.input)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
		})
	}
}

func TestUpdateThreatValidationErrors(t *testing.T) {
	svc := &ThreatService{}

	badStatus := "ignored"
	badSeverity := "extreme"

	tests := []struct {
		name    string
		input   UpdateThreatInput
		wantErr error
	}{
		{"empty_patch", UpdateThreatInput{}, ErrEmptyPatch},
		{"invalid_status", UpdateThreatInput{Status: &badStatus}, ErrInvalidStatus},
		{"invalid_severity", UpdateThreatInput{Severity: &badSeverity}, ErrInvalidSeverity},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), "threat-1", "user-1", test.input)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
		})
	}
}

func TestListThreatsInvalidStatus(t *testing.T) {
	svc := &ThreatService{}

	_, err := svc.List(context.Background(), "user-1", ListThreatsInput{Status: "ignored"})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected %v, got %v", ErrInvalidStatus, err)
	}
}

func TestScanValidationErrors(t *testing.T) {
	svc := &ScanService{}

	tests := []struct {
		name    string
		input   ScanInput
		wantErr error
	}{
		{"missing_media_url", ScanInput{}, ErrInvalidMediaURL},
		{"bad_scheme", ScanInput{MediaURL: "ftp://example.com/clip.mp4"}, ErrInvalidMediaURL},
		{"no_host", ScanInput{MediaURL: "https://"}, ErrInvalidMediaURL},
		{"unknown_category", ScanInput{MediaURL: "https://example.com/clip.mp4", Category: "alien_signal"}, ErrInvalidCategory},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := svc.Scan(context.Background(), "user-1", test.input)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
		})
	}
}

func TestValidateMediaURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"empty", "", ErrInvalidMediaURL},
		{"invalid_scheme", "ftp://example.com", ErrInvalidMediaURL},
		{"missing_host", "https://", ErrInvalidMediaURL},
		{"valid_https", "https://example.com/clip.mp4", nil},
		{"valid_http", "http://example.com/clip.mp4", nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := validateMediaURL(test.raw)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
		})
	}
}
