package main

import "testing"

func TestTally(t *testing.T) {
	tests := []struct {
		name                         string
		statuses                     []string
		wantPass, wantFail, wantSkip int
	}{
		{"empty", nil, 0, 0, 0},
		{"all pass", []string{StatusPass, StatusPass}, 2, 0, 0},
		{"mixed", []string{StatusPass, StatusFail, StatusSkip, StatusSkip}, 1, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make([]Result, 0, len(tt.statuses))
			for _, s := range tt.statuses {
				results = append(results, Result{Status: s})
			}
			pass, fail, skip := tally(results)
			if pass != tt.wantPass || fail != tt.wantFail || skip != tt.wantSkip {
				t.Fatalf("tally = %d/%d/%d, want %d/%d/%d", pass, fail, skip, tt.wantPass, tt.wantFail, tt.wantSkip)
			}
		})
	}
}
