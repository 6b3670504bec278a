package models

import "testing"

func TestTaskStatus_Valid(t *testing.T) {
	tests := []struct {
		status   TaskStatus
		expected bool
	}{
		{TaskStatusPending, true},
		{TaskStatusDone, true},
		{"archived", false},
		{"", false},
		{"Done", false},
		{" pending", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.expected {
				t.Errorf("TaskStatus(%q).Valid() = %v, want %v", tt.status, got, tt.expected)
			}
		})
	}
}
