package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestParseSessionID tests session ID parsing from cookie values
func TestParseSessionID(t *testing.T) {
	valid := NewSessionID().String()

	tests := []struct {
		input    string
		hasError bool
	}{
		{valid, false},
		{"", true},
		{"   ", true},
		{"not-a-uuid", true},
	}

	for _, test := range tests {
		result, err := ParseSessionID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError {
			if err != nil {
				t.Errorf("Unexpected error for input '%s': %v", test.input, err)
			}
			if result.String() != test.input {
				t.Errorf("Expected %s, got %s", test.input, result)
			}
		}
	}
}

// TestTypedIDIsEmpty tests the typed IDs expose IsEmpty like ID
func TestTypedIDIsEmpty(t *testing.T) {
	var run LoadRunID
	if !run.IsEmpty() {
		t.Error("zero LoadRunID should be empty")
	}
	if NewLoadRunID().IsEmpty() {
		t.Error("NewLoadRunID returned an empty ID")
	}

	var sess SessionID
	if !sess.IsEmpty() {
		t.Error("zero SessionID should be empty")
	}
	if NewSessionID().IsEmpty() {
		t.Error("NewSessionID returned an empty ID")
	}
}
