package metrics

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRunEventToJSON(t *testing.T) {
	event := NewRunEvent("20210905", StageEvaluate)
	event.NonzeroPct = 100
	event.ValidPct = 96.5

	out, err := event.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("event line must be newline terminated")
	}

	decoded := map[string]interface{}{}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["date"] != "20210905" || decoded["stage"] != StageEvaluate {
		t.Errorf("got %v", decoded)
	}
	if decoded["valid_pixels"] != 96.5 {
		t.Errorf("valid_pixels: got %v", decoded["valid_pixels"])
	}
}

func TestRunEventOmitsEmptyFields(t *testing.T) {
	event := NewRunEvent("", StageSearch)
	out, err := event.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "date") {
		t.Errorf("run-level event should omit the date field: %s", out)
	}
	if strings.Contains(out, "error") {
		t.Errorf("clean event should omit the error field: %s", out)
	}
}
