package api

import (
	"encoding/json"
	"testing"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{`"abc"`, "abc"},
		{`42`, "42"},
		{`null`, ""},
	}
	for _, tt := range tests {
		var id ID
		if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.in, err)
		}
		if id != tt.want {
			t.Errorf("unmarshal %s = %q, want %q", tt.in, id, tt.want)
		}
	}

	if ID("12").Int64() != 12 || ID("x").Int64() != 0 {
		t.Error("Int64 conversion wrong")
	}
}

func TestTimestampUnmarshal(t *testing.T) {
	for _, in := range []string{`"2024-03-01T10:20:30Z"`, `"2024-03-01T10:20:30.123"`, `"2024-03-01T10:20:30"`} {
		var ts Timestamp
		if err := json.Unmarshal([]byte(in), &ts); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if ts.Year() != 2024 || ts.Month() != 3 || ts.Hour() != 10 {
			t.Errorf("unmarshal %s = %v", in, ts.Time)
		}
	}

	var ts Timestamp
	if err := json.Unmarshal([]byte(`null`), &ts); err != nil || !ts.IsZero() {
		t.Errorf("null should decode to zero: %v %v", ts, err)
	}
	if err := json.Unmarshal([]byte(`"garbage"`), &ts); err == nil {
		t.Error("expected error for garbage timestamp")
	}
}

func TestSnapshotUnmarshal(t *testing.T) {
	var log AuditLog
	data := `{"oldValues":"{\"enabled\":false}","newValues":{"enabled":true}}`
	if err := json.Unmarshal([]byte(data), &log); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if log.OldValues != `{"enabled":false}` {
		t.Errorf("OldValues = %q", log.OldValues)
	}
	if log.NewValues != `{"enabled":true}` {
		t.Errorf("NewValues = %q", log.NewValues)
	}
}

func TestFeatureDescription(t *testing.T) {
	tests := []struct {
		metadata string
		want     string
	}{
		{`{"description":"Checkout flow"}`, "Checkout flow"},
		{`{"description":5}`, ""},
		{`"plain string"`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		f := Feature{Metadata: json.RawMessage(tt.metadata)}
		if got := f.Description(); got != tt.want {
			t.Errorf("Description(%s) = %q, want %q", tt.metadata, got, tt.want)
		}
	}
}

func TestUserDisplayName(t *testing.T) {
	if got := (User{Name: "Ada Lovelace", Username: "ada"}).DisplayName(); got != "Ada" {
		t.Errorf("got %q", got)
	}
	if got := (User{Username: "ada"}).DisplayName(); got != "ada" {
		t.Errorf("got %q", got)
	}
}

func TestDashboardInactive(t *testing.T) {
	d := Dashboard{TotalFeatures: 10, ActiveFeatures: 7}
	if d.InactiveFeatures() != 3 {
		t.Errorf("InactiveFeatures = %d", d.InactiveFeatures())
	}
}
