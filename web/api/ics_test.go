package api

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"schedulehub/models"
)

func TestBuildICS(t *testing.T) {
	stamp := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	events := []models.Event{
		{
			ID:        "e1",
			Date:      "2024-06-20",
			Title:     "Dentist",
			Time:      sql.NullString{String: "9:00 AM", Valid: true},
			Notes:     sql.NullString{String: "bring card", Valid: true},
			CreatedAt: stamp,
			UpdatedAt: stamp,
		},
		{ID: "e2", Date: "2024-06-30", Title: "Trash day", CreatedAt: stamp, UpdatedAt: stamp},
	}

	out, err := BuildICS(events, stamp)
	if err != nil {
		t.Fatalf("BuildICS failed: %v", err)
	}
	for _, want := range []string{"UID:e1", "UID:e2", "SUMMARY:Trash day", "20240620", "20240621", "Time: 9:00 AM"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	if _, err := BuildICS([]models.Event{{ID: "bad", Date: "June"}}, stamp); err == nil {
		t.Error("expected error for an invalid date")
	}
}

func TestParseICS(t *testing.T) {
	body := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:timed",
		"DTSTAMP:20240601T120000Z",
		"DTSTART:20240620T143000Z",
		"SUMMARY:Soccer",
		"DESCRIPTION:bring water",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:allday",
		"DTSTAMP:20240601T120000Z",
		"DTSTART;VALUE=DATE:20240704",
		"SUMMARY:Fireworks",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:untitled",
		"DTSTAMP:20240601T120000Z",
		"DTSTART;VALUE=DATE:20240705",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	inputs, err := ParseICS([]byte(body))
	if err != nil {
		t.Fatalf("ParseICS failed: %v", err)
	}
	if len(inputs) != 2 {
		t.Fatalf("expected 2 events (untitled skipped), got %d", len(inputs))
	}

	timed := inputs[0]
	if timed.Title != "Soccer" || timed.Date != "2024-06-20" {
		t.Errorf("unexpected timed event: %+v", timed)
	}
	if timed.Time == nil || *timed.Time != "2:30 PM" {
		t.Errorf("expected time 2:30 PM, got %v", timed.Time)
	}
	if timed.Notes == nil || *timed.Notes != "bring water" {
		t.Errorf("expected notes, got %v", timed.Notes)
	}

	allDay := inputs[1]
	if allDay.Date != "2024-07-04" || allDay.Time != nil {
		t.Errorf("unexpected all-day event: %+v", allDay)
	}

	if _, err := ParseICS(nil); err == nil {
		t.Error("expected error for an empty body")
	}
}

func TestICSRoundTripKeepsTime(t *testing.T) {
	stamp := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	events := []models.Event{
		{
			ID:    "e1",
			Date:  "2024-06-20",
			Title: "Dentist",
			Time:  sql.NullString{String: "9:00 AM", Valid: true},
			Notes: sql.NullString{String: "bring card\nask about braces", Valid: true},
		},
		{ID: "e2", Date: "2024-06-21", Title: "Pickup", Time: sql.NullString{String: "after school", Valid: true}},
		{ID: "e3", Date: "2024-06-22", Title: "Picnic", Notes: sql.NullString{String: "Time: flexible is fine", Valid: false}},
		{ID: "e4", Date: "2024-06-23", Title: "Lake", Notes: sql.NullString{String: "sunscreen", Valid: true}},
	}

	out, err := BuildICS(events, stamp)
	if err != nil {
		t.Fatalf("BuildICS failed: %v", err)
	}
	inputs, err := ParseICS([]byte(out))
	if err != nil {
		t.Fatalf("ParseICS failed: %v", err)
	}
	if len(inputs) != len(events) {
		t.Fatalf("expected %d events, got %d", len(events), len(inputs))
	}

	str := func(p *string) string {
		if p == nil {
			return "<nil>"
		}
		return *p
	}
	tests := []struct {
		title, date, time, notes string
	}{
		{"Dentist", "2024-06-20", "9:00 AM", "bring card\nask about braces"},
		{"Pickup", "2024-06-21", "after school", "<nil>"},
		{"Picnic", "2024-06-22", "<nil>", "<nil>"},
		{"Lake", "2024-06-23", "<nil>", "sunscreen"},
	}
	byTitle := map[string]models.EventInput{}
	for _, in := range inputs {
		byTitle[in.Title] = in
	}
	for _, tt := range tests {
		in, ok := byTitle[tt.title]
		if !ok {
			t.Errorf("%s missing after round trip", tt.title)
			continue
		}
		if in.Date != tt.date || str(in.Time) != tt.time || str(in.Notes) != tt.notes {
			t.Errorf("%s = %s / %q / %q, want %s / %q / %q",
				tt.title, in.Date, str(in.Time), str(in.Notes), tt.date, tt.time, tt.notes)
		}
	}
}

func TestSplitDescription(t *testing.T) {
	tests := []struct {
		desc, time, notes string
	}{
		{"", "", ""},
		{"Time: 5pm", "5pm", ""},
		{"Time: 5pm\nbring water", "5pm", "bring water"},
		{"bring water\nTime: 5pm", "", "bring water\nTime: 5pm"},
		{"Time: 8:15 AM\r\nline one\r\nline two", "8:15 AM", "line one\nline two"},
	}
	for _, tt := range tests {
		tm, notes := splitDescription(tt.desc)
		if tm != tt.time || notes != tt.notes {
			t.Errorf("splitDescription(%q) = %q, %q", tt.desc, tm, notes)
		}
	}
}
