package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseMeetingTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "iso without seconds",
			input: "2026-01-22T10:00",
			want:  time.Date(2026, 1, 22, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "space separated with seconds",
			input: "2026-01-22 10:00:30",
			want:  time.Date(2026, 1, 22, 10, 0, 30, 0, time.UTC),
		},
		{
			name:  "iso with seconds",
			input: "2026-01-22T10:00:30",
			want:  time.Date(2026, 1, 22, 10, 0, 30, 0, time.UTC),
		},
		{name: "garbage", input: "tomorrow at ten", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseMeetingTime(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseMeetingTime() error = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMeetingTime() unexpected error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("ParseMeetingTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMeetingValidate(t *testing.T) {
	t.Parallel()

	valid := Meeting{Title: "Weekly Sync", MeetingTime: "2026-01-22T10:00", Tags: []string{"weekly"}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}

	missingTitle := Meeting{Title: "  ", MeetingTime: "2026-01-22T10:00"}
	if err := missingTitle.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation for empty title", err)
	}

	badTime := Meeting{Title: "Sync", MeetingTime: "22/01/2026"}
	if err := badTime.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation for bad time", err)
	}

	emptyTag := Meeting{Title: "Sync", MeetingTime: "2026-01-22T10:00", Tags: []string{"ok", " "}}
	if err := emptyTag.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation for empty tag", err)
	}
}

func TestParseRSVPFromString(t *testing.T) {
	t.Parallel()

	got, err := ParseRSVPFromString(" Join ")
	if err != nil {
		t.Fatalf("ParseRSVPFromString() unexpected error = %v", err)
	}
	if got != RSVPJoin {
		t.Fatalf("ParseRSVPFromString() = %s, want %s", got, RSVPJoin)
	}

	if _, err := ParseRSVPFromString("maybe"); !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseRSVPFromString() error = %v, want ErrValidation", err)
	}
}
