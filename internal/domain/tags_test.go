package domain

import (
	"reflect"
	"testing"
)

func TestNormalizeTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "simple", input: "weekly,sync", want: []string{"weekly", "sync"}},
		{name: "trims and drops empties", input: " weekly , ,sync, ", want: []string{"weekly", "sync"}},
		{name: "preserves case", input: "ML,Robotics", want: []string{"ML", "Robotics"}},
		{name: "deduplicates keeping first", input: "sync,weekly,sync", want: []string{"sync", "weekly"}},
		{name: "blank", input: "   ", want: nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := NormalizeTags(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("NormalizeTags(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTagsMatch(t *testing.T) {
	t.Parallel()

	meetingTags := []string{"weekly", "sync"}

	tests := []struct {
		name   string
		filter []string
		want   bool
	}{
		{name: "subset matches", filter: []string{"sync"}, want: true},
		{name: "any overlap matches", filter: []string{"sync", "offsite"}, want: true},
		{name: "disjoint does not match", filter: []string{"offsite"}, want: false},
		{name: "no partial token match", filter: []string{"sy"}, want: false},
		{name: "no prefix match", filter: []string{"weeklys"}, want: false},
		{name: "empty filter never matches", filter: nil, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := TagsMatch(meetingTags, tt.filter); got != tt.want {
				t.Fatalf("TagsMatch(%v, %v) = %v, want %v", meetingTags, tt.filter, got, tt.want)
			}
		})
	}
}

func TestAllTags(t *testing.T) {
	t.Parallel()

	meetings := []Meeting{
		{Tags: []string{"weekly", "sync"}},
		{Tags: []string{"sync", "robotics"}},
		{Tags: nil},
	}

	got := AllTags(meetings)
	want := []string{"robotics", "sync", "weekly"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("AllTags() = %v, want %v", got, want)
	}
}
