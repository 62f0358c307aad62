package compliance

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"PENDING", StatusPending, false},
		{"approved", StatusApproved, false},
		{" Rejected ", StatusRejected, false},
		{"ARCHIVED", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseStatus(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseStatus(%q) = %s, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseStatus(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestCheckTransition(t *testing.T) {
	cases := []struct {
		name    string
		current Status
		target  Status
		wantErr bool
	}{
		{"pending to approved", StatusPending, StatusApproved, false},
		{"pending to rejected", StatusPending, StatusRejected, false},
		{"approved to rejected", StatusApproved, StatusRejected, false},
		{"rejected to approved", StatusRejected, StatusApproved, false},
		{"approve twice", StatusApproved, StatusApproved, true},
		{"reject twice", StatusRejected, StatusRejected, true},
		{"back to pending", StatusApproved, StatusPending, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckTransition(tc.current, tc.target)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("CheckTransition(%s, %s) = %v, want ErrInvalidTransition", tc.current, tc.target, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckTransition(%s, %s): %v", tc.current, tc.target, err)
			}
		})
	}
}
