package conversation

import (
	"errors"
	"testing"
)

func TestParseTravelDates(t *testing.T) {
	cases := []struct {
		in      string
		wantDep string
		wantRet string
	}{
		{"2025-05-08", "2025-05-08", ""},
		{"2025-05-08 to 2025-05-12", "2025-05-08", "2025-05-12"},
		{"from 2025-05-08 until 2025-05-12", "2025-05-08", "2025-05-12"},
		{"May 8, 2025 - May 12, 2025", "2025-05-08", "2025-05-12"},
		{"8 May 2025", "2025-05-08", ""},
		{"05/08/2025", "2025-05-08", ""},
		{"2025-05-08 to 2025-05-08", "2025-05-08", "2025-05-08"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			dep, ret, err := ParseTravelDates(tc.in)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if dep != tc.wantDep || ret != tc.wantRet {
				t.Fatalf("got (%s, %s), want (%s, %s)", dep, ret, tc.wantDep, tc.wantRet)
			}
		})
	}
}

func TestParseTravelDatesErrors(t *testing.T) {
	if _, _, err := ParseTravelDates("whenever"); err == nil {
		t.Fatal("expected error for text without a date")
	}
	if _, _, err := ParseTravelDates(""); !errors.Is(err, ErrNoDate) {
		t.Fatalf("err = %v, want ErrNoDate", err)
	}
	if _, _, err := ParseTravelDates("2025-05-12 to 2025-05-08"); !errors.Is(err, ErrReturnBeforeDep) {
		t.Fatalf("err = %v, want ErrReturnBeforeDep", err)
	}
	if _, _, err := ParseTravelDates("2025-05-01 to 2025-05-02 to 2025-05-03"); !errors.Is(err, ErrTooManyDates) {
		t.Fatalf("err = %v, want ErrTooManyDates", err)
	}
}

func TestNightsBetween(t *testing.T) {
	n, err := NightsBetween("2025-05-08", "2025-05-12")
	if err != nil {
		t.Fatalf("nights: %v", err)
	}
	if n != 4 {
		t.Fatalf("nights = %d, want 4", n)
	}
}
