package mpesa

import (
	"testing"
	"time"
)

func TestParseReceivedSMS_FullMessage(t *testing.T) {
	msg := "QWE12345XY Confirmed.You have received Ksh10,000.00 from JANE DOE 0723111222 on 5/3/26 at 8:46 AM. New M-PESA balance is Ksh10,250.00."

	got := ParseReceivedSMS(msg)

	if got.Ref != "QWE12345XY" {
		t.Errorf("ref: got %q, want %q", got.Ref, "QWE12345XY")
	}
	if got.Name != "JANE DOE" {
		t.Errorf("name: got %q, want %q", got.Name, "JANE DOE")
	}
	if got.Amount != 10000 {
		t.Errorf("amount: got %d, want 10000", got.Amount)
	}
	want := time.Date(2026, time.March, 5, 8, 46, 0, 0, time.Local)
	if !got.ContributedAt.Equal(want) {
		t.Errorf("contributedAt: got %v, want %v", got.ContributedAt, want)
	}
}

func TestParseReceivedSMS_NotAReceipt(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"QWE12345XY Confirmed. Ksh500.00 sent to JOHN OTIENO on 5/3/26 at 9:00 AM.",
		"You have withdrawn Ksh2,000.00 from agent 123456.",
		"random text with no payment content at all",
	}
	for _, msg := range cases {
		got := ParseReceivedSMS(msg)
		if got.Ref != "" || got.Name != "" || got.Amount != 0 || !got.ContributedAt.IsZero() {
			t.Errorf("%q: expected empty result, got %+v", msg, got)
		}
	}
}

func TestParseReceivedSMS_AmountSeparatorVariants(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{"10,000.00", 10000},
		{"10000", 10000},
		{"10,000", 10000},
		{"1,234,567.89", 1234568},
	}
	for _, tc := range cases {
		msg := "ABC12345 Confirmed. You have received Ksh" + tc.raw + " from MARY ACHIENG on 1/2/26 at 1:00 PM"
		got := ParseReceivedSMS(msg)
		if got.Amount != tc.want {
			t.Errorf("amount %q: got %d, want %d", tc.raw, got.Amount, tc.want)
		}
	}
}

func TestParseReceivedSMS_PartialFields(t *testing.T) {
	t.Run("no leading ref token", func(t *testing.T) {
		got := ParseReceivedSMS("Hello, you have received Ksh500 from PETER KAMAU 0712345678 on 9/4/26 at 2:15 PM")
		if got.Ref != "" {
			t.Errorf("ref: got %q, want empty", got.Ref)
		}
		if got.Name != "PETER KAMAU" || got.Amount != 500 {
			t.Errorf("unexpected result %+v", got)
		}
	})

	t.Run("short leading token is not a ref", func(t *testing.T) {
		got := ParseReceivedSMS("ABC123 you have received Ksh500 from PETER KAMAU on 9/4/26 at 2:15 PM")
		if got.Ref != "" {
			t.Errorf("ref: got %q, want empty", got.Ref)
		}
	})

	t.Run("no date keeps name absent", func(t *testing.T) {
		// The name capture is anchored on the trailing date, so a message
		// without one yields no name either.
		got := ParseReceivedSMS("ABC12345 you have received Ksh500 from PETER KAMAU, thanks")
		if got.Name != "" {
			t.Errorf("name: got %q, want empty", got.Name)
		}
		if !got.ContributedAt.IsZero() {
			t.Errorf("contributedAt: got %v, want zero", got.ContributedAt)
		}
		if got.Amount != 500 {
			t.Errorf("amount: got %d, want 500", got.Amount)
		}
	})

	t.Run("name that is only a phone number vanishes", func(t *testing.T) {
		got := ParseReceivedSMS("ABC12345 you have received Ksh500 from 0712345678 on 9/4/26 at 2:15 PM")
		if got.Name != "" {
			t.Errorf("name: got %q, want empty", got.Name)
		}
	})

	t.Run("masked 254 number with asterisks", func(t *testing.T) {
		got := ParseReceivedSMS("ABC12345 you have received Ksh500 from GRACE *** NJERI 254712345678 on 9/4/26 at 2:15 PM")
		if got.Name != "GRACE NJERI" {
			t.Errorf("name: got %q, want %q", got.Name, "GRACE NJERI")
		}
	})
}

func TestParseReceivedSMS_MeridiemRules(t *testing.T) {
	cases := []struct {
		clock string
		hour  int
	}{
		{"12:05 AM", 0},
		{"12:05 PM", 12},
		{"8:46 AM", 8},
		{"8:46 PM", 20},
		{"14:30", 14}, // no meridiem, already 24h
	}
	for _, tc := range cases {
		msg := "ABC12345 you have received Ksh100 from JOY WAMBUI on 5/3/26 at " + tc.clock
		got := ParseReceivedSMS(msg)
		if got.ContributedAt.IsZero() {
			t.Fatalf("%q: no timestamp parsed", tc.clock)
		}
		if got.ContributedAt.Hour() != tc.hour {
			t.Errorf("%q: hour = %d, want %d", tc.clock, got.ContributedAt.Hour(), tc.hour)
		}
	}
}

func TestParseReceivedSMS_WhitespaceCollapsed(t *testing.T) {
	msg := "QWE12345XY   Confirmed.\nYou  have\treceived Ksh 5,000  from  JANE   DOE  on 5/3/26 at 8:46 AM"
	got := ParseReceivedSMS(msg)
	if got.Name != "JANE DOE" {
		t.Errorf("name: got %q, want %q", got.Name, "JANE DOE")
	}
	if got.Amount != 5000 {
		t.Errorf("amount: got %d, want 5000", got.Amount)
	}
}
