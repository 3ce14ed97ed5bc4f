package model

import "testing"

func TestParseProductLevel(t *testing.T) {
	cases := []struct {
		in   string
		want ProductLevel
		ok   bool
	}{
		{"L1", ProductL1, true},
		{"l2", ProductL2, true},
		{" L3 ", ProductL3, true},
		{"L9", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseProductLevel(tc.in)
		if (err == nil) != tc.ok {
			t.Errorf("ParseProductLevel(%q) err = %v, want ok=%v", tc.in, err, tc.ok)
			continue
		}
		if tc.ok && got != tc.want {
			t.Errorf("ParseProductLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseAggregationMethodAliases(t *testing.T) {
	cases := []struct {
		in   string
		want AggregationMethod
	}{
		{"drop-in-bucket", DropInBucket},
		{"bucket", DropInBucket},
		{"inverse-distance", InverseDistance},
		{"IDW", InverseDistance},
	}
	for _, tc := range cases {
		got, err := ParseAggregationMethod(tc.in)
		if err != nil {
			t.Errorf("ParseAggregationMethod(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseAggregationMethod(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseAggregationMethod("nearest"); err == nil {
		t.Error("expected error for unknown method")
	}
}

func TestAggregationMethodString(t *testing.T) {
	if got := DropInBucket.String(); got != "drop-in-bucket" {
		t.Errorf("DropInBucket.String() = %q", got)
	}
	if got := InverseDistance.String(); got != "inverse-distance" {
		t.Errorf("InverseDistance.String() = %q", got)
	}
}
