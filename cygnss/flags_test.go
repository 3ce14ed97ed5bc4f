package cygnss

import "testing"

func TestDecodeFlagsBitOrder(t *testing.T) {
	specs := []FlagSpec{
		{Name: "A", Screen: true},
		{Name: "B"},
		{Name: "C"},
		{Name: "D", Screen: true},
	}
	flags := decodeFlags(0b0101, specs)

	want := map[string]bool{"A": true, "B": false, "C": true, "D": false}
	for name, set := range want {
		if flags[name] != set {
			t.Errorf("flag %s = %v, want %v", name, flags[name], set)
		}
	}
}

func TestDecodeFlagsIgnoresBitsBeyondTable(t *testing.T) {
	specs := []FlagSpec{{Name: "only"}}
	flags := decodeFlags(0b1110, specs)
	if len(flags) != 1 {
		t.Fatalf("decoded %d flags, want 1", len(flags))
	}
	if flags["only"] {
		t.Error("flag 'only' set from bit 1, want bit 0 only")
	}
}

func TestAnyFlagSet(t *testing.T) {
	flags := map[string]bool{"good": false, "bad": true}
	if anyFlagSet(flags, []string{"good"}) {
		t.Error("anyFlagSet reported an unset flag")
	}
	if !anyFlagSet(flags, []string{"good", "bad"}) {
		t.Error("anyFlagSet missed a set flag")
	}
	if anyFlagSet(flags, []string{"unknown"}) {
		t.Error("anyFlagSet reported an unknown flag")
	}
}
