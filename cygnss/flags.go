package cygnss

// decodeFlags expands a packed quality value against a flag table. Bit i of
// value corresponds to specs[i]; bits beyond the table are ignored.
func decodeFlags(value int64, specs []FlagSpec) map[string]bool {
	flags := make(map[string]bool, len(specs))
	for i, spec := range specs {
		flags[spec.Name] = (value>>uint(i))&1 == 1
	}
	return flags
}

// anyFlagSet reports whether any of the named flags is set in the decoded
// flag map.
func anyFlagSet(flags map[string]bool, names []string) bool {
	for _, name := range names {
		if flags[name] {
			return true
		}
	}
	return false
}
