package synced

import "strings"

// StringToBool interprets a command argument as a boolean. "0", "n", "no",
// "f", "false", and "off" are false, ignoring case and surrounding space;
// everything else is true.
func StringToBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "n", "no", "f", "false", "off":
		return false
	}
	return true
}

// InverseOrSetBool inverts *flag when args is empty, otherwise sets it from
// StringToBool(args), negated when inverse is true.
func InverseOrSetBool(flag *bool, args string, inverse bool) {
	if args == "" {
		*flag = !*flag
		return
	}
	v := StringToBool(args)
	if inverse {
		v = !v
	}
	*flag = v
}
