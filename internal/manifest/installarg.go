package manifest

import "strings"

// ParseInstallArg splits a CLI install argument such as "left-pad@^1.2" or
// "@scope/pkg@1.2.3" into a package name and a version range, following the
// spec's ambiguous-behavior note (section 9): the *last* "@" splits name
// from range, and an input starting with "@" that contains no further "@"
// is treated as range "latest" rather than as an empty name.
func ParseInstallArg(arg string) (name string, rangeSpec string) {
	idx := strings.LastIndex(arg, "@")
	if idx <= 0 {
		return arg, "latest"
	}
	return arg[:idx], arg[idx+1:]
}
