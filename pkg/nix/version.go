// version.go
package nix

import (
	"strconv"
	"strings"
	"unicode"
)

// CompareVersions orders two version strings the way nix-env does:
// components are runs of digits or letters separated by '.' or '-',
// numbers compare numerically, "pre" sorts before everything and a
// number sorts after a word. Returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	ca, cb := splitVersion(a), splitVersion(b)

	for i := 0; i < len(ca) || i < len(cb); i++ {
		var x, y string
		if i < len(ca) {
			x = ca[i]
		}
		if i < len(cb) {
			y = cb[i]
		}
		if c := compareComponent(x, y); c != 0 {
			return c
		}
	}
	return 0
}

func splitVersion(v string) []string {
	var parts []string
	var cur strings.Builder
	var digits bool

	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}

	for _, r := range v {
		switch {
		case r == '.' || r == '-':
			flush()
		case unicode.IsDigit(r):
			if !digits {
				flush()
			}
			digits = true
			cur.WriteRune(r)
		default:
			if digits {
				flush()
			}
			digits = false
			cur.WriteRune(r)
		}
	}
	flush()

	return parts
}

func compareComponent(x, y string) int {
	if x == y {
		return 0
	}

	nx, errX := strconv.ParseUint(x, 10, 64)
	ny, errY := strconv.ParseUint(y, 10, 64)

	switch {
	case errX == nil && errY == nil:
		switch {
		case nx < ny:
			return -1
		case nx > ny:
			return 1
		}
		return strings.Compare(x, y)
	case x == "" && errY == nil:
		return -1
	case y == "" && errX == nil:
		return 1
	case x == "pre":
		return -1
	case y == "pre":
		return 1
	case errX == nil:
		return 1
	case errY == nil:
		return -1
	case x == "":
		return -1
	case y == "":
		return 1
	}

	return strings.Compare(x, y)
}
