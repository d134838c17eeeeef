package test

import (
	"strings"
)

// Diff renders a simple recursive line-by-line diff, used by the
// snapshot-style tests to show expected vs actual output.
func Diff(old string, new string) string {
	return strings.Join(diffRec(nil, strings.Split(old, "\n"), strings.Split(new, "\n")), "\n")
}

func diffRec(result []string, old []string, new []string) []string {
	o, n, common := lcSubstr(old, new)

	if common == 0 {
		// Everything changed
		for _, line := range old {
			result = append(result, "-"+line)
		}
		for _, line := range new {
			result = append(result, "+"+line)
		}
	} else {
		// Something in the middle stayed the same
		result = diffRec(result, old[:o], new[:n])
		for _, line := range old[o : o+common] {
			result = append(result, " "+line)
		}
		result = diffRec(result, old[o+common:], new[n+common:])
	}

	return result
}

// Longest common substring over lines
func lcSubstr(s []string, t []string) (int, int, int) {
	prev := make([]int, len(t))
	next := make([]int, len(t))
	best, bestI, bestJ := 0, 0, 0

	for i := range s {
		for j := range t {
			if s[i] == t[j] {
				if j == 0 {
					next[j] = 1
				} else {
					next[j] = prev[j-1] + 1
				}
				if next[j] > best {
					best = next[j]
					bestI = i + 1
					bestJ = j + 1
				}
			} else {
				next[j] = 0
			}
		}
		prev, next = next, prev
	}

	return bestI - best, bestJ - best, best
}
