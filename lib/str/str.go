// Copyright (C) 2023 The Covers Authors.
//
// This file is part of Covers.
//
// Covers is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Covers is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Covers.  If not, see <https://www.gnu.org/licenses/>.

package str

import (
	"sort"
	"strings"
)

// NormalizeList joins values into a stable semicolon separated list.
// Empty values are dropped, duplicates removed, and the result sorted
// so repeated runs produce identical output.
func NormalizeList(values []string) string {
	seen := make(map[string]bool)
	var list []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		list = append(list, v)
	}
	sort.Strings(list)
	return strings.Join(list, ";")
}

// Similarity is a symmetric string similarity ratio in [0, 1] based on
// the longest common subsequence of the case-folded inputs. Identical
// strings score 1.0.
func Similarity(a, b string) float64 {
	x := []rune(strings.ToLower(a))
	y := []rune(strings.ToLower(b))
	if len(x) == 0 && len(y) == 0 {
		return 1.0
	}
	if len(x) == 0 || len(y) == 0 {
		return 0.0
	}

	prev := make([]int, len(y)+1)
	curr := make([]int, len(y)+1)
	for i := 1; i <= len(x); i++ {
		for j := 1; j <= len(y); j++ {
			if x[i-1] == y[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(y)]

	return 2.0 * float64(lcs) / float64(len(x)+len(y))
}
