// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agreement

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ExactAgreement is the fraction of tasks on which all raters agree.
func ExactAgreement(r Ratings) float64 {
	tasks := r.Tasks()
	if tasks == 0 {
		return 0
	}
	agreed := 0
	for t := 0; t < tasks; t++ {
		col := r.column(t)
		same := true
		for _, k := range col[1:] {
			if k != col[0] {
				same = false
				break
			}
		}
		if same {
			agreed++
		}
	}
	return float64(agreed) / float64(tasks)
}

// PairwiseAgreement returns the N×N matrix of observed match rates between
// raters. The diagonal is 1.
func PairwiseAgreement(r Ratings) [][]float64 {
	return symmetric(r.Raters(), func(i, j int) float64 {
		return observedAgreement(r[i], r[j])
	})
}

// CohensKappaMatrix returns the N×N matrix of pairwise Cohen's Kappa. The
// diagonal is 1.
func CohensKappaMatrix(r Ratings) [][]float64 {
	return symmetric(r.Raters(), func(i, j int) float64 {
		return CohensKappa(r[i], r[j])
	})
}

// CohensKappa returns (p_o - p_e) / (1 - p_e) for two raters over the same
// tasks. p_e sums, over every category either rater used, the product of
// the two raters' category frequencies. When p_e reaches 1 (both raters
// used one shared category) kappa is 1.
func CohensKappa(a, b []string) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0
	}
	po := observedAgreement(a, b)

	countA := counts(a)
	countB := counts(b)
	cats := categories(a, b)
	products := make([]float64, len(cats))
	for k, c := range cats {
		products[k] = (float64(countA[c]) / float64(n)) * (float64(countB[c]) / float64(n))
	}
	pe := floats.Sum(products)
	if pe >= 1 {
		return 1
	}
	return (po - pe) / (1 - pe)
}

// FleissKappa returns Fleiss' Kappa for all raters jointly. Each task is a
// subject rated by every rater. It is 0 with fewer than two raters or no
// tasks, and 1 when expected agreement reaches 1.
func FleissKappa(r Ratings) float64 {
	n := r.Raters()
	tasks := r.Tasks()
	if n < 2 || tasks == 0 {
		return 0
	}

	perTask := make([]float64, tasks)
	totals := make(map[string]int)
	for t := 0; t < tasks; t++ {
		c := counts(r.column(t))
		sumSq := 0
		for cat, nij := range c {
			sumSq += nij * nij
			totals[cat] += nij
		}
		perTask[t] = float64(sumSq-n) / float64(n*(n-1))
	}
	pBar := stat.Mean(perTask, nil)

	cats := sortedKeys(totals)
	pj := make([]float64, len(cats))
	for k, c := range cats {
		pj[k] = float64(totals[c]) / float64(tasks*n)
	}
	pe := floats.Dot(pj, pj)
	if pe >= 1 {
		return 1
	}
	return (pBar - pe) / (1 - pe)
}

// KrippendorffAlpha returns a nominal Krippendorff's Alpha for complete
// data with the same raters on every task:
//
//	D_o = disagreeing within-task rater pairs / all within-task rater pairs
//	D_e = 2 * sum_{c<c'} f(c) f(c') / (N (N-1))
//	alpha = 1 - D_o / D_e
//
// where f(c) counts category c over all ratings and N is the total number
// of ratings. This is a simplified form without missing-value handling or
// distance weighting. Alpha is 1 when there are no pairs or D_e is 0.
func KrippendorffAlpha(r Ratings) float64 {
	n := r.Raters()
	tasks := r.Tasks()

	pairs, disagreements := 0, 0
	freq := make(map[string]int)
	for t := 0; t < tasks; t++ {
		col := r.column(t)
		for i := 0; i < n; i++ {
			freq[col[i]]++
			for j := i + 1; j < n; j++ {
				pairs++
				if col[i] != col[j] {
					disagreements++
				}
			}
		}
	}
	if pairs == 0 {
		return 1
	}

	total := float64(n * tasks)
	cats := sortedKeys(freq)
	var cross []float64
	for a := 0; a < len(cats); a++ {
		for b := a + 1; b < len(cats); b++ {
			cross = append(cross, float64(freq[cats[a]])*float64(freq[cats[b]]))
		}
	}
	de := 2 * floats.Sum(cross) / (total * (total - 1))
	if de == 0 {
		return 1
	}
	do := float64(disagreements) / float64(pairs)
	return 1 - do/de
}

func observedAgreement(a, b []string) float64 {
	if len(a) == 0 {
		return 0
	}
	matches := 0
	for t := range a {
		if a[t] == b[t] {
			matches++
		}
	}
	return float64(matches) / float64(len(a))
}

// symmetric fills an n×n matrix with 1 on the diagonal and f(i, j) mirrored
// across it.
func symmetric(n int, f func(i, j int) float64) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := f(i, j)
			m[i][j] = v
			m[j][i] = v
		}
	}
	return m
}

func counts(keys []string) map[string]int {
	c := make(map[string]int)
	for _, k := range keys {
		c[k]++
	}
	return c
}

// categories returns the sorted union of keys used by a or b. Sorting keeps
// floating-point sums independent of map iteration order.
func categories(a, b []string) []string {
	seen := counts(a)
	for _, k := range b {
		seen[k]++
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
