package assign

import (
	"fmt"
)

// lapjvInternal solves the dense square linear assignment problem using the
// Jonker-Volgenant algorithm.  Column reduction gives a feasible dual and a
// partial assignment, every row left free is then assigned along a shortest
// augmenting path in reduced costs.  On return x[i] is the column assigned
// to row i and y[j] is the row assigned to column j
func lapjvInternal(n int, cost [][]float64, x, y []int) error {

	v := make([]float64, n)

	free := columnReduction(n, cost, x, y, v)

	sp := newPathSearch(n)

	for _, row := range free {
		if err := sp.augment(cost, row, x, y, v); err != nil {
			return err
		}
	}

	return nil
}

// columnReduction sets each column price v[j] to the column minimum and
// assigns the minimum row to the column unless that row already holds a
// column.  It returns the rows left unassigned
func columnReduction(n int, cost [][]float64, x, y []int, v []float64) []int {

	for i := 0; i < n; i++ {
		x[i] = -1
	}

	for j := 0; j < n; j++ {

		minRow := 0

		for i := 1; i < n; i++ {
			if cost[i][j] < cost[minRow][j] {
				minRow = i
			}
		}

		v[j] = cost[minRow][j]

		if x[minRow] < 0 {
			x[minRow] = j
			y[j] = minRow
		} else {
			y[j] = -1
		}
	}

	free := make([]int, 0, n)

	for i := 0; i < n; i++ {
		if x[i] < 0 {
			free = append(free, i)
		}
	}

	return free
}

// pathSearch holds the working buffers of the shortest augmenting path
// search so they are allocated once per solve
type pathSearch struct {
	n    int
	d    []float64
	pred []int
	cols []int
}

func newPathSearch(n int) *pathSearch {
	return &pathSearch{
		n:    n,
		d:    make([]float64, n),
		pred: make([]int, n),
		cols: make([]int, n),
	}
}

// augment assigns the free row by a Dijkstra search over columns using
// reduced costs cost[i][j] - v[j].  The cols slice is partitioned into
// scanned columns [0, lo), columns at the current minimum distance waiting
// to be scanned [lo, hi) and the rest [hi, n).  Prices of scanned columns
// are raised afterwards so reduced costs stay non negative and zero along
// the assignment
func (s *pathSearch) augment(cost [][]float64, row int, x, y []int, v []float64) error {

	n := s.n
	d, pred, cols := s.d, s.pred, s.cols

	for j := 0; j < n; j++ {
		d[j] = cost[row][j] - v[j]
		pred[j] = row
		cols[j] = j
	}

	lo, hi := 0, 0
	mu := 0.0
	end := -1

	for end < 0 {

		if lo == hi {
			if hi == n {
				return fmt.Errorf("no augmenting path for row %d", row)
			}

			// collect every unscanned column at the new minimum distance
			mu = d[cols[hi]]

			for k := hi + 1; k < n; k++ {
				if d[cols[k]] < mu {
					mu = d[cols[k]]
				}
			}

			for k := hi; k < n; k++ {
				if d[cols[k]] <= mu {
					cols[hi], cols[k] = cols[k], cols[hi]
					hi++
				}
			}

			for k := lo; k < hi; k++ {
				if y[cols[k]] < 0 {
					end = cols[k]
					break
				}
			}

			if end >= 0 {
				break
			}
		}

		j := cols[lo]
		lo++

		i := y[j]
		h := cost[i][j] - v[j] - mu

		for k := hi; k < n; k++ {
			col := cols[k]
			reduced := cost[i][col] - v[col] - h

			if reduced >= d[col] {
				continue
			}

			d[col] = reduced
			pred[col] = i

			if reduced <= mu {
				if y[col] < 0 {
					end = col
					break
				}

				cols[hi], cols[k] = cols[k], cols[hi]
				hi++
			}
		}
	}

	for k := 0; k < lo; k++ {
		col := cols[k]
		v[col] += d[col] - mu
	}

	// flip assignments back along the path to the free row
	j := end

	for steps := 0; ; steps++ {

		if steps > n {
			return fmt.Errorf("augmenting path for row %d does not terminate", row)
		}

		i := pred[j]
		y[j] = i
		j, x[i] = x[i], j

		if i == row {
			break
		}
	}

	return nil
}
