package assign

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Hungarian solves the linear assignment problem with the Kuhn-Munkres
// algorithm using row and column potentials.  It runs in O(n³) time
type Hungarian struct{}

// Solve implements Solver
func (Hungarian) Solve(cost mat.Matrix) ([]Pair, error) {

	square, rows, cols, err := padSquare(cost)

	if err != nil || square == nil {
		return nil, err
	}

	rowsol, err := hungarianSquare(square)

	if err != nil {
		return nil, fmt.Errorf("hungarian failed: %w", err)
	}

	return realPairs(rowsol, rows, cols), nil
}

// hungarianSquare returns rowsol[i] = column assigned to row i for a square
// cost matrix.  Uses 1-indexed arrays internally with column 0 acting as a
// virtual column
func hungarianSquare(c [][]float64) ([]int, error) {

	const inf = math.MaxFloat64 / 2

	dim := len(c)

	u := make([]float64, dim+1) // row potentials
	v := make([]float64, dim+1) // column potentials
	p := make([]int, dim+1)     // p[j] = row assigned to column j
	way := make([]int, dim+1)   // way[j] = previous column in augmenting path
	minv := make([]float64, dim+1)
	used := make([]bool, dim+1)

	for i := 1; i <= dim; i++ {
		p[0] = i
		j0 := 0

		for j := 1; j <= dim; j++ {
			minv[j] = inf
			used[j] = false
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1

			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				cur := c[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}

			if j1 < 0 {
				return nil, fmt.Errorf("no augmenting column for row %d", i)
			}

			for j := 0; j <= dim; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		// augment along the path
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	rowsol := make([]int, dim)

	for i := range rowsol {
		rowsol[i] = -1
	}

	for j := 1; j <= dim; j++ {
		if p[j] > 0 {
			rowsol[p[j]-1] = j - 1
		}
	}

	return rowsol, nil
}
