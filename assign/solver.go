package assign

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Pair is a matched row and column of a cost matrix
type Pair struct {
	Row int
	Col int
}

// Solver finds the one-to-one pairing of rows and columns of a cost matrix
// with the minimum total cost.  For a rectangular matrix exactly
// min(rows, cols) pairs are returned, ordered by row
type Solver interface {
	Solve(cost mat.Matrix) ([]Pair, error)
}

// Method names a Solver implementation
type Method string

const (
	// MethodLAPJV selects the Jonker-Volgenant solver
	MethodLAPJV Method = "lapjv"
	// MethodHungarian selects the Kuhn-Munkres solver
	MethodHungarian Method = "hungarian"
)

// NewSolver returns the Solver for the given method name
func NewSolver(method Method) (Solver, error) {

	switch method {
	case MethodLAPJV, "":
		return LAPJV{}, nil
	case MethodHungarian:
		return Hungarian{}, nil
	}

	return nil, fmt.Errorf("unknown assignment method %q", method)
}

// LAPJV solves the linear assignment problem with the Jonker-Volgenant
// shortest augmenting path algorithm
type LAPJV struct{}

// Solve implements Solver
func (LAPJV) Solve(cost mat.Matrix) ([]Pair, error) {

	square, rows, cols, err := padSquare(cost)

	if err != nil || square == nil {
		return nil, err
	}

	n := len(square)
	x := make([]int, n)
	y := make([]int, n)

	if err := lapjvInternal(n, square, x, y); err != nil {
		return nil, fmt.Errorf("lapjv failed: %w", err)
	}

	return realPairs(x, rows, cols), nil
}

// padSquare copies the cost matrix into a square matrix padded with zero
// cost dummy rows or columns.  A nil matrix is returned if either dimension
// is zero
func padSquare(cost mat.Matrix) ([][]float64, int, int, error) {

	rows, cols := dims(cost)

	if rows == 0 || cols == 0 {
		return nil, rows, cols, nil
	}

	n := max(rows, cols)
	square := make([][]float64, n)

	for i := range square {
		square[i] = make([]float64, n)
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			c := cost.At(i, j)

			if math.IsNaN(c) || math.IsInf(c, 0) {
				return nil, rows, cols, fmt.Errorf("cost at (%d, %d) is not finite", i, j)
			}

			square[i][j] = c
		}
	}

	return square, rows, cols, nil
}

// realPairs converts a square row solution into pairs that fall within the
// original rows and columns
func realPairs(rowsol []int, rows, cols int) []Pair {

	var pairs []Pair

	for i := 0; i < rows; i++ {
		if j := rowsol[i]; j >= 0 && j < cols {
			pairs = append(pairs, Pair{Row: i, Col: j})
		}
	}

	return pairs
}

// dims returns the dimensions of a matrix, treating a nil matrix as empty.
// gonum panics on zero sized dense matrices so empty inputs are represented
// by nil
func dims(m mat.Matrix) (int, int) {

	if m == nil {
		return 0, 0
	}

	if d, ok := m.(*mat.Dense); ok && (d == nil || d.IsEmpty()) {
		return 0, 0
	}

	return m.Dims()
}

// TotalCost sums the cost of the given pairs
func TotalCost(cost mat.Matrix, pairs []Pair) float64 {

	total := 0.0

	for _, p := range pairs {
		total += cost.At(p.Row, p.Col)
	}

	return total
}
