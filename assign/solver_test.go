package assign

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func runLapjvTest(t *testing.T, costMatrix [][]float64, expectedX, expectedY []int) {

	n := len(costMatrix)
	x := make([]int, n)
	y := make([]int, n)

	err := lapjvInternal(n, costMatrix, x, y)
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		if x[i] != expectedX[i] {
			t.Errorf("Expected x[%d] = %d, but got %d", i, expectedX[i], x[i])
		}
		if y[i] != expectedY[i] {
			t.Errorf("Expected y[%d] = %d, but got %d", i, expectedY[i], y[i])
		}
	}
}

func TestLapjvInternal(t *testing.T) {

	costMatrix1 := [][]float64{
		{4, 1, 3, 2},
		{2, 0, 5, 3},
		{3, 2, 2, 3},
		{2, 3, 3, 2},
	}

	expectedX1 := []int{3, 1, 2, 0}
	expectedY1 := []int{3, 1, 2, 0}

	costMatrix2 := [][]float64{
		{10, 19, 8, 15},
		{10, 18, 7, 17},
		{13, 16, 9, 14},
		{12, 19, 8, 18},
	}

	expectedX2 := []int{3, 0, 1, 2}
	expectedY2 := []int{1, 2, 3, 0}

	t.Run("Test Case 1", func(t *testing.T) {
		runLapjvTest(t, costMatrix1, expectedX1, expectedY1)
	})

	t.Run("Test Case 2", func(t *testing.T) {
		runLapjvTest(t, costMatrix2, expectedX2, expectedY2)
	})
}

// bruteForce returns the minimum total cost over every assignment of
// min(rows, cols) pairs
func bruteForce(cost [][]float64) float64 {

	rows := len(cost)
	cols := len(cost[0])
	n := max(rows, cols)

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	best := math.Inf(1)

	var permute func(k int)
	permute = func(k int) {
		if k == n {
			total := 0.0
			for i := 0; i < rows; i++ {
				if perm[i] < cols {
					total += cost[i][perm[i]]
				}
			}
			best = math.Min(best, total)
			return
		}
		for i := k; i < n; i++ {
			perm[k], perm[i] = perm[i], perm[k]
			permute(k + 1)
			perm[k], perm[i] = perm[i], perm[k]
		}
	}

	permute(0)

	return best
}

// toDense converts a slice matrix into a gonum Dense matrix
func toDense(cost [][]float64) *mat.Dense {

	d := mat.NewDense(len(cost), len(cost[0]), nil)

	for i, row := range cost {
		d.SetRow(i, row)
	}

	return d
}

func TestSolversMatchBruteForce(t *testing.T) {

	rng := rand.New(rand.NewSource(42))

	solvers := map[string]Solver{
		"lapjv":     LAPJV{},
		"hungarian": Hungarian{},
	}

	for trial := 0; trial < 200; trial++ {

		rows := 1 + rng.Intn(5)
		cols := 1 + rng.Intn(5)

		// negated IoU style costs with plenty of zero entries and ties
		cost := make([][]float64, rows)
		for i := range cost {
			cost[i] = make([]float64, cols)
			for j := range cost[i] {
				if rng.Float64() < 0.4 {
					cost[i][j] = 0
				} else {
					cost[i][j] = -math.Round(rng.Float64()*20) / 20
				}
			}
		}

		expected := bruteForce(cost)
		dense := toDense(cost)

		for name, solver := range solvers {
			pairs, err := solver.Solve(dense)
			require.NoError(t, err, "%s trial %d", name, trial)
			require.Len(t, pairs, min(rows, cols), "%s trial %d", name, trial)
			require.InDelta(t, expected, TotalCost(dense, pairs), 1e-9,
				"%s trial %d cost %v", name, trial, cost)

			seenRows := make(map[int]bool)
			seenCols := make(map[int]bool)

			for _, p := range pairs {
				require.False(t, seenRows[p.Row])
				require.False(t, seenCols[p.Col])
				require.Less(t, p.Row, rows)
				require.Less(t, p.Col, cols)
				seenRows[p.Row] = true
				seenCols[p.Col] = true
			}
		}
	}
}

// randomIoUCost builds a negated IoU style cost matrix where most entries
// are zero, step quantizes the non zero entries when greater than zero
func randomIoUCost(rng *rand.Rand, rows, cols int, zeros, step float64) [][]float64 {

	cost := make([][]float64, rows)

	for i := range cost {
		cost[i] = make([]float64, cols)

		for j := range cost[i] {
			if rng.Float64() < zeros {
				continue
			}

			v := rng.Float64()

			if step > 0 {
				v = math.Round(v/step) * step
			}

			cost[i][j] = -v
		}
	}

	return cost
}

func TestLAPJVMatchesHungarian(t *testing.T) {

	rng := rand.New(rand.NewSource(7))

	steps := []float64{0, 0.25, 0.05}

	for trial := 0; trial < 3000; trial++ {

		rows := 1 + rng.Intn(25)
		cols := rows

		// every other trial is rectangular
		if trial%2 == 1 {
			cols = 1 + rng.Intn(25)
		}

		zeros := 0.4 + 0.4*rng.Float64()
		step := steps[trial%len(steps)]

		dense := toDense(randomIoUCost(rng, rows, cols, zeros, step))

		want, err := Hungarian{}.Solve(dense)
		require.NoError(t, err)

		got, err := LAPJV{}.Solve(dense)
		require.NoError(t, err, "trial %d", trial)
		require.Len(t, got, min(rows, cols), "trial %d", trial)

		require.InDelta(t, TotalCost(dense, want), TotalCost(dense, got), 1e-9,
			"trial %d %dx%d step %v", trial, rows, cols, step)

		seenRows := make(map[int]bool)
		seenCols := make(map[int]bool)

		for _, p := range got {
			require.False(t, seenRows[p.Row], "trial %d row %d reused", trial, p.Row)
			require.False(t, seenCols[p.Col], "trial %d col %d reused", trial, p.Col)
			seenRows[p.Row] = true
			seenCols[p.Col] = true
		}
	}
}

func TestLapjvInternalDenseTies(t *testing.T) {

	// every row prefers column 0 so all but one row start free
	n := 6
	cost := make([][]float64, n)

	for i := range cost {
		cost[i] = make([]float64, n)
		cost[i][0] = -1

		for j := 1; j < n; j++ {
			cost[i][j] = -float64(j) / 10
		}
	}

	x := make([]int, n)
	y := make([]int, n)

	require.NoError(t, lapjvInternal(n, cost, x, y))

	total := 0.0

	for i := 0; i < n; i++ {
		require.Equal(t, i, y[x[i]])
		total += cost[i][x[i]]
	}

	require.InDelta(t, -2.5, total, 1e-9)
}

func TestSolveRectangular(t *testing.T) {

	// more rows than columns, row 2 is left unassigned
	cost := toDense([][]float64{
		{-0.9, -0.1},
		{-0.2, -0.8},
		{-0.5, -0.5},
	})

	for _, solver := range []Solver{LAPJV{}, Hungarian{}} {
		pairs, err := solver.Solve(cost)
		require.NoError(t, err)
		require.Equal(t, []Pair{{Row: 0, Col: 0}, {Row: 1, Col: 1}}, pairs)
	}

	// more columns than rows
	cost = toDense([][]float64{
		{0, -0.3, -0.7},
	})

	for _, solver := range []Solver{LAPJV{}, Hungarian{}} {
		pairs, err := solver.Solve(cost)
		require.NoError(t, err)
		require.Equal(t, []Pair{{Row: 0, Col: 2}}, pairs)
	}
}

func TestSolveEmptyAndInvalid(t *testing.T) {

	for _, solver := range []Solver{LAPJV{}, Hungarian{}} {
		pairs, err := solver.Solve(nil)
		require.NoError(t, err)
		require.Empty(t, pairs)

		pairs, err = solver.Solve(&mat.Dense{})
		require.NoError(t, err)
		require.Empty(t, pairs)

		_, err = solver.Solve(toDense([][]float64{{math.NaN()}}))
		require.Error(t, err)

		_, err = solver.Solve(toDense([][]float64{{math.Inf(-1), 0}}))
		require.Error(t, err)
	}
}

func TestNewSolver(t *testing.T) {

	s, err := NewSolver(MethodLAPJV)
	require.NoError(t, err)
	require.IsType(t, LAPJV{}, s)

	s, err = NewSolver("")
	require.NoError(t, err)
	require.IsType(t, LAPJV{}, s)

	s, err = NewSolver(MethodHungarian)
	require.NoError(t, err)
	require.IsType(t, Hungarian{}, s)

	_, err = NewSolver("greedy")
	require.Error(t, err)
}
