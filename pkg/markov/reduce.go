package markov

import (
	"math"
	"runtime"
	"sync"
)

// Number is the element type of the reducer's arrays.
type Number interface {
	~int | ~float64
}

// Matrix is an N×N array stored row-major in a single backing slice.
type Matrix[T Number] struct {
	N     int
	Cells []T
}

// NewMatrix allocates a zeroed N×N matrix.
func NewMatrix[T Number](n int) Matrix[T] {
	return Matrix[T]{N: n, Cells: make([]T, n*n)}
}

// At returns the cell (i, j).
func (m Matrix[T]) At(i, j int) T {
	return m.Cells[i*m.N+j]
}

// Row returns row i as a sub-slice of the backing array.
func (m Matrix[T]) Row(i int) []T {
	return m.Cells[i*m.N : (i+1)*m.N]
}

// Tensor is an N×N×N array stored with the last axis contiguous.
type Tensor[T Number] struct {
	N     int
	Cells []T
}

// NewTensor allocates a zeroed N×N×N tensor.
func NewTensor[T Number](n int) Tensor[T] {
	return Tensor[T]{N: n, Cells: make([]T, n*n*n)}
}

// At returns the cell (i, j, k).
func (t Tensor[T]) At(i, j, k int) T {
	return t.Cells[(i*t.N+j)*t.N+k]
}

// Row returns the vector t[i][j][*].
func (t Tensor[T]) Row(i, j int) []T {
	off := (i*t.N + j) * t.N
	return t.Cells[off : off+t.N]
}

// Reducer holds the fixed dimension N and the parallelism used by the tensor
// operators. Every operator writes disjoint output rows from read-only inputs,
// so results do not depend on the number of workers.
type Reducer struct {
	n       int
	workers int
}

// NewReducer returns a Reducer for N×N(×N) operands. workers <= 0 selects
// runtime.NumCPU().
func NewReducer(n, workers int) *Reducer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Reducer{n: n, workers: workers}
}

// parallelFor calls fn(i) for every i in [0, n) using up to r.workers goroutines.
func (r *Reducer) parallelFor(n int, fn func(i int)) {
	workers := r.workers
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < n; i += workers {
				fn(i)
			}
		}(w)
	}
	wg.Wait()
}

// Sum returns the column sums of m.
func (r *Reducer) Sum(m Matrix[int]) []int {
	n := r.n
	out := make([]int, n)
	r.parallelFor(n, func(i int) {
		s := 0
		for j := 0; j < n; j++ {
			s += m.Cells[j*n+i]
		}
		out[i] = s
	})
	return out
}

// SumAxis0 sums t over its first axis: out[i][j] = Σk t[k][i][j].
func (r *Reducer) SumAxis0(t Tensor[int]) Matrix[int] {
	n := r.n
	out := NewMatrix[int](n)
	r.parallelFor(n, func(i int) {
		row := out.Row(i)
		for j := 0; j < n; j++ {
			s := 0
			for k := 0; k < n; k++ {
				s += t.Cells[(k*n+i)*n+j]
			}
			row[j] = s
		}
	})
	return out
}

// SumAxis2 sums t over its last axis: out[i][j] = Σk t[i][j][k].
func (r *Reducer) SumAxis2(t Tensor[int]) Matrix[int] {
	n := r.n
	out := NewMatrix[int](n)
	r.parallelFor(n, func(i int) {
		row := out.Row(i)
		for j := 0; j < n; j++ {
			s := 0
			for _, v := range t.Row(i, j) {
				s += v
			}
			row[j] = s
		}
	})
	return out
}

// Transpose2 swaps the two axes of m.
func (r *Reducer) Transpose2(m Matrix[int]) Matrix[int] {
	n := r.n
	out := NewMatrix[int](n)
	r.parallelFor(n, func(i int) {
		row := out.Row(i)
		for j := 0; j < n; j++ {
			row[j] = m.Cells[j*n+i]
		}
	})
	return out
}

// Transpose3 reverses the three axes of t: out[x][y][z] = t[z][y][x].
func (r *Reducer) Transpose3(t Tensor[int]) Tensor[int] {
	n := r.n
	out := NewTensor[int](n)
	r.parallelFor(n, func(x int) {
		for y := 0; y < n; y++ {
			row := out.Row(x, y)
			for z := 0; z < n; z++ {
				row[z] = t.Cells[(z*n+y)*n+x]
			}
		}
	})
	return out
}

// Tile2 copies v into every row of an N×N matrix.
func (r *Reducer) Tile2(v []int) Matrix[int] {
	out := NewMatrix[int](r.n)
	r.parallelFor(r.n, func(i int) {
		copy(out.Row(i), v)
	})
	return out
}

// Tile3 copies m into every layer of an N×N×N tensor.
func (r *Reducer) Tile3(m Matrix[int]) Tensor[int] {
	n := r.n
	out := NewTensor[int](n)
	r.parallelFor(n, func(i int) {
		copy(out.Cells[i*n*n:(i+1)*n*n], m.Cells)
	})
	return out
}

// Divide returns a/b element-wise. Cells where b is zero are exactly 0: an
// unobserved context has zero probability.
func (r *Reducer) Divide(a, b Matrix[int]) Matrix[float64] {
	n := r.n
	out := NewMatrix[float64](n)
	r.parallelFor(n, func(i int) {
		divideRow(out.Row(i), a.Row(i), b.Row(i))
	})
	return out
}

// Divide3 is the three-dimensional form of Divide.
func (r *Reducer) Divide3(a, b Tensor[int]) Tensor[float64] {
	n := r.n
	out := NewTensor[float64](n)
	r.parallelFor(n, func(i int) {
		for j := 0; j < n; j++ {
			divideRow(out.Row(i, j), a.Row(i, j), b.Row(i, j))
		}
	})
	return out
}

func divideRow(dst []float64, a, b []int) {
	for k, d := range b {
		if d != 0 {
			dst[k] = float64(a[k]) / float64(d)
		}
	}
}

// Pow raises every cell of m to exponent.
func (r *Reducer) Pow(m Matrix[float64], exponent float64) Matrix[float64] {
	n := r.n
	out := NewMatrix[float64](n)
	r.parallelFor(n, func(i int) {
		src, dst := m.Row(i), out.Row(i)
		for j, v := range src {
			dst[j] = math.Pow(v, exponent)
		}
	})
	return out
}
