// Package lpnparams is the closed LPN parameter table (spec §3, §4.2): a
// pure lookup from logical dimension n to noise weight t and expansion
// N = 4n, at a fixed target security level (R = 1/4, delta = 0.05).
package lpnparams

import "emsm/emsmerr"

// Params is one row of the table.
type Params struct {
	N     int     // logical dimension (message length)
	Expn  int     // N = 4n, the expanded/codeword length
	T     int     // noise weight (number of nonzero chunks)
	R     float64 // code rate, fixed at 1/4
	Delta float64 // target statistical distance, fixed at 0.05
}

const (
	minLogN = 10 // 2^10
	maxLogN = 24 // 2^24
	rate    = 0.25
	delta   = 0.05
)

// table is generated once at package init from the closed range of
// supported dimensions. Noise weight keeps a constant chunk width of 32
// field elements per chunk (N/t == 32 for every row), which is what keeps
// t | N for every power-of-two n in range.
var table = buildTable()

func buildTable() map[int]Params {
	const chunkWidth = 32
	m := make(map[int]Params, maxLogN-minLogN+1)
	for logN := minLogN; logN <= maxLogN; logN++ {
		n := 1 << logN
		N := 4 * n
		t := N / chunkWidth
		m[n] = Params{N: n, Expn: N, T: t, R: rate, Delta: delta}
	}
	return m
}

// nextPow2 rounds n up to the next power of two, per spec §4.2 ("n is
// rounded up to the next supported power of two internally").
func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// ParamsFor looks up LPN parameters for logical dimension n, rounding n up
// to the next supported power of two. Fails with ErrParameterMismatch if
// the rounded dimension falls outside the table (n > 2^24, or n < 2^10 is
// rounded up to the smallest supported row instead of failing).
func ParamsFor(n int) (Params, error) {
	if n <= 0 {
		return Params{}, emsmerr.Wrap(emsmerr.ErrParameterMismatch, "lpnparams: n must be positive", nil)
	}
	rounded := nextPow2(n)
	if rounded < 1<<minLogN {
		rounded = 1 << minLogN
	}
	p, ok := table[rounded]
	if !ok {
		return Params{}, emsmerr.Wrap(emsmerr.ErrParameterMismatch, "lpnparams: unsupported dimension", nil)
	}
	return p, nil
}
