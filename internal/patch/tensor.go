package patch

import "fmt"

// NoData is the sentinel fill value for grid cells outside the source
// grid's extent. Predictors are expected to treat it as missing.
const NoData = -9999.0

// Tensor is a dense 4-D array shaped [steps, channels, rows, cols],
// backed by a single contiguous slice.
type Tensor struct {
	steps    int
	channels int
	rows     int
	cols     int
	data     []float64
}

// NewTensor allocates a zero-filled tensor with the given shape.
func NewTensor(steps, channels, rows, cols int) *Tensor {
	return &Tensor{
		steps:    steps,
		channels: channels,
		rows:     rows,
		cols:     cols,
		data:     make([]float64, steps*channels*rows*cols),
	}
}

// Shape returns (steps, channels, rows, cols).
func (t *Tensor) Shape() (int, int, int, int) {
	return t.steps, t.channels, t.rows, t.cols
}

func (t *Tensor) index(s, c, i, j int) int {
	return ((s*t.channels+c)*t.rows+i)*t.cols + j
}

// At returns the value at [s, c, i, j].
func (t *Tensor) At(s, c, i, j int) float64 {
	return t.data[t.index(s, c, i, j)]
}

// Set stores v at [s, c, i, j].
func (t *Tensor) Set(s, c, i, j int, v float64) {
	t.data[t.index(s, c, i, j)] = v
}

// Fill sets every element to v.
func (t *Tensor) Fill(v float64) {
	for i := range t.data {
		t.data[i] = v
	}
}

// Values returns the backing slice in [steps][channels][rows][cols]
// order. Callers must not mutate it.
func (t *Tensor) Values() []float64 {
	return t.data
}

// String describes the tensor shape, for logs and errors.
func (t *Tensor) String() string {
	return fmt.Sprintf("tensor[%d,%d,%d,%d]", t.steps, t.channels, t.rows, t.cols)
}
