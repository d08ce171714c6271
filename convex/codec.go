package convex

import (
	"encoding/binary"
	"math"

	"github.com/haying/madlib/pkg/errors"
)

// Persisted snapshot layout, as float64 cells:
//
//	[dimension][kind][stepsize][lambda][iteration]
//	[model: D scalars]
//	[loss][gradnorm]
//	[direction marker][direction: D][gradient: D]   (last two only when marker is 1)
//	[stderr marker][stderrs: D][condnum]            (last two only when marker is 1)
//	[rowCount]
//
// The step-size-search layout repeats a fixed-size candidate record K
// times behind a leading marker cell distinguishing empty from populated.

// Encode flattens the snapshot into its persisted cell layout.
func (s *Snapshot) Encode() []float64 {
	d := s.Config.Dimension
	cells := make([]float64, 0, 5+d+2+1+1+1)
	cells = append(cells,
		float64(d),
		float64(s.Config.Kind),
		s.Config.StepSize,
		s.Config.Lambda,
		float64(s.Iteration),
	)
	cells = append(cells, s.Model...)
	cells = append(cells, s.Loss, s.GradNorm)

	if s.Direction != nil {
		cells = append(cells, 1)
		cells = append(cells, s.Direction...)
		cells = append(cells, s.Gradient...)
	} else {
		cells = append(cells, 0)
	}
	if s.StdErrs != nil {
		cells = append(cells, 1)
		cells = append(cells, s.StdErrs...)
		cells = append(cells, s.CondNum)
	} else {
		cells = append(cells, 0)
	}

	cells = append(cells, float64(s.RowCount))
	return cells
}

// DecodeSnapshot rebuilds a snapshot from its persisted cell layout.
func DecodeSnapshot(cells []float64) (*Snapshot, error) {
	const op = "DecodeSnapshot"
	if len(cells) < 5 {
		return nil, errors.NewValueError(op, "blob too short for header")
	}
	d := int(cells[0])
	if d <= 0 {
		return nil, errors.NewConfigError(op, "dimension", "must be positive", d)
	}

	s := &Snapshot{
		Config: TaskConfig{
			Dimension: d,
			Kind:      Kind(cells[1]),
			StepSize:  cells[2],
			Lambda:    cells[3],
		},
		Iteration: int(cells[4]),
	}
	if err := s.Config.Validate(); err != nil {
		return nil, err
	}

	rest := cells[5:]
	take := func(n int) ([]float64, error) {
		if len(rest) < n {
			return nil, errors.NewValueError(op, "blob truncated")
		}
		out := rest[:n]
		rest = rest[n:]
		return out, nil
	}

	model, err := take(d)
	if err != nil {
		return nil, err
	}
	s.Model = cloneModel(model)

	head, err := take(3) // loss, gradnorm, direction marker
	if err != nil {
		return nil, err
	}
	s.Loss, s.GradNorm = head[0], head[1]

	if head[2] != 0 {
		dir, err := take(2 * d)
		if err != nil {
			return nil, err
		}
		s.Direction = cloneModel(dir[:d])
		s.Gradient = cloneModel(dir[d:])
	}

	marker, err := take(1)
	if err != nil {
		return nil, err
	}
	if marker[0] != 0 {
		se, err := take(d + 1)
		if err != nil {
			return nil, err
		}
		s.StdErrs = cloneModel(se[:d])
		s.CondNum = se[d]
	}

	tail, err := take(1)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errors.NewValueError(op, "trailing cells in blob")
	}
	s.RowCount = int64(tail[0])
	return s, nil
}

// MarshalBinary implements encoding.BinaryMarshaler with the little-endian
// byte form of the cell layout, so gob-persisted estimators embed
// snapshots in their stable wire format.
func (s *Snapshot) MarshalBinary() ([]byte, error) {
	cells := s.Encode()
	buf := make([]byte, 8*len(cells))
	for i, c := range cells {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(c))
	}
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Snapshot) UnmarshalBinary(data []byte) error {
	if len(data)%8 != 0 {
		return errors.NewValueError("Snapshot.UnmarshalBinary", "blob length is not a multiple of 8")
	}
	cells := make([]float64, len(data)/8)
	for i := range cells {
		cells[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[8*i:]))
	}
	decoded, err := DecodeSnapshot(cells)
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}

// EncodeSearch flattens a best-ball scan: one populated marker cell, then
// a fixed-stride record [stepsize][lossSum][rows][model: D] per candidate.
// An all-zero first cell marks an uninitialized buffer.
func (s *StepSizeSearch) EncodeSearch() []float64 {
	d := s.config.Dimension
	stride := 3 + d
	cells := make([]float64, 0, 1+stride*len(s.cands))
	cells = append(cells, 1) // populated marker
	for _, c := range s.cands {
		cells = append(cells, c.StepSize, c.LossSum, float64(c.Rows))
		cells = append(cells, c.Model...)
	}
	return cells
}

// DecodeSearch rebuilds a best-ball scan from its persisted cells. A blob
// whose first cell is zero decodes to nil, the uninitialized buffer.
func DecodeSearch(config TaskConfig, cells []float64) (*StepSizeSearch, error) {
	const op = "DecodeSearch"
	if len(cells) == 0 || cells[0] == 0 {
		return nil, nil
	}
	d := config.Dimension
	stride := 3 + d
	if (len(cells)-1)%stride != 0 {
		return nil, errors.NewValueError(op, "blob length does not match candidate stride")
	}
	k := (len(cells) - 1) / stride

	models := make([][]float64, k)
	for i := 0; i < k; i++ {
		rec := cells[1+i*stride:]
		models[i] = cloneModel(rec[3 : 3+d])
	}
	search, err := NewModelSearch(config, models)
	if err != nil {
		return nil, err
	}
	for i := 0; i < k; i++ {
		rec := cells[1+i*stride:]
		search.cands[i].StepSize = rec[0]
		search.cands[i].LossSum = rec[1]
		search.cands[i].Rows = int64(rec[2])
	}
	return search, nil
}
