package main

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Snapshot holds one reading of per-core CPU utilization, in core index order.
// Values are percentages as reported by the CPU source and are not clamped.
type Snapshot struct {
	cores []float64
}

// NewSnapshot copies cores into a new Snapshot.
func NewSnapshot(cores []float64) Snapshot {
	cp := make([]float64, len(cores))
	copy(cp, cores)
	return Snapshot{cores: cp}
}

// Cores returns a copy of the per-core values.
func (s Snapshot) Cores() []float64 {
	cp := make([]float64, len(s.cores))
	copy(cp, s.cores)
	return cp
}

// Len returns the number of cores in the snapshot.
func (s Snapshot) Len() int { return len(s.cores) }

// Equal reports whether both snapshots carry the same values in the same order.
func (s Snapshot) Equal(o Snapshot) bool {
	if len(s.cores) != len(o.cores) {
		return false
	}
	for i := range s.cores {
		if s.cores[i] != o.cores[i] {
			return false
		}
	}
	return true
}

// MarshalJSON renders the snapshot as a JSON array of numbers. Every number
// carries a fractional part, so 1 is written as 1.0.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 2+len(s.cores)*6)
	buf = append(buf, '[')
	for i, v := range s.cores {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("core %d: unsupported value %v", i, v)
		}
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendPercent(buf, v)
	}
	buf = append(buf, ']')
	return buf, nil
}

// UnmarshalJSON parses a JSON array of numbers.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var cores []float64
	if err := json.Unmarshal(data, &cores); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}
	s.cores = cores
	return nil
}

func appendPercent(buf []byte, v float64) []byte {
	start := len(buf)
	buf = strconv.AppendFloat(buf, v, 'f', -1, 64)
	for _, c := range buf[start:] {
		if c == '.' {
			return buf
		}
	}
	return append(buf, '.', '0')
}
