package main

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	snap := NewSnapshot([]float64{1.0, 2.0, 3.0})

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Equal(t, "[1.0,2.0,3.0]", string(data))

	var back Snapshot
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []float64{1.0, 2.0, 3.0}, back.Cores())
	assert.True(t, snap.Equal(back))
}

func TestSnapshot_MarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		cores []float64
		want  string
	}{
		{name: "empty", cores: nil, want: "[]"},
		{name: "mixed", cores: []float64{12.5, 3, 0, 45.2}, want: "[12.5,3.0,0.0,45.2]"},
		{name: "above hundred passes through", cores: []float64{100.00001}, want: "[100.00001]"},
		{name: "small fraction", cores: []float64{0.125}, want: "[0.125]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := NewSnapshot(tt.cores).MarshalJSON()
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestSnapshot_MarshalRejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := NewSnapshot([]float64{1, v}).MarshalJSON()
		assert.Error(t, err)
	}
}

func TestSnapshot_Immutable(t *testing.T) {
	in := []float64{1, 2}
	snap := NewSnapshot(in)
	in[0] = 99

	out := snap.Cores()
	out[1] = 99

	assert.Equal(t, []float64{1, 2}, snap.Cores())
}

func TestSnapshot_UnmarshalInvalid(t *testing.T) {
	var snap Snapshot
	assert.Error(t, json.Unmarshal([]byte(`{"cores":1}`), &snap))
}
