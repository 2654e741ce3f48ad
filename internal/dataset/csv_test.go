package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadObservations(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		want    int
		wantErr string
	}{
		{
			name: "happy path",
			csv:  "age,sex,time_sec\n35,M,1010.5\n40,F,1190\n55,M,1100.25\n",
			want: 3,
		},
		{
			name: "header columns in any order with extras",
			csv:  "event,time_sec,sex,age\nfree-1500,1010.5,M,35\nfree-1500,1190,F,40\n",
			want: 2,
		},
		{
			name: "lowercase sex codes accepted",
			csv:  "age,sex,time_sec\n35,m,1010\n40,f,1190\n",
			want: 2,
		},
		{
			name:    "missing required column",
			csv:     "age,sex\n35,M\n",
			wantErr: "missing required column",
		},
		{
			name:    "non-integer age",
			csv:     "age,sex,time_sec\nthirty,M,1010\n",
			wantErr: "not an integer",
		},
		{
			name:    "unrecognized sex code",
			csv:     "age,sex,time_sec\n35,X,1010\n",
			wantErr: "unrecognized sex code",
		},
		{
			name:    "non-numeric time",
			csv:     "age,sex,time_sec\n35,M,fast\n",
			wantErr: "not a number",
		},
		{
			name:    "negative time",
			csv:     "age,sex,time_sec\n35,M,-5\n",
			wantErr: "must be positive",
		},
		{
			name:    "headers only is empty but loadable",
			csv:     "age,sex,time_sec\n",
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeCSV(t, dir, "swim.csv", tt.csv)

			obs, err := LoadObservations(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Len(t, obs, tt.want)
		})
	}
}

func TestLoadObservations_Values(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "swim.csv", "age,sex,time_sec\n35,M,1010.5\n60,F,1305.75\n")

	obs, err := LoadObservations(path)
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, Observation{Age: 35, Sex: Male, TimeSec: 1010.5}, obs[0])
	assert.Equal(t, Observation{Age: 60, Sex: Female, TimeSec: 1305.75}, obs[1])
}

func TestLoadObservations_MissingFile(t *testing.T) {
	_, err := LoadObservations("/nonexistent/path/swim.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv: open")
}

func TestLoadObservations_IntegrityErrorRow(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "swim.csv", "age,sex,time_sec\n35,M,1010\n40,M,zero\n")

	_, err := LoadObservations(path)
	require.Error(t, err)

	var ie *IntegrityError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 3, ie.Row)
	assert.Equal(t, "time_sec", ie.Field)
}

func TestParseSex(t *testing.T) {
	for raw, want := range map[string]Sex{"M": Male, "f": Female, " m ": Male} {
		got, err := ParseSex(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseSex("unknown")
	assert.Error(t, err)
}
