package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrementCommand(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementCommand("login", nil)
	m.IncrementCommand("login", errors.New("Incorrect email or password"))
	m.IncrementCommand("login", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Commands.WithLabelValues("login", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("login", "error")))
}

func TestWriteTextfile(t *testing.T) {
	reg := NewRegistry()
	New(reg).IncrementCommand("whoami", nil)
	path := filepath.Join(t.TempDir(), "foodrescue.prom")

	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `foodrescue_cli_commands_total{command="whoami",outcome="ok"} 1`)
	assert.Contains(t, string(data), "go_goroutines")
}
