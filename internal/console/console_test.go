package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railwatch/internal/analysis"
	"railwatch/internal/config"
	"railwatch/internal/logging"
	"railwatch/internal/session"
	"railwatch/pkg/types"
)

// newTestConsole builds a console over an eight-station west-to-east
// line with its session and output buffer exposed.
func newTestConsole(t *testing.T) (*Console, *bytes.Buffer) {
	t.Helper()

	dir := t.TempDir()
	codes := []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF", "GGG", "HHH"}
	names := []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot", "Golf", "Hotel"}

	var geo bytes.Buffer
	geo.WriteString("Station Code,Station Name,Platform Count,Halt Time (mins),Latitude,Longitude\n")
	for i, code := range codes {
		fmt.Fprintf(&geo, "%s,%s,3,2,28.60,%.2f\n", code, names[i], 77.10+0.10*float64(i))
	}
	geoPath := filepath.Join(dir, "stations_geo.csv")
	require.NoError(t, os.WriteFile(geoPath, geo.Bytes(), 0o600))

	var sec bytes.Buffer
	sec.WriteString("From Station Code,From Station Name,To Station Code,To Station Name,Distance (km),Average Travel Time (mins)\n")
	for i := 0; i+1 < len(codes); i++ {
		fmt.Fprintf(&sec, "%s,%s,%s,%s,10,10\n", codes[i], names[i], codes[i+1], names[i+1])
	}
	secPath := filepath.Join(dir, "sections.csv")
	require.NoError(t, os.WriteFile(secPath, sec.Bytes(), 0o600))

	cfg := config.DefaultConfig()
	cfg.Data.Dir = dir
	cfg.Data.CoordStationsCSV = geoPath
	cfg.Data.StationsCSV = filepath.Join(dir, "missing.csv")
	cfg.Data.SectionsCSV = secPath

	manager := session.NewManager(nil)
	c := New(cfg, manager.Default(), analysis.NewAnalyzer(nil), logging.NewLogger(logging.ERROR))

	out := &bytes.Buffer{}
	c.output = out
	return c, out
}

func run(t *testing.T, c *Console, input string) string {
	t.Helper()
	output, err := c.Execute(context.Background(), input)
	require.NoError(t, err, "command %q", input)
	return output
}

func TestConsole_LoadAndStatus(t *testing.T) {
	c, _ := newTestConsole(t)

	out := run(t, c, "load")
	assert.Contains(t, out, "Loaded 8 stations")
	assert.Contains(t, out, "inferred")

	out = run(t, c, "status")
	assert.Contains(t, out, "Stations:   8")
	assert.Contains(t, out, "hold")
}

func TestConsole_LifecycleFlow(t *testing.T) {
	c, _ := newTestConsole(t)

	run(t, c, "load")
	out := run(t, c, "add T900 AAA BBB CCC priority=High")
	assert.Contains(t, out, "Booked T900")

	out = run(t, c, "add T901 aaa bbb ccc priority=Low")
	assert.Contains(t, out, "Booked T901")

	out = run(t, c, "detect")
	assert.Contains(t, out, "Swept 4 legs from 6 stops (2 skipped)")
	assert.Contains(t, out, "2 conflicts")
	assert.Contains(t, out, "AAA→BBB")

	out = run(t, c, "conflicts")
	assert.Contains(t, out, "2 conflicts tracked")
	assert.Contains(t, out, "detected")

	out = run(t, c, "register 1")
	assert.Contains(t, out, "Registered T900 vs T901")
	assert.NotContains(t, out, "operator may proceed")

	out = run(t, c, "proceed")
	assert.Contains(t, out, "Hold: 1 of 2 conflicts still unregistered")

	out = run(t, c, "register 2")
	assert.Contains(t, out, "operator may proceed")

	out = run(t, c, "proceed")
	assert.Contains(t, out, "All 2 conflicts registered")

	out = run(t, c, "confirm 1")
	assert.Contains(t, out, "confirmed")

	// Confirming an unregistered conflict stays ordered.
	c2, _ := newTestConsole(t)
	run(t, c2, "load")
	run(t, c2, "add T900 AAA BBB CCC")
	run(t, c2, "add T901 AAA BBB CCC start=2025-09-19T08:00:00")
	run(t, c2, "detect")
	_, err := c2.Execute(context.Background(), "confirm 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot confirm")
}

func TestConsole_AnalyzeAndAccept(t *testing.T) {
	c, _ := newTestConsole(t)
	run(t, c, "load")

	scenario := types.Scenario{
		Trains: []types.ScenarioTrain{
			{
				TrainID:       "SC1",
				TrainType:     types.TrainTypeExpress,
				PriorityLevel: types.PriorityHigh,
				Source:        "Alpha",
				Destination:   "Charlie",
			},
			{
				TrainID:       "SC2",
				TrainType:     types.TrainTypeFreight,
				PriorityLevel: types.PriorityLow,
				Source:        "Alpha",
				Destination:   "Charlie",
			},
		},
	}
	data, err := json.Marshal(scenario)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "scenario.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	out := run(t, c, "analyze "+path)
	assert.Contains(t, out, "Routed 2 of 2 trains")
	assert.Contains(t, out, "1 conflicts, 1 recommendations")
	assert.Contains(t, out, "80%")

	out = run(t, c, "recs")
	assert.Contains(t, out, "1 recommendations")

	out = run(t, c, "accept 1")
	assert.Contains(t, out, "Accepted:")
	assert.Contains(t, out, "0 remaining")

	out = run(t, c, "recs")
	assert.Contains(t, out, "No active recommendations")

	// Analysis conflicts are adjudicable like detected ones.
	out = run(t, c, "conflicts")
	assert.Contains(t, out, "1 conflicts tracked")
	out = run(t, c, "register 1")
	assert.Contains(t, out, "operator may proceed")
}

func TestConsole_GenerateAndExport(t *testing.T) {
	c, _ := newTestConsole(t)

	out := run(t, c, "generate 3")
	assert.Contains(t, out, "Generated")

	out = run(t, c, "export")
	assert.Contains(t, out, "master_stations.csv")
	assert.Contains(t, out, "augmented_sections.csv")

	_, err := os.Stat(filepath.Join(c.cfg.Data.Dir, "master_stations.csv"))
	assert.NoError(t, err)
}

func TestConsole_Errors(t *testing.T) {
	c, _ := newTestConsole(t)
	ctx := context.Background()

	_, err := c.Execute(ctx, "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")

	_, err = c.Execute(ctx, "detect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schedule loaded")

	_, err = c.Execute(ctx, "proceed")
	require.Error(t, err)

	_, err = c.Execute(ctx, "add T900 AAA")
	require.Error(t, err)

	_, err = c.Execute(ctx, "register")
	require.Error(t, err)

	run(t, c, "load")
	run(t, c, "add T900 AAA BBB CCC")
	run(t, c, "add T901 AAA BBB CCC")
	run(t, c, "detect")

	_, err = c.Execute(ctx, "register 9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, err = c.Execute(ctx, "register no-such-id")
	require.Error(t, err)

	_, err = c.Execute(ctx, "accept 1")
	require.Error(t, err)
}

func TestConsole_RunLoop(t *testing.T) {
	c, out := newTestConsole(t)
	c.input = strings.NewReader("help\nbogus\nhistory\nexit\n")

	require.NoError(t, c.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "operator console")
	assert.Contains(t, text, "Network and schedule:")
	assert.Contains(t, text, "unknown command: bogus")
	assert.Contains(t, text, "1 | ")
	assert.Contains(t, text, "Goodbye.")
}
