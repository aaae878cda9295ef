package sim

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// ExportCSV writes the run's outcome log and per-round series as CSV files
// into dir, tagged with a fresh run id so repeated exports never clobber
// each other. It is an external collaborator: it only reads the outcome
// log and metrics series, never engine internals. Returns the run id.
func (s *Simulator) ExportCSV(dir string) (string, error) {
	runID := uuid.NewString()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%s-outcomes.csv", s.Engine.Name(), runID)
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "kind", "round", "node", "hops", "detail"}); err != nil {
		return "", err
	}
	for _, r := range s.Outcomes.Records() {
		row := []string{
			strconv.FormatFloat(r.Time, 'f', 4, 64),
			string(r.Kind),
			strconv.Itoa(r.Round),
			strconv.Itoa(r.Node),
			strconv.Itoa(r.Hops),
			r.Detail,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	name = fmt.Sprintf("%s-%s-rounds.csv", s.Engine.Name(), runID)
	rf, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer rf.Close()

	rw := csv.NewWriter(rf)
	if err := rw.Write([]string{"round", "alive", "total_energy", "heads"}); err != nil {
		return "", err
	}
	for i := range s.Metrics.AliveSeries {
		row := []string{
			strconv.Itoa(i),
			strconv.Itoa(s.Metrics.AliveSeries[i]),
			strconv.FormatFloat(s.Metrics.EnergySeries[i], 'f', 6, 64),
			strconv.Itoa(s.Metrics.HeadSeries[i]),
		}
		if err := rw.Write(row); err != nil {
			return "", err
		}
	}
	rw.Flush()
	return runID, rw.Error()
}
