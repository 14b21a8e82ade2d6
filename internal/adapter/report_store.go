package adapter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	m "ferrule.dev/pkg/ferrule/internal/model"
)

// ReportVersion is the schema version written by SaveReports.
const ReportVersion = 1

// ErrNoReports is returned by LoadReports when nothing was saved yet.
var ErrNoReports = errors.New("no saved reports")

// ReportStore persists the result of an analysis run.
type ReportStore interface {
	SaveReports(path m.Path, run m.RunReport) error
	LoadReports(path m.Path) (m.RunReport, error)
}

// LocalReportStore stores run reports as msgpack files on the local disk.
type LocalReportStore struct{}

// NewLocalReportStore creates a LocalReportStore.
func NewLocalReportStore() *LocalReportStore {
	return &LocalReportStore{}
}

// SaveReports writes run to path, replacing any previous report atomically.
func (s *LocalReportStore) SaveReports(path m.Path, run m.RunReport) error {
	run.Version = ReportVersion

	var buf bytes.Buffer

	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)

	if err := enc.Encode(&run); err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}

	dir := filepath.Dir(string(path))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ferrule-report-*")
	if err != nil {
		return fmt.Errorf("create temporary report: %w", err)
	}

	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write reports: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close reports: %w", err)
	}

	if err := os.Rename(tmp.Name(), string(path)); err != nil {
		return fmt.Errorf("replace reports: %w", err)
	}

	return nil
}

// LoadReports reads the run saved at path.
func (s *LocalReportStore) LoadReports(path m.Path) (m.RunReport, error) {
	var run m.RunReport

	data, err := os.ReadFile(string(path))
	if errors.Is(err, os.ErrNotExist) {
		return run, fmt.Errorf("%w at %s", ErrNoReports, path)
	}

	if err != nil {
		return run, fmt.Errorf("read reports: %w", err)
	}

	if err := msgpack.Unmarshal(data, &run); err != nil {
		return run, fmt.Errorf("decode reports: %w", err)
	}

	if run.Version != ReportVersion {
		return run, fmt.Errorf("unsupported report version %d (want %d)", run.Version, ReportVersion)
	}

	return run, nil
}
