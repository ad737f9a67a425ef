package extsort

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"pkg.jsn.cam/extsort/internal/registry"
)

// Driver sorts one input file into one output file.
type Driver interface {
	Sort(inputPath, outputPath string) error
}

// Sorter is the external merge-sort driver: partition the input into sorted
// runs, merge the runs pairwise until one file remains, sweep every temp file
// afterwards. One-shot; a failed run is not retried or resumed.
type Sorter struct {
	chunkSize int
}

var _ Driver = (*Sorter)(nil)

// New creates a Sorter that buffers at most chunkSize lines per chunk.
func New(chunkSize int) (*Sorter, error) {
	if chunkSize < 1 {
		return nil, ErrInvalidChunkSize
	}
	return &Sorter{chunkSize: chunkSize}, nil
}

// Sort validates the paths, runs the pipeline, and always finishes with the
// janitor. An empty outputPath defaults to "<stem>-sorted<ext>" next to the
// input. An existing output file is refused untouched.
func (s *Sorter) Sort(inputPath, outputPath string) error {
	outputPath, err := s.validate(inputPath, outputPath)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	scratchDir := filepath.Join(os.TempDir(), "extsort-"+runID)
	if err := os.MkdirAll(scratchDir, 0700); err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}

	reg, err := registry.Open(filepath.Join(scratchDir, "registry.db"))
	if err != nil {
		os.RemoveAll(scratchDir)
		return fmt.Errorf("open run registry: %w", err)
	}

	log.Printf("[SORT] Run %s: %s -> %s (chunk size %d)",
		runID, inputPath, outputPath, s.chunkSize)

	err = s.run(inputPath, outputPath, scratchDir, reg)
	cleanup(reg, scratchDir)
	return err
}

// run drives partition then merge, recording every temp path in the registry
// as soon as it is known. Errors surface to Sort, which has the janitor drain
// the registry before returning them.
func (s *Sorter) run(inputPath, outputPath, scratchDir string, reg *registry.Registry) error {
	p := &partitioner{chunkSize: s.chunkSize, scratchDir: scratchDir}
	runs, perr := p.partition(inputPath)
	if err := reg.AddAll(runs); err != nil {
		log.Printf("[SORT] Failed to record run paths: %v", err)
	}
	if perr != nil {
		return fmt.Errorf("partition %s: %w", inputPath, perr)
	}
	if len(runs) == 0 {
		log.Printf("[SORT] %s has no lines to sort; no output written", inputPath)
		return nil
	}

	m := &merger{scratchDir: scratchDir}
	touched, merr := m.merge(runs, outputPath)
	if err := reg.AddAll(touched); err != nil {
		log.Printf("[SORT] Failed to record merge paths: %v", err)
	}
	if merr != nil {
		return fmt.Errorf("merge into %s: %w", outputPath, merr)
	}

	return nil
}

func (s *Sorter) validate(inputPath, outputPath string) (string, error) {
	if inputPath == "" {
		return "", ErrMissingInput
	}
	if _, err := os.Stat(inputPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrInputNotFound, inputPath)
		}
		return "", fmt.Errorf("stat input: %w", err)
	}

	if outputPath == "" {
		outputPath = DefaultOutputPath(inputPath)
	}
	if _, err := os.Stat(outputPath); err == nil {
		return "", fmt.Errorf("%w: %s", ErrOutputExists, outputPath)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat output: %w", err)
	}

	return outputPath, nil
}

// DefaultOutputPath derives "<stem>-sorted<ext>" in the input's directory.
func DefaultOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "-sorted" + ext
}

// cleanup is the janitor: best-effort removal of every recorded temp path,
// then of the registry ledger and the scratch directory themselves. Missing
// files are expected (consumed runs were renamed or already swept); any other
// failure is logged and skipped so one stubborn file does not strand the rest.
func cleanup(reg *registry.Registry, scratchDir string) {
	paths, err := reg.Paths()
	if err != nil {
		log.Printf("[JANITOR] Failed to read registry: %v", err)
	}

	removed := 0
	for _, path := range paths {
		err := os.Remove(path)
		switch {
		case err == nil:
			removed++
		case os.IsNotExist(err):
			// Already gone: consumed by a merge, renamed to the output, or
			// swept by an earlier pass.
		default:
			log.Printf("[JANITOR] Failed to remove %s: %v", path, err)
		}
	}

	if err := reg.Destroy(); err != nil {
		log.Printf("[JANITOR] Failed to remove registry: %v", err)
	}
	if err := os.RemoveAll(scratchDir); err != nil {
		log.Printf("[JANITOR] Failed to remove scratch directory: %v", err)
	}

	log.Printf("[JANITOR] Removed %d of %d recorded temp files", removed, len(paths))
}
