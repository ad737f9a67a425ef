package extsort

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// merger combines sorted runs pairwise, wave by wave, until a single file
// remains and is renamed onto the output path. Each wave drains the current
// queue into concurrent pair merges; an odd file out rides along into the
// next wave unmerged.
type merger struct {
	scratchDir string
}

// merge reduces runs to a single sorted file at outputPath. The returned
// slice holds every temp path the merger touched (pair inputs, pair outputs
// including partial ones, and the file renamed onto the output) so the
// janitor can sweep all of them. Duplicates are possible and harmless.
// An empty input produces no output file and an empty removal set.
func (m *merger) merge(runs []string, outputPath string) ([]string, error) {
	if len(runs) == 0 {
		return nil, nil
	}

	var removals []string
	queue := append([]string(nil), runs...)

	for wave := 1; ; wave++ {
		var eg errgroup.Group
		outputs := make([]string, len(queue)/2)

		pairs := 0
		for len(queue) >= 2 {
			a, b := queue[0], queue[1]
			queue = queue[2:]
			removals = append(removals, a, b)

			i := pairs
			pairs++
			eg.Go(func() error {
				out, err := m.mergePair(a, b)
				// A partial output from a failed merge stays on disk; the
				// janitor removes it, not the task.
				outputs[i] = out
				return err
			})
		}

		if len(queue) == 1 && pairs == 0 {
			// Exactly one sorted file left and nothing in flight: it is the
			// answer. Rename it onto the output and stop.
			final := queue[0]
			removals = append(removals, final)
			if err := os.Rename(final, outputPath); err != nil {
				return removals, fmt.Errorf("rename %s to %s: %w", final, outputPath, err)
			}
			log.Printf("[MERGE] Renamed final run to %s", outputPath)
			return removals, nil
		}

		waveErr := eg.Wait()
		for _, out := range outputs {
			if out != "" {
				removals = append(removals, out)
			}
		}
		if waveErr != nil {
			// The leftover, if any, never got merged; it still needs sweeping.
			removals = append(removals, queue...)
			return removals, fmt.Errorf("merge wave %d: %w", wave, waveErr)
		}

		log.Printf("[MERGE] Wave %d merged %d pairs (%d files remain)",
			wave, pairs, len(queue)+pairs)

		// The odd file out, then this wave's outputs, seed the next wave.
		for _, out := range outputs {
			queue = append(queue, out)
		}
	}
}

// runCursor walks one sorted run a line at a time.
type runCursor struct {
	scanner *bufio.Scanner
	line    Line
	ok      bool
}

func (c *runCursor) advance() error {
	if c.scanner.Scan() {
		c.line = ParseLine(c.scanner.Text())
		c.ok = true
		return nil
	}
	c.ok = false
	return c.scanner.Err()
}

// mergePair streams two sorted runs into a new sorted temp file and returns
// its path. On failure the path of the partial output (if one was created)
// is returned alongside the error so it can be registered for cleanup.
func (m *merger) mergePair(a, b string) (string, error) {
	fa, err := os.Open(a)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", a, err)
	}
	defer fa.Close()

	fb, err := os.Open(b)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", b, err)
	}
	defer fb.Close()

	path := filepath.Join(m.scratchDir, "merge-"+uuid.New().String()+".tmp")
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create merge file: %w", err)
	}
	defer out.Close()

	ca := &runCursor{scanner: bufio.NewScanner(fa)}
	cb := &runCursor{scanner: bufio.NewScanner(fb)}
	if err := ca.advance(); err != nil {
		return path, fmt.Errorf("read %s: %w", a, err)
	}
	if err := cb.advance(); err != nil {
		return path, fmt.Errorf("read %s: %w", b, err)
	}

	w := bufio.NewWriter(out)
	emit := func(l Line) error {
		_, err := w.WriteString(l.Render() + lineEnding)
		return err
	}

	for ca.ok && cb.ok {
		if Compare(ca.line, cb.line) <= 0 {
			if err := emit(ca.line); err != nil {
				return path, fmt.Errorf("write merge file: %w", err)
			}
			if err := ca.advance(); err != nil {
				return path, fmt.Errorf("read %s: %w", a, err)
			}
		} else {
			if err := emit(cb.line); err != nil {
				return path, fmt.Errorf("write merge file: %w", err)
			}
			if err := cb.advance(); err != nil {
				return path, fmt.Errorf("read %s: %w", b, err)
			}
		}
	}

	// One side ran dry; drain the other.
	for ca.ok {
		if err := emit(ca.line); err != nil {
			return path, fmt.Errorf("write merge file: %w", err)
		}
		if err := ca.advance(); err != nil {
			return path, fmt.Errorf("read %s: %w", a, err)
		}
	}
	for cb.ok {
		if err := emit(cb.line); err != nil {
			return path, fmt.Errorf("write merge file: %w", err)
		}
		if err := cb.advance(); err != nil {
			return path, fmt.Errorf("read %s: %w", b, err)
		}
	}

	if err := w.Flush(); err != nil {
		return path, fmt.Errorf("flush merge file: %w", err)
	}
	if err := out.Close(); err != nil {
		return path, fmt.Errorf("close merge file: %w", err)
	}

	return path, nil
}
