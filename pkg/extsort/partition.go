package extsort

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// partitioner slices the input into chunks of at most chunkSize non-empty
// lines and writes each chunk as a sorted run under scratchDir. Reading is
// sequential; sorting and writing of a filled chunk happens on background
// tasks so the reader can keep slicing while earlier chunks drain to disk.
type partitioner struct {
	chunkSize  int
	scratchDir string
}

// partition streams inputPath into sorted runs and returns their paths in
// completion order. The run order carries no meaning; the merger treats the
// result as a bag. When a chunk task fails, the paths of chunks that did
// complete are still returned so the caller can hand them to the janitor.
func (p *partitioner) partition(inputPath string) ([]string, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	var (
		eg   errgroup.Group
		mu   sync.Mutex
		runs []string
	)
	// Caps in-flight chunk buffers: eg.Go blocks the reader once the limit
	// is reached, bounding memory to chunkSize*(limit+1) lines.
	eg.SetLimit(runtime.GOMAXPROCS(0))

	dispatch := func(chunk []Line) {
		eg.Go(func() error {
			path, err := p.writeRun(chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			runs = append(runs, path)
			mu.Unlock()
			return nil
		})
	}

	scanner := bufio.NewScanner(file)
	chunk := make([]Line, 0, p.chunkSize)
	for scanner.Scan() {
		text := scanner.Text()
		if text == "" {
			// A blank line ends the current chunk early.
			if len(chunk) > 0 {
				dispatch(chunk)
				chunk = make([]Line, 0, p.chunkSize)
			}
			continue
		}
		chunk = append(chunk, ParseLine(text))
		if len(chunk) >= p.chunkSize {
			dispatch(chunk)
			chunk = make([]Line, 0, p.chunkSize)
		}
	}
	if len(chunk) > 0 {
		dispatch(chunk)
	}
	scanErr := scanner.Err()

	// Siblings are awaited, never cancelled: every run that finished must be
	// known before the janitor takes over.
	if err := eg.Wait(); err != nil {
		return runs, fmt.Errorf("sort chunk: %w", err)
	}
	if scanErr != nil {
		return runs, fmt.Errorf("read input: %w", scanErr)
	}

	log.Printf("[PARTITION] Produced %d sorted runs from %s", len(runs), inputPath)
	return runs, nil
}

// writeRun sorts the chunk in place and persists it to a fresh temp file.
// A partial file left behind by a failed write is removed here; the chunk
// never becomes a run the merger could see.
func (p *partitioner) writeRun(chunk []Line) (string, error) {
	sort.Slice(chunk, func(i, j int) bool {
		return Less(chunk[i], chunk[j])
	})

	path := filepath.Join(p.scratchDir, "run-"+uuid.New().String()+".tmp")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create run file: %w", err)
	}

	w := bufio.NewWriter(file)
	for _, line := range chunk {
		if _, err := w.WriteString(line.Render() + lineEnding); err != nil {
			file.Close()
			os.Remove(path)
			return "", fmt.Errorf("write run file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("flush run file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close run file: %w", err)
	}

	return path, nil
}
