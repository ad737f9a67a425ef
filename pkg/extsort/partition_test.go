package extsort

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()

	tmpfile, err := os.CreateTemp(t.TempDir(), "partition-test-*.txt")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := tmpfile.WriteString(content); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	tmpfile.Close()

	return tmpfile.Name()
}

func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}

	return strings.Split(text, "\n")
}

func TestPartition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		content   string
		chunkSize int
		wantRuns  int
	}{
		{
			name:      "empty input",
			content:   "",
			chunkSize: 2,
			wantRuns:  0,
		},
		{
			name:      "single line",
			content:   "1. One Two\n",
			chunkSize: 2,
			wantRuns:  1,
		},
		{
			name:      "exact multiple of chunk size",
			content:   "3. Three\n1. One\n2. Two\n4. Four\n",
			chunkSize: 2,
			wantRuns:  2,
		},
		{
			name:      "remainder forms a short run",
			content:   "3. Three\n1. One\n2. Two\n4. Four\n5. Five\n",
			chunkSize: 2,
			wantRuns:  3,
		},
		{
			name:      "blank line ends the chunk early",
			content:   "2. Two\n\n1. One\n3. Three\n",
			chunkSize: 10,
			wantRuns:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt := tt
			p := &partitioner{chunkSize: tt.chunkSize, scratchDir: t.TempDir()}

			runs, err := p.partition(writeInput(t, tt.content))
			if err != nil {
				t.Fatalf("partition failed: %v", err)
			}
			if len(runs) != tt.wantRuns {
				t.Fatalf("partition produced %d runs, want %d", len(runs), tt.wantRuns)
			}

			// Every run must respect the chunk bound and be sorted.
			var got []string
			for _, run := range runs {
				lines := readLines(t, run)
				if len(lines) > tt.chunkSize {
					t.Errorf("run %s has %d lines, chunk size is %d", run, len(lines), tt.chunkSize)
				}
				for i := 1; i < len(lines); i++ {
					if Compare(ParseLine(lines[i-1]), ParseLine(lines[i])) > 0 {
						t.Errorf("run %s is not sorted: %q > %q", run, lines[i-1], lines[i])
					}
				}
				got = append(got, lines...)
			}

			// The runs together hold exactly the non-blank input lines.
			var want []string
			for _, line := range strings.Split(tt.content, "\n") {
				if line != "" {
					want = append(want, line)
				}
			}
			sort.Strings(got)
			sort.Strings(want)
			if strings.Join(got, "\n") != strings.Join(want, "\n") {
				t.Errorf("runs hold %v, want %v", got, want)
			}
		})
	}
}

func TestPartition_MissingInput(t *testing.T) {
	t.Parallel()

	p := &partitioner{chunkSize: 2, scratchDir: t.TempDir()}
	if _, err := p.partition(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("partition of a missing file succeeded, want error")
	}
}

func TestWriteRun_SortsChunk(t *testing.T) {
	t.Parallel()

	p := &partitioner{chunkSize: 3, scratchDir: t.TempDir()}
	chunk := []Line{
		ParseLine("3. Three Four"),
		ParseLine("1. One Two"),
		ParseLine("2. Two Three"),
	}

	path, err := p.writeRun(chunk)
	if err != nil {
		t.Fatalf("writeRun failed: %v", err)
	}

	want := []string{"1. One Two", "3. Three Four", "2. Two Three"}
	sort.Slice(want, func(i, j int) bool {
		return Less(ParseLine(want[i]), ParseLine(want[j]))
	})
	got := readLines(t, path)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("writeRun wrote %v, want %v", got, want)
	}
}
