package generator

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
)

// Sentinel errors for bad generator configuration
var (
	ErrInvalidLineCount  = errors.New("line count must not be negative")
	ErrInvalidLineNumber = errors.New("max line number must be at least 1")
	ErrInvalidWordLimit  = errors.New("max words per line must be at least 2")
)

// words is the fixed bank every generated line draws from. All nine entries
// are eligible.
var words = []string{
	"One",
	"Two",
	"Three",
	"Four",
	"Five",
	"Six",
	"Seven",
	"Eight",
	"Nine",
}

const (
	DefaultMaxLineNumber   = 100
	DefaultMaxWordsPerLine = 10
	DefaultQueueDepth      = 1024
)

// Config controls the shape of the generated file.
type Config struct {
	LineCount       int64      // exact number of lines to emit
	MaxLineNumber   int        // prefixes drawn from [0, MaxLineNumber)
	MaxWordsPerLine int        // words per line drawn from [1, MaxWordsPerLine)
	QueueDepth      int        // producer/writer channel capacity
	Rand            *rand.Rand // optional source, for reproducible files
}

func (c *Config) normalize() error {
	if c.LineCount < 0 {
		return ErrInvalidLineCount
	}
	if c.MaxLineNumber == 0 {
		c.MaxLineNumber = DefaultMaxLineNumber
	}
	if c.MaxLineNumber < 1 {
		return ErrInvalidLineNumber
	}
	if c.MaxWordsPerLine == 0 {
		c.MaxWordsPerLine = DefaultMaxWordsPerLine
	}
	if c.MaxWordsPerLine < 2 {
		return ErrInvalidWordLimit
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = DefaultQueueDepth
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return nil
}

// Generate fabricates exactly cfg.LineCount lines of the form "N. W1 W2 … Wk"
// and streams them to w. A producer goroutine fabricates lines and blocks on
// a bounded channel whenever the writer falls behind; the calling goroutine
// drains the channel through a buffered writer. onLine, if non-nil, runs
// after each line is written.
func Generate(w io.Writer, cfg Config, onLine func()) error {
	if err := cfg.normalize(); err != nil {
		return err
	}

	lines := make(chan string, cfg.QueueDepth)
	quit := make(chan struct{})
	defer close(quit)

	go func() {
		defer close(lines)
		for i := int64(0); i < cfg.LineCount; i++ {
			select {
			case lines <- buildLine(cfg.Rand, cfg.MaxLineNumber, cfg.MaxWordsPerLine):
			case <-quit:
				return
			}
		}
	}()

	bw := bufio.NewWriter(w)
	written := int64(0)
	for line := range lines {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write line %d: %w", written+1, err)
		}
		written++
		if onLine != nil {
			onLine()
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// buildLine fabricates one record: a number in [0, maxNumber), a dot, then
// 1 to maxWords-1 words from the bank.
func buildLine(rng *rand.Rand, maxNumber, maxWords int) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(rng.IntN(maxNumber)))
	sb.WriteString(".")

	count := 1 + rng.IntN(maxWords-1)
	for i := 0; i < count; i++ {
		sb.WriteString(" ")
		sb.WriteString(words[rng.IntN(len(words))])
	}

	return sb.String()
}
