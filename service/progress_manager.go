package service

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ludo-technologies/simeval/domain"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// IsInteractiveEnvironment reports whether stderr is a terminal and CI is not set
func IsInteractiveEnvironment() bool {
	if os.Getenv("CI") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// fileProgress is the running pair count of one file pair
type fileProgress struct {
	pairs, scored, skipped, failed int
}

// ProgressManagerImpl draws one bar over file pairs. The description names the
// file that last reported and its pair outcomes so far.
type ProgressManagerImpl struct {
	mu          sync.Mutex
	writer      io.Writer
	interactive bool
	bar         *progressbar.ProgressBar

	totalFiles int
	tally      domain.ProgressTally
	files      map[string]*fileProgress
}

// NewProgressManager creates a progress manager writing to stderr
func NewProgressManager() *ProgressManagerImpl {
	return &ProgressManagerImpl{
		writer:      os.Stderr,
		interactive: IsInteractiveEnvironment(),
		files:       make(map[string]*fileProgress),
	}
}

// Start resets the tally and creates the bar when output is interactive
func (pm *ProgressManagerImpl) Start(files int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.totalFiles = files
	pm.tally = domain.ProgressTally{}
	pm.files = make(map[string]*fileProgress)
	pm.bar = nil
	if pm.interactive && files > 0 {
		pm.bar = pm.createProgressBar(files)
	}
}

// BeginFile registers a file pair and its function pair count
func (pm *ProgressManagerImpl) BeginFile(name string, pairs int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.file(name).pairs = pairs
	pm.describe(name)
}

// RecordPair counts one function pair outcome
func (pm *ProgressManagerImpl) RecordPair(name string, status domain.PairStatus) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	f := pm.file(name)
	switch status {
	case domain.PairStatusScored:
		f.scored++
		pm.tally.Scored++
	case domain.PairStatusSkipped:
		f.skipped++
		pm.tally.Skipped++
	case domain.PairStatusFailed:
		f.failed++
		pm.tally.Failed++
	}
	pm.describe(name)
}

// EndFile advances the bar by one file pair
func (pm *ProgressManagerImpl) EndFile(name string, status domain.FileStatus) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.tally.Files++
	if status == domain.FileStatusRejected {
		pm.tally.RejectedFiles++
	}
	delete(pm.files, name)
	if pm.bar != nil {
		pm.bar.Describe(fmt.Sprintf("[%d/%d] %s %s", pm.tally.Files, pm.totalFiles, name, status))
		_ = pm.bar.Add(1)
	}
}

// Finish completes the bar and returns the tally
func (pm *ProgressManagerImpl) Finish() domain.ProgressTally {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.bar != nil {
		_ = pm.bar.Finish()
		pm.bar = nil
	}
	return pm.tally
}

// SetWriter sets the output writer for the progress bar
func (pm *ProgressManagerImpl) SetWriter(writer io.Writer) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.writer = writer
	if file, ok := writer.(*os.File); ok {
		pm.interactive = term.IsTerminal(int(file.Fd()))
	} else {
		pm.interactive = false
	}
}

// IsInteractive returns true if a progress bar is drawn
func (pm *ProgressManagerImpl) IsInteractive() bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	return pm.interactive
}

func (pm *ProgressManagerImpl) file(name string) *fileProgress {
	f, ok := pm.files[name]
	if !ok {
		f = &fileProgress{}
		pm.files[name] = f
	}
	return f
}

// describe shows the pair counts of name. Callers hold mu.
func (pm *ProgressManagerImpl) describe(name string) {
	if pm.bar == nil {
		return
	}
	f := pm.files[name]
	pm.bar.Describe(fmt.Sprintf("[%d/%d] %s %d/%d pairs (%d skipped, %d failed)",
		pm.tally.Files, pm.totalFiles, name, f.scored+f.skipped+f.failed, f.pairs, f.skipped, f.failed))
}

func (pm *ProgressManagerImpl) createProgressBar(files int) *progressbar.ProgressBar {
	writer := pm.writer
	if writer == nil {
		writer = io.Discard
	}

	return progressbar.NewOptions(files,
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetWriter(writer),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(writer)
		}),
	)
}

var _ domain.ProgressManager = (*ProgressManagerImpl)(nil)
