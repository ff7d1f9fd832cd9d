package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Writer is the subset of Collector the engine updates.
type Writer interface {
	SetTotals(files, bytes int64)
	AddFilesSucceeded(n int64)
	AddFilesSkipped(n int64)
	AddFilesFailed(n int64)
	AddFilesHydrated(n int64)
	AddFilesDehydrated(n int64)
	AddBytesCopied(n int64)
	AddBytesSkipped(n int64)
}

// Reader is the read side used by presenters.
type Reader interface {
	Snapshot() Snapshot
	RollingSpeed(seconds int) float64
	ETA() time.Duration
}

// ReadTicker is a Reader that also samples the throughput ring buffer.
type ReadTicker interface {
	Reader
	Tick()
	SparklineData(n int) []float64
}

var (
	_ Writer     = (*Collector)(nil)
	_ ReadTicker = (*Collector)(nil)
)

// Collector tracks migration statistics using lock-free atomic counters.
type Collector struct {
	filesTotal      atomic.Int64
	bytesTotal      atomic.Int64
	filesSucceeded  atomic.Int64
	filesSkipped    atomic.Int64
	filesFailed     atomic.Int64
	filesHydrated   atomic.Int64
	filesDehydrated atomic.Int64
	bytesCopied     atomic.Int64
	bytesDone       atomic.Int64 // copied + skipped bytes, drives ETA
	startTime       time.Time

	// Ring buffer, written only by the presenter's Tick().
	mu         sync.Mutex
	throughput [ringSize]int64 // bytes delta per second
	ringIdx    int
	ringCount  int
	lastBytes  int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// SetTotals records scan totals (called once when the scan completes).
func (c *Collector) SetTotals(files, bytes int64) {
	c.filesTotal.Store(files)
	c.bytesTotal.Store(bytes)
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesTotal      int64
	BytesTotal      int64
	FilesSucceeded  int64
	FilesSkipped    int64
	FilesFailed     int64
	FilesHydrated   int64
	FilesDehydrated int64
	BytesCopied     int64
	BytesDone       int64
	Elapsed         time.Duration
}

// FilesDone is the number of files that reached a final state.
func (s Snapshot) FilesDone() int64 {
	return s.FilesSucceeded + s.FilesSkipped + s.FilesFailed
}

func (c *Collector) AddFilesSucceeded(n int64)  { c.filesSucceeded.Add(n) }
func (c *Collector) AddFilesSkipped(n int64)    { c.filesSkipped.Add(n) }
func (c *Collector) AddFilesFailed(n int64)     { c.filesFailed.Add(n) }
func (c *Collector) AddFilesHydrated(n int64)   { c.filesHydrated.Add(n) }
func (c *Collector) AddFilesDehydrated(n int64) { c.filesDehydrated.Add(n) }

// AddBytesCopied records bytes written to the destination.
func (c *Collector) AddBytesCopied(n int64) {
	c.bytesCopied.Add(n)
	c.bytesDone.Add(n)
}

// AddBytesSkipped records bytes already present at the destination.
func (c *Collector) AddBytesSkipped(n int64) { c.bytesDone.Add(n) }

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesTotal:      c.filesTotal.Load(),
		BytesTotal:      c.bytesTotal.Load(),
		FilesSucceeded:  c.filesSucceeded.Load(),
		FilesSkipped:    c.filesSkipped.Load(),
		FilesFailed:     c.filesFailed.Load(),
		FilesHydrated:   c.filesHydrated.Load(),
		FilesDehydrated: c.filesDehydrated.Load(),
		BytesCopied:     c.bytesCopied.Load(),
		BytesDone:       c.bytesDone.Load(),
		Elapsed:         c.Elapsed(),
	}
}

// Tick snapshots the byte delta into the ring buffer. Called 1/sec by the presenter.
func (c *Collector) Tick() {
	current := c.bytesCopied.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.throughput[c.ringIdx] = current - c.lastBytes
	c.lastBytes = current
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns average bytes/sec over the last n seconds of samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(seconds, c.ringCount)
	if count <= 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += c.throughput[idx]
	}
	return float64(sum) / float64(count)
}

// SparklineData returns the last n bytes/sec samples, oldest first.
func (c *Collector) SparklineData(n int) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(n, c.ringCount)
	if count <= 0 {
		return nil
	}

	data := make([]float64, count)
	for i := range count {
		idx := (c.ringIdx - count + i + ringSize) % ringSize
		data[i] = float64(c.throughput[idx])
	}
	return data
}

// ETA estimates remaining time based on rolling speed and remaining bytes.
// Hydration latency is invisible to it, so it is a lower bound.
func (c *Collector) ETA() time.Duration {
	speed := c.RollingSpeed(10)
	if speed <= 0 {
		return 0
	}
	remaining := c.bytesTotal.Load() - c.bytesDone.Load()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining)/speed) * time.Second
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"total=%d succeeded=%d skipped=%d failed=%d hydrated=%d dehydrated=%d bytes=%d",
		s.FilesTotal, s.FilesSucceeded, s.FilesSkipped, s.FilesFailed,
		s.FilesHydrated, s.FilesDehydrated, s.BytesCopied,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
