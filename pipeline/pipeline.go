// Package pipeline coordinates validation, de-duplication, and output writing.
package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/stylescrape/stylescrape/models"
)

// ErrPipelineClosed is returned when Process is called after shutdown.
var ErrPipelineClosed = errors.New("pipeline: closed")

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(records []*models.ProductRecord) error
	Close() error
	Validate() error
}

// Pipeline moves accepted records from the runner to the output writer,
// dropping duplicates and anything that slipped past extraction validation.
// Output order matches submission order as long as a single worker runs.
type Pipeline struct {
	writer    OutputWriter
	recordCh  chan *models.ProductRecord
	batchSize int

	wg sync.WaitGroup

	seen *lru.Cache[string, struct{}]

	metrics metrics

	mu     sync.Mutex // guards closed/err
	closed bool
	err    error

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline buffering up to bufferSize records and
// flushing in batchSize chunks. dedupSize bounds the seen-URL cache.
func NewPipeline(writer OutputWriter, bufferSize, batchSize, dedupSize int) (*Pipeline, error) {
	if bufferSize <= 0 {
		bufferSize = 512
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	seen, err := lru.New[string, struct{}](max(dedupSize, 1))
	if err != nil {
		return nil, fmt.Errorf("pipeline: dedup cache: %w", err)
	}
	return &Pipeline{
		writer:    writer,
		recordCh:  make(chan *models.ProductRecord, bufferSize),
		batchSize: batchSize,
		seen:      seen,
		metrics:   newMetrics(),
		shutdown:  make(chan struct{}),
	}, nil
}

// Start launches worker goroutines.
func (p *Pipeline) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Process enqueues records for downstream writing.
func (p *Pipeline) Process(records []*models.ProductRecord) error {
	if len(records) == 0 {
		return nil
	}

	closed, err := p.state()
	if err != nil {
		return err
	}
	if closed {
		return ErrPipelineClosed
	}

	for _, record := range records {
		if record == nil {
			continue
		}
		if err := p.enqueue(record); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for workers to finish and prevents more submissions.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
	}
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.recordCh)
	})

	p.wg.Wait()
	return p.Err()
}

// Err returns the first error encountered during processing.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	batch := make([]*models.ProductRecord, 0, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.writer.Write(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for record := range p.recordCh {
		prepared := p.prepare(record)
		if prepared == nil {
			continue
		}
		batch = append(batch, prepared)
		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				p.setErr(fmt.Errorf("write batch: %w", err))
				return
			}
		}
	}

	if err := flush(); err != nil {
		p.setErr(fmt.Errorf("write batch: %w", err))
	}
}

// prepare validates and de-duplicates one record. The runner already drops
// nameless records before submission; the check here is the last line of
// defence so an empty name can never reach the outputs.
func (p *Pipeline) prepare(record *models.ProductRecord) *models.ProductRecord {
	if strings.TrimSpace(record.ProductName) == "" {
		p.metrics.addDrop("invalid_record")
		return nil
	}

	key := record.ProductURL
	if key == "" {
		key = record.ProductName + "|" + record.Brand
	}
	if _, dup := p.seen.Get(key); dup {
		p.metrics.addDrop("duplicate_url")
		return nil
	}
	p.seen.Add(key, struct{}{})

	p.metrics.incrementProcessed()
	return record
}

func (p *Pipeline) enqueue(record *models.ProductRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPipelineClosed
		}
	}()

	select {
	case <-p.shutdown:
		return ErrPipelineClosed
	case p.recordCh <- record:
		return nil
	}
}

func (p *Pipeline) setErr(err error) {
	if err == nil {
		return
	}

	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return
	}
	p.err = err
	p.closed = true
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.recordCh)
	})
}

func (p *Pipeline) state() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed, p.err
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

type metrics struct {
	mu        sync.Mutex
	processed int64
	drops     map[string]int
}

func newMetrics() metrics {
	return metrics{
		drops: make(map[string]int),
	}
}

func (m *metrics) incrementProcessed() {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func (m *metrics) addDrop(kind string) {
	m.mu.Lock()
	m.drops[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyDrops := make(map[string]int, len(m.drops))
	for k, v := range m.drops {
		copyDrops[k] = v
	}

	return map[string]interface{}{
		"processed_records": m.processed,
		"dropped_records":   copyDrops,
	}
}
