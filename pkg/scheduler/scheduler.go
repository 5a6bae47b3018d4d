package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// worker owns one input queue, one output queue, and a dedup index
// keyed by (LOD, position), exactly matching the teacher's per-manager
// mutex-guarded map plus buffered channel, generalized to per-worker
// scope instead of a single global one.
type worker struct {
	id int

	inputMu sync.Mutex
	input   []Task
	dedup   map[Key]int // index into input

	outputMu sync.Mutex
	output   []Result

	exit chan struct{}
	done chan struct{}
}

func newWorker(id int) *worker {
	return &worker{
		id:    id,
		dedup: make(map[Key]int),
		exit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// enqueue pushes t into the worker's shared input, replacing any
// pending task with the same key (the dedup index).
func (w *worker) enqueue(t Task) {
	w.inputMu.Lock()
	defer w.inputMu.Unlock()
	key := t.Key()
	if idx, ok := w.dedup[key]; ok {
		w.input[idx] = t
		return
	}
	w.dedup[key] = len(w.input)
	w.input = append(w.input, t)
}

func (w *worker) load() int {
	w.inputMu.Lock()
	defer w.inputMu.Unlock()
	return len(w.input)
}

// run is the worker goroutine: every syncInterval, snapshot the shared
// input under lock, then release it and process the snapshot
// unlocked, sorted by ascending priority (coarse LODs and near
// positions first), appending completed results to the output queue.
func (w *worker) run(ctx context.Context, syncInterval time.Duration, logger *zap.Logger) {
	defer close(w.done)
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.exit:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			local := w.snapshot()
			if len(local) == 0 {
				continue
			}
			sort.Slice(local, func(i, j int) bool { return local[i].Priority() < local[j].Priority() })

			results := make([]Result, 0, len(local))
			for _, t := range local {
				if t.IsCancelled() {
					results = append(results, Result{Key: t.Key(), Tag: ResultDropped})
					continue
				}
				results = append(results, t.Run(ctx))
			}
			if logger != nil {
				logger.Debug("worker drained batch", zap.Int("worker", w.id), zap.Int("count", len(results)))
			}

			w.outputMu.Lock()
			w.output = append(w.output, results...)
			w.outputMu.Unlock()
		}
	}
}

func (w *worker) snapshot() []Task {
	w.inputMu.Lock()
	defer w.inputMu.Unlock()
	if len(w.input) == 0 {
		return nil
	}
	local := w.input
	w.input = nil
	w.dedup = make(map[Key]int)
	return local
}

func (w *worker) drainOutput() []Result {
	w.outputMu.Lock()
	defer w.outputMu.Unlock()
	if len(w.output) == 0 {
		return nil
	}
	out := w.output
	w.output = nil
	return out
}

// TaskScheduler owns a fixed pool of workers and dispatches incoming
// tasks to the lowest-loaded one, breaking ties round-robin.
type TaskScheduler struct {
	workers      []*worker
	syncInterval time.Duration
	logger       *zap.Logger

	rrMu   sync.Mutex
	nextRR int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(workerCount int, syncInterval time.Duration, logger *zap.Logger) *TaskScheduler {
	if workerCount < 1 {
		workerCount = 1
	}
	s := &TaskScheduler{
		syncInterval: syncInterval,
		logger:       logger,
	}
	for i := 0; i < workerCount; i++ {
		s.workers = append(s.workers, newWorker(i))
	}
	return s
}

// Start launches every worker's goroutine. Call Stop to join them.
func (s *TaskScheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for _, w := range s.workers {
		s.wg.Add(1)
		go func(w *worker) {
			defer s.wg.Done()
			w.run(ctx, s.syncInterval, s.logger)
		}(w)
	}
}

func (s *TaskScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	for _, w := range s.workers {
		close(w.exit)
	}
	s.wg.Wait()
}

// Submit dispatches t to the currently lowest-loaded worker, breaking
// ties by round-robin so equally idle workers share new work evenly.
func (s *TaskScheduler) Submit(t Task) {
	best := s.pickWorker()
	best.enqueue(t)
}

func (s *TaskScheduler) pickWorker() *worker {
	s.rrMu.Lock()
	defer s.rrMu.Unlock()

	bestIdx := 0
	bestLoad := s.workers[0].load()
	for i := 1; i < len(s.workers); i++ {
		l := s.workers[i].load()
		if l < bestLoad {
			bestLoad = l
			bestIdx = i
		}
	}
	// Among ties at bestLoad, advance round-robin to spread load.
	start := s.nextRR % len(s.workers)
	for i := 0; i < len(s.workers); i++ {
		idx := (start + i) % len(s.workers)
		if s.workers[idx].load() == bestLoad {
			s.nextRR = idx + 1
			return s.workers[idx]
		}
	}
	return s.workers[bestIdx]
}

// Drain collects every result produced since the last call, across all
// workers.
func (s *TaskScheduler) Drain() []Result {
	var all []Result
	for _, w := range s.workers {
		all = append(all, w.drainOutput()...)
	}
	return all
}

// PendingCount returns the number of queued-but-not-yet-run tasks
// across all workers, for callers wanting backpressure visibility.
func (s *TaskScheduler) PendingCount() int {
	total := 0
	for _, w := range s.workers {
		total += w.load()
	}
	return total
}
