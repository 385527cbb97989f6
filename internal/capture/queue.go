package capture

// JobQueue is a bounded FIFO of frame jobs connecting the capture loop to
// the writer workers. Enqueue never blocks: when the queue is full the job
// is refused and the caller reclaims its buffers. Capture cadence takes
// priority over completeness of persistence.
type JobQueue struct {
	jobs chan *Job
}

// NewJobQueue returns a queue holding at most capacity jobs.
func NewJobQueue(capacity int) *JobQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &JobQueue{jobs: make(chan *Job, capacity)}
}

// TryEnqueue offers a job without blocking. It reports false when the
// queue is at capacity; the caller then owns the job's buffers again.
func (q *JobQueue) TryEnqueue(j *Job) bool {
	select {
	case q.jobs <- j:
		return true
	default:
		return false
	}
}

// Dequeue blocks until a job is available. ok is false once the queue has
// been closed and drained, which is the workers' exit signal.
func (q *JobQueue) Dequeue() (j *Job, ok bool) {
	j, ok = <-q.jobs
	return j, ok
}

// Close marks the queue complete. Queued jobs remain consumable; workers
// drain them before exiting. Only the producer may call Close, once.
func (q *JobQueue) Close() {
	close(q.jobs)
}

// Depth returns the number of queued jobs.
func (q *JobQueue) Depth() int { return len(q.jobs) }

// Capacity returns the fixed queue capacity.
func (q *JobQueue) Capacity() int { return cap(q.jobs) }
