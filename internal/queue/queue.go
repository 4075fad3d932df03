// Package queue provides the FIFO buffer that holds tasks waiting for a worker.
//
// Queue does no locking of its own. The pool guards it with the same mutex
// its condition variable is bound to, so that "queue non-empty" and
// "pool stopping" are always observed together.
package queue

const minCapacity = 16

// Queue is an unsynchronized FIFO ring buffer that grows on demand.
// The zero value is ready to use.
type Queue[T any] struct {
	buf  []T
	head int
	size int
}

// New returns a queue with room for at least capacity items before it grows.
func New[T any](capacity int) *Queue[T] {
	return &Queue[T]{buf: make([]T, nextPowerOfTwo(max(capacity, minCapacity)))}
}

// Push appends v at the back of the queue.
func (q *Queue[T]) Push(v T) {
	if q.size == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.size)&(len(q.buf)-1)] = v
	q.size++
}

// Pop removes and returns the front item.
// Callers must check Empty first; popping an empty queue panics.
func (q *Queue[T]) Pop() T {
	if q.size == 0 {
		panic("queue: Pop called on empty queue")
	}

	var zero T
	v := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) & (len(q.buf) - 1)
	q.size--
	return v
}

// Empty reports whether the queue holds no items.
func (q *Queue[T]) Empty() bool {
	return q.size == 0
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return q.size
}

// grow doubles the ring and unwraps it so that head is at index 0.
func (q *Queue[T]) grow() {
	newCap := max(len(q.buf)*2, minCapacity)
	buf := make([]T, newCap)
	if q.size > 0 {
		n := copy(buf, q.buf[q.head:])
		copy(buf[n:], q.buf[:q.head])
	}
	q.buf = buf
	q.head = 0
}

// nextPowerOfTwo returns the next power of 2 >= n
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}

	if n&(n-1) == 0 {
		return n
	}

	power := 1
	for power < n {
		power *= 2
	}
	return power
}
