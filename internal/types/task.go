package types

// Task is one deferred unit of work. The closure captures its arguments and
// the ResultChannel it reports to, so the queue can hold tasks of any result
// type side by side.
type Task struct {
	ID int64
	fn func() error
}

// NewTask wraps fn as a task with the given id. fn reports the error it
// stored in its ResultChannel, if any, so the worker can log and count it.
func NewTask(id int64, fn func() error) *Task {
	return &Task{ID: id, fn: fn}
}

// Run invokes the task's closure and returns its error. The closure is
// released after the first call, so later calls do nothing and return nil.
func (t *Task) Run() error {
	fn := t.fn
	if fn == nil {
		return nil
	}
	t.fn = nil
	return fn()
}

// Consumed reports whether Run has already been called.
func (t *Task) Consumed() bool {
	return t.fn == nil
}
