package tasks

// TaskSchedulerInterface defines the interface for task scheduling
// operations. The scheduler owns the worker pool and the periodic refresh
// loop; handlers enqueue ad hoc tasks through it.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueRefreshAll(force bool)
}
