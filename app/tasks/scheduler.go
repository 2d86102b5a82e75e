package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jeffkirdeikis/pulse-app-sub000/app/catalog"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/cfg"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/fetch"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/ingest"
	"github.com/jeffkirdeikis/pulse-app-sub000/app/source"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	coordinator    *fetch.Coordinator
	fetcher        *fetch.PagedFetcher
	normalizer     *catalog.Normalizer
	store          *catalog.Store
	taxonomy       *catalog.Taxonomy
	ingester       *ingest.Ingester
	inserter       source.Inserter
	ingestFeeds    []string
	ingestInterval time.Duration
	interval       time.Duration
	workerCount    int
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	taskQueue      chan TaskInterface

	mu           sync.Mutex
	lastIngestAt time.Time
}

func NewScheduler(coordinator *fetch.Coordinator, fetcher *fetch.PagedFetcher,
	normalizer *catalog.Normalizer, store *catalog.Store, taxonomy *catalog.Taxonomy,
	ingester *ingest.Ingester, inserter source.Inserter) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		coordinator:    coordinator,
		fetcher:        fetcher,
		normalizer:     normalizer,
		store:          store,
		taxonomy:       taxonomy,
		ingester:       ingester,
		inserter:       inserter,
		ingestFeeds:    cfg.IngestFeeds,
		ingestInterval: time.Duration(cfg.IngestInterval) * time.Second,
		interval:       time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:    cfg.WorkerCount,
		ctx:            ctx,
		cancel:         cancel,
		taskQueue:      make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueRefreshAll queues a refresh of every collection. With force unset
// this is the visibility-trigger path: the coordinator's TTL still gates
// actual network access.
func (s *Scheduler) EnqueueRefreshAll(force bool) {
	appCfg := cfg.Get()
	for _, collection := range catalog.Collections() {
		task := NewRefreshCollectionTask(collection, appCfg.TTLFor(string(collection)), force,
			s.coordinator, s.fetcher, s.normalizer, s.store)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue RefreshCollectionTask", "collection", string(collection), "error", err)
		}
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	s.EnqueueRefreshAll(false)
	s.enqueueIngestTasks()
}

func (s *Scheduler) enqueueTasks() {
	s.EnqueueRefreshAll(false)

	s.mu.Lock()
	due := time.Since(s.lastIngestAt) >= s.ingestInterval
	s.mu.Unlock()

	if due {
		s.enqueueIngestTasks()
	}
}

func (s *Scheduler) enqueueIngestTasks() {
	if len(s.ingestFeeds) == 0 {
		return
	}

	s.mu.Lock()
	s.lastIngestAt = time.Now()
	s.mu.Unlock()

	for _, feedURL := range s.ingestFeeds {
		task := NewIngestFeedTask(feedURL, s.ingester, s.inserter)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue IngestFeedTask", "feed", feedURL, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
