package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"
)

// ProgressCallback receives progress updates during multi-page runs.
type ProgressCallback interface {
	OnStart(total int)
	OnProgress(done, total int)
	OnComplete()
}

// ParallelConfig holds configuration for multi-page processing.
type ParallelConfig struct {
	// MaxWorkers is the number of parallel workers, 0 means
	// runtime.NumCPU().
	MaxWorkers int
	// ProgressCallback optionally reports per-page progress.
	ProgressCallback ProgressCallback
	// ErrorHandler optionally observes per-page failures.
	ErrorHandler func(int, image.Image, error)
}

// DefaultParallelConfig returns defaults for multi-page processing.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		MaxWorkers: runtime.NumCPU(),
	}
}

type pageJob struct {
	index int
	image image.Image
}

type pageResult struct {
	index  int
	result *Result
	err    error
}

// AnalyzePages analyzes multiple pages in parallel using a worker
// pool. Results are returned in input order; a failed page leaves a
// nil slot and the first error is returned alongside.
func (p *Pipeline) AnalyzePages(images []image.Image, config ParallelConfig) ([]*Result, error) {
	return p.AnalyzePagesContext(context.Background(), images, config)
}

// AnalyzePagesContext analyzes pages in parallel with cancellation
// support.
func (p *Pipeline) AnalyzePagesContext(ctx context.Context, images []image.Image, config ParallelConfig) ([]*Result, error) {
	if len(images) == 0 {
		return nil, errors.New("no images provided")
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = runtime.NumCPU()
	}

	if config.ProgressCallback != nil {
		config.ProgressCallback.OnStart(len(images))
		defer config.ProgressCallback.OnComplete()
	}

	jobs := make(chan pageJob, len(images))
	results := make(chan pageResult, len(images))

	var wg sync.WaitGroup
	for range config.MaxWorkers {
		wg.Add(1)
		go p.pageWorker(ctx, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for i, img := range images {
			select {
			case jobs <- pageJob{index: i, image: img}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	resultMap := make(map[int]*Result)
	errorMap := make(map[int]error)
	processed := 0
	for r := range results {
		resultMap[r.index] = r.result
		errorMap[r.index] = r.err
		processed++
		if config.ProgressCallback != nil {
			config.ProgressCallback.OnProgress(processed, len(images))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ordered := make([]*Result, len(images))
	var firstErr error
	for i := range images {
		if err := errorMap[i]; err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("page %d: %w", i, err)
			}
			if config.ErrorHandler != nil {
				config.ErrorHandler(i, images[i], err)
			}
			continue
		}
		ordered[i] = resultMap[i]
	}
	return ordered, firstErr
}

func (p *Pipeline) pageWorker(ctx context.Context, jobs <-chan pageJob, results chan<- pageResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			res, err := p.AnalyzeContext(ctx, job.image)
			select {
			case results <- pageResult{index: job.index, result: res, err: err}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// ParallelStats summarizes a multi-page run.
type ParallelStats struct {
	TotalPages       int           `json:"total_pages"`
	ProcessedPages   int           `json:"processed_pages"`
	FailedPages      int           `json:"failed_pages"`
	WorkerCount      int           `json:"worker_count"`
	TotalDuration    time.Duration `json:"total_duration_ns"`
	AveragePerPage   time.Duration `json:"average_per_page_ns"`
	ThroughputPerSec float64       `json:"throughput_per_sec"`
}

// CalculateParallelStats derives throughput numbers from a finished
// run.
func CalculateParallelStats(results []*Result, duration time.Duration, workerCount int) ParallelStats {
	processed, failed := 0, 0
	for _, r := range results {
		if r != nil {
			processed++
		} else {
			failed++
		}
	}
	stats := ParallelStats{
		TotalPages:     len(results),
		ProcessedPages: processed,
		FailedPages:    failed,
		WorkerCount:    workerCount,
		TotalDuration:  duration,
	}
	if processed > 0 && duration > 0 {
		stats.AveragePerPage = duration / time.Duration(processed)
		stats.ThroughputPerSec = float64(processed) / duration.Seconds()
	}
	return stats
}
