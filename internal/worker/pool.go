// Package worker runs export jobs: retrieve rows from Dataverse, encode them,
// store the artifact. Retrievals of independent jobs run concurrently; the
// pages of one retrieval are inherently sequential inside the client.
package worker

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/johnyenter-briars/powerplatform-dataverse-client/dataverse"
	"github.com/johnyenter-briars/powerplatform-dataverse-client/internal/exporter"
	"github.com/johnyenter-briars/powerplatform-dataverse-client/internal/storage"
)

// Retriever is the slice of the service client the pool needs.
type Retriever interface {
	RetrieveMultiple(ctx context.Context, entitySet, fetchxml string) ([]dataverse.Entity, error)
}

// Pool runs export jobs on a fixed set of workers. A separate semaphore
// bounds in-flight Dataverse retrievals so a burst of jobs cannot hammer the
// API even when the worker count is high.
type Pool struct {
	jobQueue    chan *ExportJob
	workers     int
	retrieveSem *semaphore.Weighted
	wg          sync.WaitGroup
	quit        chan struct{}

	client  Retriever
	storage storage.Provider
	hub     *Hub
	useGzip bool
}

// NewPool builds a pool; call Start to begin processing. hub may be nil.
func NewPool(workers int, maxConcurrentRetrievals int64, client Retriever, store storage.Provider, hub *Hub, useGzip bool) *Pool {
	return &Pool{
		jobQueue:    make(chan *ExportJob, 100), // bounded so submissions back-pressure
		workers:     workers,
		retrieveSem: semaphore.NewWeighted(maxConcurrentRetrievals),
		quit:        make(chan struct{}),
		client:      client,
		storage:     store,
		hub:         hub,
		useGzip:     useGzip,
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.workerLoop(i)
	}
	slog.Info("export pool started", "workers", p.workers)
}

// Submit queues a job. Returns false when the queue is full or the pool is
// stopping.
func (p *Pool) Submit(job *ExportJob) bool {
	select {
	case p.jobQueue <- job:
		return true
	case <-p.quit:
		return false
	default:
		return false
	}
}

// Stop shuts the pool down and waits for in-flight jobs.
func (p *Pool) Stop() {
	close(p.quit)
	p.wg.Wait()
	slog.Info("export pool stopped")
}

func (p *Pool) workerLoop(id int) {
	defer p.wg.Done()
	slog.Debug("worker started", "worker_id", id)

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.processJob(id, job)
		case <-p.quit:
			return
		}
	}
}

func (p *Pool) processJob(workerID int, job *ExportJob) {
	defer close(job.done)
	defer job.Cancel()

	slog.Info("processing export", "worker_id", workerID, "job_id", job.ID, "entity_set", job.EntitySet)
	job.Status = StatusProcessing
	p.hub.Broadcast(JobUpdate{Type: "job_start", JobID: job.ID, EntitySet: job.EntitySet, Status: string(job.Status)})

	if err := p.runExport(job); err != nil {
		p.failJob(job, err)
		return
	}

	job.Status = StatusCompleted
	location := p.storage.Location(job.StorageKey)
	slog.Info("export completed",
		"job_id", job.ID,
		"rows", job.Stats.RowsProcessed,
		"duration", job.Stats.Duration,
		"location", location)
	p.hub.Broadcast(JobUpdate{
		Type:      "job_complete",
		JobID:     job.ID,
		EntitySet: job.EntitySet,
		Rows:      job.Stats.RowsProcessed,
		Status:    string(job.Status),
		Location:  location,
	})
}

func (p *Pool) runExport(job *ExportJob) error {
	entities, err := p.retrieve(job)
	if err != nil {
		return err
	}

	ext := job.Format
	if ext == "excel" {
		ext = "xlsx"
	}
	job.StorageKey = fmt.Sprintf("exports/%s.%s", job.ID, ext)
	if p.useGzip {
		job.StorageKey += ".gz"
	}

	storageWriter, storeErr := p.storage.StreamToFile(job.Ctx, job.StorageKey)
	if storageWriter == nil {
		return <-storeErr
	}

	var out io.WriteCloser = storageWriter
	if p.useGzip {
		out = gzip.NewWriter(storageWriter)
	}

	var encoder exporter.RowEncoder
	switch job.Format {
	case "json":
		encoder = exporter.NewJSONEncoder(out)
	case "excel":
		encoder = exporter.NewExcelEncoder(out)
	case "pdf":
		encoder = exporter.NewPDFEncoder(out)
	default:
		encoder = exporter.NewCSVEncoder(out)
	}

	stats, exportErr := exporter.StreamEntities(job.Ctx, entities, encoder)
	if cerr := encoder.Close(); exportErr == nil && cerr != nil {
		exportErr = cerr
	}
	if p.useGzip {
		if cerr := out.Close(); exportErr == nil && cerr != nil {
			exportErr = cerr
		}
	}
	if cerr := storageWriter.Close(); exportErr == nil && cerr != nil {
		exportErr = cerr
	}
	if serr := <-storeErr; exportErr == nil && serr != nil {
		exportErr = serr
	}
	if exportErr != nil {
		return exportErr
	}

	job.Stats = stats
	return nil
}

// retrieve runs the FetchXML retrieval under the retrieval semaphore.
func (p *Pool) retrieve(job *ExportJob) ([]dataverse.Entity, error) {
	if err := p.retrieveSem.Acquire(job.Ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire retrieval slot: %w", err)
	}
	defer p.retrieveSem.Release(1)

	job.Started = time.Now()
	entities, err := p.client.RetrieveMultiple(job.Ctx, job.EntitySet, job.FetchXML)
	job.Finished = time.Now()
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", job.EntitySet, err)
	}
	return entities, nil
}

func (p *Pool) failJob(job *ExportJob, err error) {
	job.Status = StatusFailed
	job.Err = err
	slog.Error("export failed", "job_id", job.ID, "error", err)
	p.hub.Broadcast(JobUpdate{
		Type:      "job_failed",
		JobID:     job.ID,
		EntitySet: job.EntitySet,
		Status:    string(job.Status),
		Error:     err.Error(),
	})
}
