package worker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnyenter-briars/powerplatform-dataverse-client/internal/exporter"
)

type JobStatus string

const (
	StatusPending    JobStatus = "PENDING"
	StatusProcessing JobStatus = "PROCESSING"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

// ExportJob is one unit of work: run a FetchXML query against an entity set
// and store the result in the requested format.
type ExportJob struct {
	// ID is a UUID v4 assigned at submission.
	ID string
	// EntitySet is the Dataverse collection to query.
	EntitySet string
	// FetchXML is the query to run; the client handles paging.
	FetchXML string
	// Format is the output format (csv, json, excel, pdf).
	Format string
	// Lifecycle timestamps.
	Submitted time.Time
	Started   time.Time
	Finished  time.Time
	// Status tracks the job state.
	Status JobStatus
	// Err holds the failure cause, if any.
	Err error
	// Stats carries rows processed and durations.
	Stats *exporter.ExportResult
	// StorageKey is where the artifact was stored.
	StorageKey string

	// Ctx bounds the job; cancelling it stops paging and storage mid-flight.
	Ctx    context.Context
	Cancel context.CancelFunc

	done chan struct{}
}

func NewExportJob(entitySet, fetchxml, format string, timeout time.Duration) *ExportJob {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	if format == "" {
		format = "csv"
	}
	return &ExportJob{
		ID:        uuid.New().String(),
		EntitySet: entitySet,
		FetchXML:  fetchxml,
		Format:    format,
		Submitted: time.Now(),
		Status:    StatusPending,
		Ctx:       ctx,
		Cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Done is closed once the job reaches a terminal status.
func (j *ExportJob) Done() <-chan struct{} {
	return j.done
}
