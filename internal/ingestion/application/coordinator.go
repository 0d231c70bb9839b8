package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	clients "energy-process/internal/clients/domain"
	ingestion "energy-process/internal/ingestion/domain"
	"energy-process/internal/ingestion/format"
	"energy-process/internal/observability/metrics"
	"energy-process/internal/storage"
)

// Coordinator orchestrates one file's ingestion: state transitions, format
// sniffing, per-row validation, duplicate checks and persistence. One
// coordinator instance is shared by all workers; each call processes one
// file sequentially and in file order.
type Coordinator struct {
	files     ingestion.FileRepository
	records   ingestion.RecordRepository
	errs      ingestion.ErrorRepository
	directory clients.Directory
	validator *ingestion.LineValidator
	blobs     storage.Store
	logger    *log.Logger
}

// NewCoordinator constructs the coordinator.
func NewCoordinator(
	files ingestion.FileRepository,
	records ingestion.RecordRepository,
	errs ingestion.ErrorRepository,
	directory clients.Directory,
	blobs storage.Store,
	acceptedTypes []int,
	logger *log.Logger,
) (*Coordinator, error) {
	if files == nil || records == nil || errs == nil {
		return nil, errors.New("coordinator: nil repository")
	}
	if directory == nil {
		return nil, errors.New("coordinator: nil client directory")
	}
	if blobs == nil {
		return nil, errors.New("coordinator: nil blob store")
	}
	validator, err := ingestion.NewLineValidator(directory, acceptedTypes)
	if err != nil {
		return nil, err
	}
	return &Coordinator{
		files:     files,
		records:   records,
		errs:      errs,
		directory: directory,
		validator: validator,
		blobs:     blobs,
		logger:    logger,
	}, nil
}

// ProcessFile runs one admitted file to a terminal state. The queue delivers
// at least once, so re-delivery must be safe: a file already terminal is
// skipped, and a re-run of an interrupted file turns previously persisted
// rows into duplicate rejections instead of double inserts.
func (c *Coordinator) ProcessFile(ctx context.Context, fileID int64, path string) error {
	if c == nil {
		return errors.New("coordinator: nil receiver")
	}
	started := time.Now()

	file, err := c.files.Get(ctx, fileID)
	if err != nil {
		return err
	}
	if file == nil {
		return fmt.Errorf("coordinator: unknown file %d", fileID)
	}
	if file.State.Terminal() {
		if c.logger != nil {
			c.logger.Printf("file %d already %s, skipping re-delivery", fileID, file.State)
		}
		return nil
	}
	picked, err := c.files.MarkProcessing(ctx, fileID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !picked {
		return nil
	}
	if path == "" {
		path = file.StoragePath
	}

	total, successful, failed := 0, 0, 0
	state := ingestion.FileStateCompleted
	defer func() {
		if r := recover(); r != nil {
			c.recordError(ctx, ingestion.NewValidationError(fileID, 0, ingestion.ErrorGlobalProcessingFailure,
				fmt.Sprintf("unexpected failure: %v", r), ""))
			state = ingestion.FileStateError
		}
		if err := c.files.Finish(ctx, fileID, state, total, successful, failed); err != nil && c.logger != nil {
			c.logger.Printf("file %d: finish failed: %v", fileID, err)
		}
		metrics.ObserveJob(string(state), time.Since(started).Seconds())
		if c.logger != nil {
			c.logger.Printf("file %d finished state=%s total=%d ok=%d failed=%d", fileID, state, total, successful, failed)
		}
	}()

	content, err := c.blobs.Read(path)
	if err != nil {
		c.recordError(ctx, ingestion.NewValidationError(fileID, 0, ingestion.ErrorUnreadableFile,
			fmt.Sprintf("stored file not readable at %s: %v", path, err), ""))
		state = ingestion.FileStateError
		return nil
	}

	input, err := format.Sniff(file.Filename, content)
	if err != nil {
		c.recordStructuralFailure(ctx, fileID, err)
		state = ingestion.FileStateError
		return nil
	}
	extractor, err := format.NewExtractor(input, content)
	if err != nil {
		c.recordStructuralFailure(ctx, fileID, err)
		state = ingestion.FileStateError
		return nil
	}

	for {
		entry, err := extractor.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A read failure mid-file is file-level: rows cannot be
			// attributed to positions reliably past this point.
			c.recordError(ctx, ingestion.NewValidationError(fileID, 0, ingestion.ErrorUnreadableFile,
				fmt.Sprintf("read failure: %v", err), ""))
			state = ingestion.FileStateError
			return nil
		}
		total++
		if c.processRow(ctx, fileID, entry) {
			successful++
			metrics.ObserveRow("success")
		} else {
			failed++
			metrics.ObserveRow("error")
		}
	}
	return nil
}

// processRow takes one extracted entry through validation, duplicate check
// and persistence. It reports whether the row was persisted. Failures here
// never abort the file: every rejection becomes a ValidationError and the
// loop continues.
func (c *Coordinator) processRow(ctx context.Context, fileID int64, entry format.Entry) bool {
	if len(entry.Structural) > 0 {
		for _, rowErr := range entry.Structural {
			c.recordError(ctx, ingestion.NewValidationError(fileID, entry.Line, rowErr.Kind, rowErr.Description, ""))
		}
		return false
	}

	rowErrs, err := c.validator.Validate(ctx, entry.Row)
	if err != nil {
		c.recordError(ctx, ingestion.NewValidationError(fileID, entry.Line, ingestion.ErrorGlobalProcessingFailure,
			fmt.Sprintf("validation failed unexpectedly: %v", err), entry.Row.Snapshot()))
		return false
	}

	if len(rowErrs) == 0 {
		// Dates parsed during validation; the duplicate check needs them.
		periodStart, _ := ingestion.ParseDate(entry.Row.DateFrom)
		periodEnd, _ := ingestion.ParseDate(entry.Row.DateTo)
		exists, err := c.records.ExistsBusinessKey(ctx, entry.Row.CUPS, periodStart, periodEnd, entry.Row.Installation)
		if err != nil {
			c.recordError(ctx, ingestion.NewValidationError(fileID, entry.Line, ingestion.ErrorGlobalProcessingFailure,
				fmt.Sprintf("duplicate check failed: %v", err), entry.Row.Snapshot()))
			return false
		}
		if exists {
			rowErrs = append(rowErrs, ingestion.RowError{
				Kind:        ingestion.ErrorDuplicateRecord,
				Description: fmt.Sprintf("a record for CUPS %s and period %s..%s already exists", entry.Row.CUPS, entry.Row.DateFrom, entry.Row.DateTo),
			})
		}
	}

	if len(rowErrs) > 0 {
		snapshot := entry.Row.Snapshot()
		for _, rowErr := range rowErrs {
			c.recordError(ctx, ingestion.NewValidationError(fileID, entry.Line, rowErr.Kind, rowErr.Description, snapshot))
		}
		return false
	}

	if err := c.persistRow(ctx, fileID, entry); err != nil {
		// A single bad row must not abort the file; referential or
		// constraint failures are downgraded and recorded.
		c.recordError(ctx, ingestion.NewValidationError(fileID, entry.Line, ingestion.ErrorPersistenceInconsistency,
			err.Error(), entry.Row.Snapshot()))
		return false
	}
	return true
}

func (c *Coordinator) persistRow(ctx context.Context, fileID int64, entry format.Entry) error {
	client, err := c.directory.FindByCUPS(ctx, entry.Row.CUPS)
	if err != nil {
		return fmt.Errorf("client lookup: %w", err)
	}
	if client == nil {
		return fmt.Errorf("client %s disappeared between validation and persistence", entry.Row.CUPS)
	}

	periodStart, err := ingestion.ParseDate(entry.Row.DateFrom)
	if err != nil {
		return err
	}
	periodEnd, err := ingestion.ParseDate(entry.Row.DateTo)
	if err != nil {
		return err
	}
	typeCode, err := strconv.Atoi(entry.Row.Type)
	if err != nil {
		return err
	}
	netGenerated, err := ingestion.ParseVector(entry.Row.NetGenerated)
	if err != nil {
		return err
	}
	selfConsumed, err := ingestion.ParseVector(entry.Row.SelfConsumed)
	if err != nil {
		return err
	}
	tollPayment, err := ingestion.ParseVector(entry.Row.TollPayment)
	if err != nil {
		return err
	}

	record := &ingestion.EnergyRecord{
		FileID:       fileID,
		ClientID:     client.ID,
		CUPS:         entry.Row.CUPS,
		Line:         entry.Line,
		Installation: entry.Row.Installation,
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		Type:         typeCode,
		NetGenerated: netGenerated,
		SelfConsumed: selfConsumed,
		TollPayment:  tollPayment,
		CreatedAt:    time.Now().UTC(),
	}
	return c.records.Insert(ctx, record)
}

// recordStructuralFailure maps a sniffer/extractor failure onto a file-level
// validation error.
func (c *Coordinator) recordStructuralFailure(ctx context.Context, fileID int64, err error) {
	var structural *format.StructuralError
	if errors.As(err, &structural) {
		c.recordError(ctx, ingestion.NewValidationError(fileID, structural.Line, ingestion.ErrorStructuralInvalid, structural.Description, ""))
		return
	}
	c.recordError(ctx, ingestion.NewValidationError(fileID, 0, ingestion.ErrorUnreadableFile, err.Error(), ""))
}

func (c *Coordinator) recordError(ctx context.Context, verr ingestion.ValidationError) {
	metrics.ObserveValidationError(string(verr.Kind))
	if err := c.errs.Insert(ctx, &verr); err != nil && c.logger != nil {
		c.logger.Printf("file %d line %d: error insert failed: %v", verr.FileID, verr.Line, err)
	}
}

// GetJobStatus returns the running status of one job.
func (c *Coordinator) GetJobStatus(ctx context.Context, fileID int64) (*ingestion.UploadedFile, error) {
	if c == nil {
		return nil, errors.New("coordinator: nil receiver")
	}
	return c.files.Get(ctx, fileID)
}
