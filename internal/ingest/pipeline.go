package ingest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cardworks/loyalty-cards-be/internal/domain"
	"github.com/cardworks/loyalty-cards-be/internal/validate"
	"github.com/cardworks/loyalty-cards-be/pkg/logger"
)

// DefaultBatchSize bounds one enqueue call to the transport's per-call item
// ceiling.
const DefaultBatchSize = 1000

// Result carries the ingestion counters. Dropped rows and failed batches are
// surfaced here and in logs, not reported per row.
type Result struct {
	TotalRows     int
	ValidRows     int
	DroppedRows   int
	Batches       int
	FailedBatches int
}

// Pipeline turns an uploaded CSV file into validated, batched enqueue calls.
type Pipeline struct {
	blobs     domain.BlobStore
	validator *validate.RowValidator
	sender    domain.BatchSender
	batchSize int
	logger    *logger.Logger
}

func NewPipeline(blobs domain.BlobStore, validator *validate.RowValidator, sender domain.BatchSender, batchSize int, log *logger.Logger) *Pipeline {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &Pipeline{
		blobs:     blobs,
		validator: validator,
		sender:    sender,
		batchSize: batchSize,
		logger:    log,
	}
}

// ProcessFile fetches the whole file, filters rows through the validator and
// enqueues the survivors in order, one bounded batch at a time. A failed
// batch send is counted and logged but never aborts the run; only a fetch
// failure fails the call.
func (p *Pipeline) ProcessFile(ctx context.Context, objectKey, containerName string) (*Result, error) {
	ctx = logger.WithFileKey(ctx, objectKey)

	p.logger.Info(ctx, "Starting file ingestion",
		"container", containerName,
	)

	contents, err := p.blobs.Fetch(ctx, objectKey, containerName)
	if err != nil {
		p.logger.Error(ctx, "Failed to fetch file",
			"container", containerName,
			"error", err,
		)
		return nil, err
	}

	p.logger.Debug(ctx, "File fetched",
		"content_length", len(contents),
	)

	result := &Result{}
	requests := p.collectValidRequests(ctx, contents, result)

	for start := 0; start < len(requests); start += p.batchSize {
		end := start + p.batchSize
		if end > len(requests) {
			end = len(requests)
		}

		entries := make([]domain.Entry, 0, end-start)
		for _, req := range requests[start:end] {
			body, err := json.Marshal(req)
			if err != nil {
				return nil, fmt.Errorf("marshal creation request %s: %w", req.CardNumber, err)
			}
			entries = append(entries, domain.Entry{ID: req.CardNumber, Body: body})
		}

		result.Batches++

		accepted, err := p.sender.SendBatch(ctx, entries)
		if err != nil || !accepted {
			result.FailedBatches++
			p.logger.Error(ctx, "Batch send failed",
				"batch", result.Batches,
				"entries", len(entries),
				"error", err,
			)
		}
	}

	p.logger.Info(ctx, "File ingestion finished",
		"total_rows", result.TotalRows,
		"valid_rows", result.ValidRows,
		"dropped_rows", result.DroppedRows,
		"batches", result.Batches,
		"failed_batches", result.FailedBatches,
	)

	return result, nil
}

// collectValidRequests parses the delimited content (header row defines the
// field names), coerces points to an integer and keeps only rows that pass
// the creation-request schema.
func (p *Pipeline) collectValidRequests(ctx context.Context, contents string, result *Result) []domain.CreateCardRequest {
	reader := csv.NewReader(strings.NewReader(contents))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil
	}

	var requests []domain.CreateCardRequest
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.TotalRows++
			result.DroppedRows++
			p.logger.Warn(ctx, "Failed to read row",
				"row", result.TotalRows,
				"error", err,
			)
			continue
		}

		result.TotalRows++

		row := make(map[string]interface{}, len(header))
		for i, field := range header {
			if i < len(record) {
				row[field] = record[i]
			}
		}

		// An absent points column fails row validation instead of
		// defaulting to zero.
		raw, ok := row["points"].(string)
		if !ok {
			row["points"] = ""
		} else if points, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			row["points"] = points
		}

		if validation := p.validator.Validate(row); !validation.Valid {
			result.DroppedRows++
			p.logger.Debug(ctx, "Row dropped",
				"row", result.TotalRows,
				"reason", validation.ErrorMessage,
			)
			continue
		}

		requests = append(requests, requestFromRow(row))
	}

	result.ValidRows = len(requests)

	return requests
}

func requestFromRow(row map[string]interface{}) domain.CreateCardRequest {
	req := domain.CreateCardRequest{
		FirstName:  stringField(row, "firstName"),
		LastName:   stringField(row, "lastName"),
		CardNumber: stringField(row, "cardNumber"),
	}

	if points, ok := row["points"].(int); ok {
		req.Points = &points
	}

	return req
}

func stringField(row map[string]interface{}, key string) string {
	if value, ok := row[key].(string); ok {
		return value
	}
	return ""
}
