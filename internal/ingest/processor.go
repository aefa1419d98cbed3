package ingest

import (
	"context"
	"errors"
	"strings"
	"time"

	"lens-backend/internal/candidates"
	"lens-backend/internal/shared/metrics"
	"lens-backend/internal/shared/storage/object"
	"lens-backend/internal/shared/telemetry"
	"lens-backend/internal/shared/util"
	"lens-backend/internal/summaries"
)

// Progress checkpoints recorded while a file is processed.
const (
	ProgressStarted    = 25
	ProgressDownloaded = 50
	ProgressDecoded    = 75
	ProgressParsed     = 100
)

// Structurer turns a candidate's raw text into a persisted summary.
type Structurer interface {
	Structure(ctx context.Context, file candidates.CandidateFile) (summaries.Summary, error)
}

// Result is the outcome reported to callers of ProcessDocument.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Kind    Kind   `json:"kind,omitempty"`
}

// Processor runs document ingestion for a single candidate file at a time.
type Processor struct {
	Files      candidates.Repo
	Store      object.ObjectStore
	Decoders   map[FileType]Decoder
	Parsers    map[FileType]TextParser
	Parser     TextParser
	Structurer Structurer
	Now        func() time.Time
}

// ProcessDocument processes fileID and reports the outcome without returning errors.
func (p *Processor) ProcessDocument(ctx context.Context, fileID string) Result {
	if err := p.Process(ctx, fileID); err != nil {
		e := AsError(err)
		return Result{Success: false, Error: e.UserMessage(), Kind: e.Kind}
	}
	return Result{Success: true}
}

// Process extracts text from the file, records progress, and triggers structured extraction.
// Returned errors are *Error values.
func (p *Processor) Process(ctx context.Context, fileID string) error {
	start := time.Now()
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return newError(KindInvalidInput, "", nil)
	}

	file, err := p.Files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, candidates.ErrNotFound) {
			return newError(KindNotFound, fileID, err)
		}
		return newError(KindStorage, "", err)
	}

	fileType := DetectType(file.MimeType, file.FileName, nil)
	if fileType == TypeUnsupported {
		err := newError(KindUnsupported, describeType(file.MimeType, file.FileName), nil)
		telemetry.Error("ingest.rejected", map[string]any{
			"candidate_id": file.ID,
			"mime_type":    file.MimeType,
			"file_name":    file.FileName,
		})
		return err
	}

	metrics.IncIngestStarted()
	err = p.run(ctx, file, fileType)
	metrics.ObserveIngestDurationMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		e := AsError(err)
		metrics.IncIngestFailed()
		telemetry.Error("ingest.failed", map[string]any{
			"candidate_id": file.ID,
			"project_id":   file.ProjectID,
			"file_type":    string(fileType),
			"kind":         string(e.Kind),
			"error":        util.SanitizeError(err),
		})
		if markErr := p.Files.MarkFailed(context.WithoutCancel(ctx), file.ID, e.UserMessage()); markErr != nil {
			telemetry.Error("ingest.mark_failed_error", map[string]any{
				"candidate_id": file.ID,
				"error":        markErr,
			})
		}
		return e
	}

	metrics.IncIngestCompleted()
	return nil
}

func (p *Processor) run(ctx context.Context, file candidates.CandidateFile, fileType FileType) error {
	if err := p.checkpoint(ctx, file.ID, ProgressStarted); err != nil {
		return err
	}

	data, err := object.ReadAll(ctx, p.Store, file.StorageKey)
	if err != nil {
		return newError(KindStorage, "", err)
	}
	if err := p.checkpoint(ctx, file.ID, ProgressDownloaded); err != nil {
		return err
	}

	decoder, ok := p.decoders()[fileType]
	if !ok {
		return newError(KindUnsupported, string(fileType), nil)
	}
	text, err := decoder.Decode(ctx, data)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return e
		}
		if ctx.Err() != nil {
			return newError(KindInternal, "", err)
		}
		return newError(KindDecoder, string(fileType), err)
	}
	text = NormalizeText(text)
	if text == "" {
		if fileType == TypeDOC {
			return newError(KindEmpty, string(fileType), nil)
		}
		telemetry.Warn("ingest.empty_text", map[string]any{
			"candidate_id": file.ID,
			"file_type":    string(fileType),
		})
	}

	parsed := p.parserFor(fileType).Parse(text)
	if err := p.Files.SaveText(ctx, file.ID, text, parsed.AsMap(), p.now()); err != nil {
		return newError(KindStorage, "", err)
	}
	if err := p.checkpoint(ctx, file.ID, ProgressDecoded); err != nil {
		return err
	}
	if err := p.checkpoint(ctx, file.ID, ProgressParsed); err != nil {
		return err
	}

	file.RawText = text
	return p.structure(ctx, file)
}

// structure runs structured extraction. Its failure leaves the file completed
// with the raw text and records the error alongside.
func (p *Processor) structure(ctx context.Context, file candidates.CandidateFile) error {
	var (
		parsedData    map[string]any
		summaryID     string
		extractionErr string
	)
	switch {
	case p.Structurer == nil:
	case !file.HasRawText():
		extractionErr = "no text extracted; structured extraction skipped"
	default:
		summary, err := p.Structurer.Structure(ctx, file)
		if err != nil {
			metrics.IncExtractionFailed()
			extractionErr = util.SanitizeError(err)
			telemetry.Warn("ingest.extraction_failed", map[string]any{
				"candidate_id": file.ID,
				"error":        extractionErr,
			})
		} else {
			parsedData = summary.ExtractedData
			summaryID = summary.ID
		}
	}

	if err := p.Files.MarkCompleted(ctx, file.ID, parsedData, summaryID, extractionErr); err != nil {
		return newError(KindStorage, "", err)
	}
	telemetry.Info("ingest.completed", map[string]any{
		"candidate_id":     file.ID,
		"project_id":       file.ProjectID,
		"summary_id":       summaryID,
		"extraction_error": extractionErr,
	})
	return nil
}

func (p *Processor) checkpoint(ctx context.Context, id string, progress int) error {
	if err := p.Files.UpdateProgress(ctx, id, candidates.StatusProcessing, progress); err != nil {
		return newError(KindStorage, "", err)
	}
	return nil
}

func (p *Processor) decoders() map[FileType]Decoder {
	if p.Decoders != nil {
		return p.Decoders
	}
	return DefaultDecoders()
}

func (p *Processor) parserFor(fileType FileType) TextParser {
	if parser, ok := p.Parsers[fileType]; ok && parser != nil {
		return parser
	}
	if p.Parser != nil {
		return p.Parser
	}
	return HeuristicParser{}
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}
