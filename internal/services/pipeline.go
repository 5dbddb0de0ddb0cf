package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/EricBlanvillain/control-automation/internal/category"
	"github.com/EricBlanvillain/control-automation/internal/models"
	"github.com/EricBlanvillain/control-automation/internal/repository"
	"github.com/EricBlanvillain/control-automation/internal/rules"
)

// RunRequest asks for one control run over a document.
type RunRequest struct {
	DocumentID   string
	DocumentName string
	// SourcePath is the document's path inside storage.
	SourcePath string
	// PathHint is the original document path used for category
	// resolution. Defaults to SourcePath.
	PathHint string
	// CategoryOverride forces the meta category when it names a known
	// category.
	CategoryOverride string
}

// RunResult is the outcome of a completed control run.
type RunResult struct {
	RunID        string
	MetaCategory string
	Report       Report
	ReportPath   string
}

// PipelineService chains category resolution, extraction, indexing,
// rule selection, evaluation, grading and reporting. A failure before
// rule evaluation aborts the run with no report; failures inside a
// single rule degrade that rule's result instead.
type PipelineService struct {
	resolver    *category.Resolver
	extraction  *ExtractionService
	index       *IndexService
	rules       rules.Store
	evaluator   *Evaluator
	grader      *Grader
	reports     *ReportService
	docRepo     repository.DocumentRepository
	runRepo     repository.RunRepository
	concurrency int
	logger      *logrus.Logger
}

// PipelineOption configures the pipeline service.
type PipelineOption func(*PipelineService)

// WithRuleConcurrency bounds how many rules run at once.
func WithRuleConcurrency(n int) PipelineOption {
	return func(s *PipelineService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithPipelineLogger sets the logger.
func WithPipelineLogger(logger *logrus.Logger) PipelineOption {
	return func(s *PipelineService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRunHistory stores document and run state in the given
// repositories.
func WithRunHistory(docRepo repository.DocumentRepository, runRepo repository.RunRepository) PipelineOption {
	return func(s *PipelineService) {
		s.docRepo = docRepo
		s.runRepo = runRepo
	}
}

// NewPipelineService creates the control pipeline.
func NewPipelineService(
	resolver *category.Resolver,
	extraction *ExtractionService,
	index *IndexService,
	ruleStore rules.Store,
	evaluator *Evaluator,
	grader *Grader,
	reports *ReportService,
	opts ...PipelineOption,
) *PipelineService {
	s := &PipelineService{
		resolver:    resolver,
		extraction:  extraction,
		index:       index,
		rules:       ruleStore,
		evaluator:   evaluator,
		grader:      grader,
		reports:     reports,
		concurrency: 4,
		logger:      logrus.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the control chain over one document. On run-level
// failure the error is recorded and no report exists; the returned
// error describes the cause.
func (s *PipelineService) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	runID := uuid.New().String()
	log := s.logger.WithFields(logrus.Fields{
		"run_id":      runID,
		"document_id": req.DocumentID,
	})

	pathHint := req.PathHint
	if pathHint == "" {
		pathHint = req.SourcePath
	}

	metaCategory, err := s.resolver.Resolve(pathHint, req.CategoryOverride)
	if err != nil {
		s.recordFailure(runID, req, "", err)
		return nil, err
	}
	log = log.WithField("meta_category", metaCategory)

	run := &models.ControlRun{
		ID:           runID,
		DocumentID:   req.DocumentID,
		DocumentName: req.DocumentName,
		MetaCategory: metaCategory,
		Status:       models.RunStatusRunning,
	}
	if s.runRepo != nil {
		if err := s.runRepo.Create(run); err != nil {
			return nil, fmt.Errorf("failed to create run record: %w", err)
		}
	}
	if s.docRepo != nil {
		if err := s.docRepo.UpdateStatus(req.DocumentID, models.DocStatusProcessing, ""); err != nil {
			log.WithError(err).Warn("Failed to mark document processing")
		}
	}

	text, err := s.extraction.Extract(req.SourcePath, req.DocumentName)
	if err != nil {
		s.failRun(run, req, err)
		return nil, err
	}

	chunks := s.extraction.Split(text)
	chunkCount, err := s.index.Build(ctx, req.DocumentID, chunks)
	if err != nil {
		s.failRun(run, req, err)
		return nil, err
	}
	log.WithField("chunks", chunkCount).Info("Document indexed")

	selected, err := s.rules.List(metaCategory)
	if err != nil {
		s.failRun(run, req, err)
		return nil, err
	}
	if len(selected) == 0 {
		log.WithError(models.ErrNoRules).WithField("meta_category", metaCategory).Warn("No rules selected; report will be empty")
	} else {
		log.WithField("rules", len(selected)).Info("Rules selected")
	}

	evals, grades, err := s.applyRules(ctx, req.DocumentID, selected)
	if err != nil {
		s.failRun(run, req, err)
		return nil, err
	}

	report := AssembleReport(runID, req.DocumentName, pathHint, metaCategory, evals, grades)
	reportPath, err := s.reports.Save(report)
	if err != nil {
		s.failRun(run, req, err)
		return nil, err
	}

	s.completeRun(run, req, report, reportPath, chunkCount, metaCategory)
	log.WithFields(logrus.Fields{
		"passed": report.Passed,
		"total":  report.Total,
		"report": reportPath,
	}).Info("Control run completed")

	return &RunResult{
		RunID:        runID,
		MetaCategory: metaCategory,
		Report:       report,
		ReportPath:   reportPath,
	}, nil
}

// applyRules evaluates and grades every rule with bounded concurrency.
// Results come back in rule order regardless of completion order. A
// cancelled context aborts the whole run.
func (s *PipelineService) applyRules(ctx context.Context, documentID string, selected []rules.Rule) ([]EvaluationResult, []GradedResult, error) {
	evals := make([]EvaluationResult, len(selected))
	grades := make([]GradedResult, len(selected))

	pool := workerpool.New(s.concurrency)
	for i, rule := range selected {
		i, rule := i, rule
		pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			evals[i], grades[i] = s.applyRule(ctx, documentID, rule)
		})
	}
	pool.StopWait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return evals, grades, nil
}

func (s *PipelineService) applyRule(ctx context.Context, documentID string, rule rules.Rule) (EvaluationResult, GradedResult) {
	retrieved, err := s.index.Query(ctx, documentID, BuildRetrievalQuery(rule))
	if err != nil {
		// Retrieval failure degrades this rule only.
		eval := EvaluationResult{
			ControlID: rule.ControlID,
			Status:    StatusModelError,
			Error:     err.Error(),
		}
		return eval, s.grader.Grade(ctx, rule, eval)
	}

	eval := s.evaluator.Evaluate(ctx, rule, retrieved)
	return eval, s.grader.Grade(ctx, rule, eval)
}

func (s *PipelineService) failRun(run *models.ControlRun, req RunRequest, cause error) {
	s.logger.WithError(cause).WithField("run_id", run.ID).Error("Control run failed")

	if s.runRepo != nil {
		run.Status = models.RunStatusFailed
		run.Error = cause.Error()
		now := time.Now()
		run.FinishedAt = &now
		if err := s.runRepo.Update(run); err != nil {
			s.logger.WithError(err).Warn("Failed to update run record")
		}
	}
	if s.docRepo != nil {
		if err := s.docRepo.UpdateStatus(req.DocumentID, models.DocStatusFailed, cause.Error()); err != nil {
			s.logger.WithError(err).Warn("Failed to mark document failed")
		}
	}
}

// recordFailure stores a run that failed before a run record existed.
func (s *PipelineService) recordFailure(runID string, req RunRequest, metaCategory string, cause error) {
	if s.runRepo == nil {
		return
	}
	now := time.Now()
	run := &models.ControlRun{
		ID:           runID,
		DocumentID:   req.DocumentID,
		DocumentName: req.DocumentName,
		MetaCategory: metaCategory,
		Status:       models.RunStatusFailed,
		Error:        cause.Error(),
		FinishedAt:   &now,
	}
	if err := s.runRepo.Create(run); err != nil {
		s.logger.WithError(err).Warn("Failed to record failed run")
	}
}

func (s *PipelineService) completeRun(run *models.ControlRun, req RunRequest, report Report, reportPath string, chunkCount int, metaCategory string) {
	if s.runRepo != nil {
		run.Status = models.RunStatusCompleted
		run.Passed = report.Passed
		run.Total = report.Total
		run.ReportPath = reportPath
		now := time.Now()
		run.FinishedAt = &now
		if data, err := json.Marshal(report.Entries); err == nil {
			run.Results = data
		}
		if err := s.runRepo.Update(run); err != nil {
			s.logger.WithError(err).Warn("Failed to update run record")
		}
	}
	if s.docRepo != nil {
		if doc, err := s.docRepo.GetByID(req.DocumentID); err == nil {
			doc.Status = models.DocStatusCompleted
			doc.ChunkCount = chunkCount
			doc.MetaCategory = metaCategory
			doc.Error = ""
			if err := s.docRepo.Update(doc); err != nil {
				s.logger.WithError(err).Warn("Failed to update document record")
			}
		}
	}
}
