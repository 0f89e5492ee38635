package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/pingis-club/league-api/internal/domain/match"
	"github.com/pingis-club/league-api/internal/platform/logging"
)

const (
	reconcileStatusCompleted = "completed"
	reconcileStatusSkipped   = "skipped"
	reconcileStatusFailed    = "failed"
)

type ReconcileInput struct {
	MaxWorkers int
	// DryRun reports the candidates without flipping anything.
	DryRun bool
}

type ReconcileResult struct {
	CandidateCount int                   `json:"candidate_count"`
	CompletedCount int                   `json:"completed_count"`
	SkippedCount   int                   `json:"skipped_count"`
	FailedCount    int                   `json:"failed_count"`
	WorkerCount    int                   `json:"worker_count"`
	Tasks          []ReconcileTaskResult `json:"tasks"`
}

type ReconcileTaskResult struct {
	MatchID    string `json:"match_id"`
	Status     string `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

// ReconcileService finishes settlements that wrote their rating history
// but were interrupted before the final status flip. Such rows stay
// pending forever without this job.
type ReconcileService struct {
	matchRepo match.Repository
	logger    *logging.Logger
}

func NewReconcileService(matchRepo match.Repository, logger *logging.Logger) *ReconcileService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReconcileService{matchRepo: matchRepo, logger: logger}
}

func (s *ReconcileService) Run(ctx context.Context, input ReconcileInput) (ReconcileResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconcileService.Run")
	defer span.End()

	candidates, err := s.matchRepo.ListPendingWithHistory(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("list interrupted settlements: %w", err)
	}

	workerCount := normalizeReconcileWorkerCount(input.MaxWorkers, len(candidates))
	result := ReconcileResult{
		CandidateCount: len(candidates),
		WorkerCount:    workerCount,
		Tasks:          make([]ReconcileTaskResult, 0, len(candidates)),
	}
	if len(candidates) == 0 {
		return result, nil
	}

	if input.DryRun {
		for _, m := range candidates {
			result.Tasks = append(result.Tasks, ReconcileTaskResult{
				MatchID: m.ID,
				Status:  reconcileStatusSkipped,
				Message: "dry run",
			})
		}
		result.SkippedCount = len(candidates)
		return result, nil
	}

	rows := make(chan ReconcileTaskResult, len(candidates))

	var completedCount atomic.Int32
	var skippedCount atomic.Int32
	var failedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, candidate := range candidates {
		candidate := candidate
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := ReconcileTaskResult{MatchID: candidate.ID}

			switch err := s.matchRepo.CompleteSettlementFlip(ctx, candidate.ID); {
			case err == nil:
				row.Status = reconcileStatusCompleted
				completedCount.Add(1)
			case errors.Is(err, match.ErrAlreadySettled):
				row.Status = reconcileStatusSkipped
				row.Message = "already flipped"
				skippedCount.Add(1)
			default:
				row.Status = reconcileStatusFailed
				row.Message = err.Error()
				failedCount.Add(1)
			}

			row.DurationMs = time.Since(start).Milliseconds()
			rows <- row
		}); err != nil {
			workers.Done()
			return ReconcileResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(rows)

	for row := range rows {
		result.Tasks = append(result.Tasks, row)
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].MatchID < result.Tasks[j].MatchID
	})

	result.CompletedCount = int(completedCount.Load())
	result.SkippedCount = int(skippedCount.Load())
	result.FailedCount = int(failedCount.Load())

	if result.CompletedCount > 0 {
		s.logger.InfoContext(ctx, "settlement reconcile finished",
			"candidates", result.CandidateCount,
			"completed", result.CompletedCount,
			"failed", result.FailedCount,
		)
	}
	return result, nil
}

func normalizeReconcileWorkerCount(value int, taskCount int) int {
	if taskCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 2
	}
	if value > 8 {
		value = 8
	}
	if value > taskCount {
		value = taskCount
	}
	return value
}
