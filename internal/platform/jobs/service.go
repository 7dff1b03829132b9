package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"leavedesk/internal/domain/leave"
	"leavedesk/internal/platform/config"
	"leavedesk/internal/platform/querier"
)

const JobCarryForward = "leave_carry_forward"

type Service struct {
	DB    querier.Querier
	Cfg   config.Config
	Leave *leave.Service
	queue chan job
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(db querier.Querier, cfg config.Config, leaveSvc *leave.Service) *Service {
	return &Service{
		DB:    db,
		Cfg:   cfg,
		Leave: leaveSvc,
		queue: make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.CarryForwardCheck > 0 {
		go s.scheduleCarryForward(ctx, s.Cfg.CarryForwardCheck)
	}
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, j.Type, "running").Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

// scheduleCarryForward periodically checks whether the year-end carry-forward
// for the previous calendar year has completed and enqueues it when missing.
// The check is cheap, so running it every interval keeps the job self-healing
// after restarts around the year boundary.
func (s *Service) scheduleCarryForward(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fromYear := time.Now().Year() - 1
			done, err := s.carryForwardCompleted(ctx, fromYear)
			if err != nil {
				slog.Warn("carry-forward schedule check failed", "err", err)
				continue
			}
			if done {
				continue
			}
			year := fromYear
			s.Enqueue(JobCarryForward, func(ctx context.Context) (any, error) {
				summary, err := s.Leave.RunCarryForward(ctx, year)
				return map[string]any{
					"fromYear":       year,
					"typesProcessed": summary.TypesProcessed,
					"rowsCarried":    summary.RowsCarried,
				}, err
			})
		}
	}
}

func (s *Service) carryForwardCompleted(ctx context.Context, fromYear int) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM job_runs
    WHERE job_type = $1
      AND status = 'completed'
      AND details_json ->> 'fromYear' = $2::text
  `, JobCarryForward, fromYear).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
