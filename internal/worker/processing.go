// Package worker contains the background loops: the document processing
// consumer and the retention/expiry sweeper.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Iyke200/doculuna/internal/config"
	"github.com/Iyke200/doculuna/internal/model"
	"github.com/Iyke200/doculuna/internal/pgmq"
	"github.com/Iyke200/doculuna/internal/progression"
	"github.com/Iyke200/doculuna/internal/repository"
	"github.com/Iyke200/doculuna/internal/service"
)

// CompletedOperationXP is awarded for every successfully processed document.
const CompletedOperationXP = 25

// Processor consumes document jobs from the processing queue, drives the
// external converter service and settles history, XP and notifications.
type Processor struct {
	cfg         *config.Config
	client      *pgmq.Client
	historyRepo repository.HistoryRepository
	dlqRepo     repository.DLQRepository
	progression *progression.Engine
	notifier    progression.Notifier
	logger      zerolog.Logger
}

// NewProcessor creates a Processor with a scoped logger.
func NewProcessor(
	cfg *config.Config,
	client *pgmq.Client,
	historyRepo repository.HistoryRepository,
	dlqRepo repository.DLQRepository,
	prog *progression.Engine,
	notifier progression.Notifier,
	logger zerolog.Logger,
) *Processor {
	return &Processor{
		cfg:         cfg,
		client:      client,
		historyRepo: historyRepo,
		dlqRepo:     dlqRepo,
		progression: prog,
		notifier:    notifier,
		logger:      logger.With().Str("worker", "processing").Logger(),
	}
}

// converterResponse is the converter service's reply for a finished job.
type converterResponse struct {
	OutputFilename string `json:"output_filename"`
}

// Run starts the processing consumer loop.
func (p *Processor) Run(ctx context.Context) error {
	queue := p.cfg.ProcessingQueueName
	baseURL := strings.TrimRight(p.cfg.ConverterBaseURL, "/")
	processEndpoint := fmt.Sprintf("%s/process", baseURL)
	p.logger.Info().Str("queue", queue).Str("endpoint", processEndpoint).Msg("Starting processing worker")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Shutting down processing worker")
			return nil
		default:
		}

		msgs, err := p.client.ReadWithPoll(ctx, queue, p.cfg.ProcessingPollTimeoutSec, p.cfg.ProcessingPollMaxMsg)
		if err != nil {
			p.logger.Error().Err(err).Msg("Error reading processing queue")
			time.Sleep(time.Second)
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		msg := msgs[0]
		p.logger.Info().Int64("msg_id", msg.ID).Msg("Received processing job")

		var job service.ProcessingJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			p.logger.Error().Err(err).Msg("Failed to unmarshal processing payload; deleting message")
			p.client.Delete(ctx, queue, []int64{msg.ID})
			continue
		}

		output, duration, callErr := p.callConverter(ctx, processEndpoint, msg.Data)
		if callErr != nil {
			p.deadLetter(ctx, queue, msg, &job, callErr)
			continue
		}

		if err := p.historyRepo.Finalize(ctx, job.HistoryID, model.OperationSuccess, duration, output); err != nil {
			p.logger.Error().Err(err).Str("history_id", job.HistoryID).Msg("Failed to finalize history entry")
		}

		p.settleRewards(ctx, &job)

		if err := p.client.Delete(ctx, queue, []int64{msg.ID}); err != nil {
			p.logger.Error().Err(err).Msg("Error deleting processing message")
		}
	}
}

// callConverter posts the job to the converter service with exponential
// backoff. Returns the output filename and the successful call's duration.
func (p *Processor) callConverter(ctx context.Context, endpoint string, payload []byte) (string, time.Duration, error) {
	backoff := time.Duration(p.cfg.ProcessingBackoffInitialSec) * time.Second
	maxBackoff := time.Duration(p.cfg.ProcessingBackoffMaxSec) * time.Second
	reqTimeout := time.Duration(p.cfg.ProcessingRequestTimeoutSec) * time.Second

	var lastErr error
	for attempt := 1; attempt <= p.cfg.ProcessingMaxRetries; attempt++ {
		ctxReq, cancel := context.WithTimeout(ctx, reqTimeout)
		req, _ := http.NewRequestWithContext(ctxReq, http.MethodPost, endpoint, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		start := time.Now()
		resp, err := http.DefaultClient.Do(req)
		duration := time.Since(start)
		cancel()

		if err == nil && resp.StatusCode == http.StatusOK {
			var out converterResponse
			decodeErr := json.NewDecoder(resp.Body).Decode(&out)
			resp.Body.Close()
			if decodeErr != nil {
				lastErr = fmt.Errorf("decode converter response: %w", decodeErr)
			} else {
				p.logger.Info().Str("duration", duration.String()).Msg("Converter service succeeded")
				return out.OutputFilename, duration, nil
			}
		} else if err == nil {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
		} else {
			lastErr = err
		}

		p.logger.Error().Err(lastErr).Int("attempt", attempt).Msg("Converter call failed, retrying")
		time.Sleep(backoff)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return "", 0, lastErr
}

// deadLetter settles an exhausted job: failed history entry, DLQ copy,
// persisted dead letter and acknowledged source message.
func (p *Processor) deadLetter(ctx context.Context, queue string, msg *pgmq.Message, job *service.ProcessingJob, cause error) {
	if err := p.historyRepo.Finalize(ctx, job.HistoryID, model.OperationFailure, 0, ""); err != nil {
		p.logger.Error().Err(err).Str("history_id", job.HistoryID).Msg("Failed to mark history entry failed")
	}

	dlq := p.cfg.ProcessingDeadLetterQueueName
	if err := p.client.Send(ctx, dlq, msg.Data); err != nil {
		p.logger.Error().Err(err).Str("dlq", dlq).Msg("Failed to send message to dead-letter queue")
	}
	if err := p.dlqRepo.Create(ctx, &model.DeadLetterMessage{
		Queue:     queue,
		MessageID: msg.ID,
		Payload:   string(msg.Data),
		Reason:    cause.Error(),
		Status:    "pending",
	}); err != nil {
		p.logger.Error().Err(err).Msg("Failed to persist dead letter")
	}

	if err := p.client.Delete(ctx, queue, []int64{msg.ID}); err != nil {
		p.logger.Error().Err(err).Msg("Error deleting processing message after failure")
	}
	if p.notifier != nil {
		p.notifier.Send(ctx, job.UserID,
			fmt.Sprintf("We could not process %s. Please try again later.", job.Filename))
	}
	p.logger.Warn().
		Int("attempts", p.cfg.ProcessingMaxRetries).
		Str("history_id", job.HistoryID).
		Err(cause).
		Msg("Exhausted all converter retries; moving job to DLQ")
}

// settleRewards applies the gamification side of a successful operation.
func (p *Processor) settleRewards(ctx context.Context, job *service.ProcessingJob) {
	p.progression.AddXP(ctx, job.UserID, CompletedOperationXP)
	p.progression.UpdateStreak(ctx, job.UserID)

	completed, err := p.historyRepo.CountCompleted(ctx, job.UserID)
	if err != nil {
		p.logger.Warn().Err(err).Str("user_id", job.UserID).Msg("Failed to count completed operations")
		return
	}
	if completed == 1 {
		if _, err := p.progression.UnlockAchievement(ctx, job.UserID, progression.AchFirstDocument); err != nil {
			p.logger.Warn().Err(err).Str("user_id", job.UserID).Msg("Failed to unlock first-document achievement")
		}
		p.progression.CreditReferral(ctx, job.UserID)
	}
	if p.notifier != nil {
		p.notifier.Send(ctx, job.UserID,
			fmt.Sprintf("Your %s of %s is ready!", job.Operation, job.Filename))
	}
}
