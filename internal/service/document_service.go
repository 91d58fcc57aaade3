package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Iyke200/doculuna/internal/model"
	"github.com/Iyke200/doculuna/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

var (
	ErrOperationNotFound = errors.New("operation not found")
	ErrNotOwner          = errors.New("user does not own this operation")
	ErrAlreadySubmitted  = errors.New("operation already submitted")
)

// JobQueue is the slice of the message queue the document pipeline needs.
// Satisfied by *pgmq.Client.
type JobQueue interface {
	Send(ctx context.Context, queue string, payload []byte) error
}

// ProcessingJob is the payload enqueued for the processing worker.
type ProcessingJob struct {
	HistoryID   string `json:"history_id"`
	UserID      string `json:"user_id"`
	StoragePath string `json:"storage_path"`
	Operation   string `json:"operation"`
	Filename    string `json:"filename"`
	FileType    string `json:"file_type"`
}

// DocumentService owns the upload and processing glue around document
// operations.
type DocumentService interface {
	// InitiateOperation appends a pending history entry and returns it with
	// a presigned PUT URL for the client to upload the source file to.
	InitiateOperation(ctx context.Context, userID, filename, fileType, operation string, fileSizeBytes int64) (*model.OperationHistoryEntry, string, error)
	// CompleteUpload verifies the uploaded object and enqueues the
	// processing job.
	CompleteUpload(ctx context.Context, historyID, userID string) (*model.OperationHistoryEntry, error)
	// GetDownloadURL presigns a GET for a finished operation's output.
	GetDownloadURL(ctx context.Context, historyID, userID string) (string, error)
	ListHistory(ctx context.Context, userID string, limit int) ([]model.OperationHistoryEntry, error)
	// DeleteHistory removes the user's history rows and stored objects on
	// explicit request.
	DeleteHistory(ctx context.Context, userID string) (int64, error)
}

type documentService struct {
	historyRepo   repository.HistoryRepository
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	bucketName    string
	queue         JobQueue
	queueName     string
	docLogger     zerolog.Logger
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(
	historyRepo repository.HistoryRepository,
	s3Client *s3.Client,
	bucketName string,
	queue JobQueue,
	queueName string,
	logger zerolog.Logger,
) DocumentService {
	return &documentService{
		historyRepo:   historyRepo,
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		bucketName:    bucketName,
		queue:         queue,
		queueName:     queueName,
		docLogger:     logger.With().Str("service", "DocumentService").Logger(),
	}
}

// InitiateOperation creates the pending history entry and a presigned URL
// for direct S3 upload.
func (s *documentService) InitiateOperation(ctx context.Context, userID, filename, fileType, operation string, fileSizeBytes int64) (*model.OperationHistoryEntry, string, error) {
	storagePath := fmt.Sprintf("documents/%s/%d-%s", userID, time.Now().UnixNano(), filename)
	entry := &model.OperationHistoryEntry{
		UserID:        userID,
		Filename:      filename,
		FileType:      fileType,
		Operation:     operation,
		Status:        model.OperationPending,
		FileSizeBytes: fileSizeBytes,
		StoragePath:   storagePath,
	}
	if err := s.historyRepo.Create(ctx, entry); err != nil {
		s.docLogger.Error().Err(err).Str("user_id", userID).Msg("Failed to create history entry for upload")
		return nil, "", fmt.Errorf("failed to create operation record: %w", err)
	}

	uploadURL, err := s.getPresignedPutURL(ctx, storagePath)
	if err != nil {
		s.docLogger.Error().Err(err).Str("history_id", entry.ID).Msg("Failed to generate presigned PUT URL")
		return nil, "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return entry, uploadURL, nil
}

// CompleteUpload verifies the object exists in S3 and enqueues the job.
func (s *documentService) CompleteUpload(ctx context.Context, historyID, userID string) (*model.OperationHistoryEntry, error) {
	entry, err := s.historyRepo.GetByID(ctx, historyID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOperationNotFound
	}
	if err != nil {
		s.docLogger.Error().Err(err).Str("history_id", historyID).Msg("Failed to get history entry for completion")
		return nil, fmt.Errorf("failed to retrieve operation: %w", err)
	}
	if entry.UserID != userID {
		return nil, ErrNotOwner
	}

	// Claim the entry before any side effects so a double-submit cannot
	// enqueue (and get charged for) the same operation twice.
	claimed, err := s.historyRepo.Claim(ctx, historyID)
	if err != nil {
		s.docLogger.Error().Err(err).Str("history_id", historyID).Msg("Failed to claim history entry")
		return nil, fmt.Errorf("failed to claim operation: %w", err)
	}
	if !claimed {
		return nil, ErrAlreadySubmitted
	}
	entry.Status = model.OperationQueued

	// Verify the object landed in S3 before queueing work against it.
	_, err = s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(entry.StoragePath),
	})
	if err != nil {
		s.docLogger.Error().Err(err).Str("storage_path", entry.StoragePath).Msg("File not found in S3 at expected path")
		_ = s.historyRepo.Finalize(ctx, historyID, model.OperationFailure, 0, "")
		return nil, fmt.Errorf("file not found in storage: %w", err)
	}

	job := ProcessingJob{
		HistoryID:   entry.ID,
		UserID:      userID,
		StoragePath: entry.StoragePath,
		Operation:   entry.Operation,
		Filename:    entry.Filename,
		FileType:    entry.FileType,
	}
	payload, err := json.Marshal(job)
	if err != nil {
		s.docLogger.Error().Err(err).Str("history_id", historyID).Msg("Failed to marshal processing job")
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := s.queue.Send(ctx, s.queueName, payload); err != nil {
		s.docLogger.Error().Err(err).Str("queue", s.queueName).Msg("Failed to enqueue processing job")
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}
	return entry, nil
}

// GetDownloadURL presigns a GET for the operation's output object.
func (s *documentService) GetDownloadURL(ctx context.Context, historyID, userID string) (string, error) {
	entry, err := s.historyRepo.GetByID(ctx, historyID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrOperationNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to retrieve operation: %w", err)
	}
	if entry.UserID != userID {
		return "", ErrNotOwner
	}
	if entry.Status != model.OperationSuccess || entry.OutputFilename == "" {
		return "", fmt.Errorf("operation %s has no output yet", historyID)
	}

	resp, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(entry.OutputFilename),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		s.docLogger.Error().Err(err).Str("history_id", historyID).Msg("Failed to generate presigned URL")
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return resp.URL, nil
}

// ListHistory returns the user's recent operations.
func (s *documentService) ListHistory(ctx context.Context, userID string, limit int) ([]model.OperationHistoryEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	entries, err := s.historyRepo.ListRecent(ctx, userID, limit)
	if err != nil {
		s.docLogger.Error().Err(err).Str("user_id", userID).Msg("Failed to list history")
		return nil, err
	}
	return entries, nil
}

// DeleteHistory removes stored objects and history rows for a user.
func (s *documentService) DeleteHistory(ctx context.Context, userID string) (int64, error) {
	prefix := fmt.Sprintf("documents/%s/", userID)
	paginator := s3.NewListObjectsV2Paginator(s.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucketName),
		Prefix: aws.String(prefix),
	})
	var toDelete []types.ObjectIdentifier
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.docLogger.Error().Err(err).Str("prefix", prefix).Msg("Failed to list S3 objects for deletion")
			break
		}
		for _, obj := range page.Contents {
			toDelete = append(toDelete, types.ObjectIdentifier{Key: obj.Key})
		}
	}
	if len(toDelete) > 0 {
		if _, err := s.s3Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucketName),
			Delete: &types.Delete{Objects: toDelete, Quiet: aws.Bool(true)},
		}); err != nil {
			// Not fatal, the DB rows can still go.
			s.docLogger.Error().Err(err).Str("user_id", userID).Msg("Failed to delete objects from S3")
		}
	}

	n, err := s.historyRepo.DeleteForUser(ctx, userID)
	if err != nil {
		s.docLogger.Error().Err(err).Str("user_id", userID).Msg("Failed to delete history rows")
		return 0, err
	}
	return n, nil
}

// getPresignedPutURL generates a presigned URL for uploading an object.
func (s *documentService) getPresignedPutURL(ctx context.Context, objectKey string) (string, error) {
	request, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned PUT URL: %w", err)
	}
	return request.URL, nil
}
