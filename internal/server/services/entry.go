// Package services holds the server's application services.
package services

import (
	"context"
	"fmt"

	"github.com/moodlog-app/moodlog/internal/common"
	sc "github.com/moodlog-app/moodlog/internal/server/config"
	"github.com/moodlog-app/moodlog/internal/server/models"
	"github.com/moodlog-app/moodlog/internal/server/repositories/entries"
	"github.com/google/uuid"
	"github.com/valyala/fastjson"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type EntryService struct {
	repo   entries.Repository
	config *sc.Config
	parser fastjson.ParserPool
}

func NewEntryService(repo entries.Repository, config *sc.Config) *EntryService {
	return &EntryService{
		repo:   repo,
		config: config,
	}
}

// Upsert validates and stores a submitted entry. Resubmissions of the same
// (owner, localID) return the identity assigned on first receipt; the
// caller cannot tell a replay from a first delivery, which is the point.
func (s *EntryService) Upsert(ctx context.Context, ownerID, localID string, payload []byte, createdAtClient int64) (*models.Entry, error) {

	if err := s.validate(localID, payload); err != nil {
		return nil, err
	}

	entry := &models.Entry{
		OwnerID:         ownerID,
		LocalID:         localID,
		Payload:         payload,
		CreatedAtClient: createdAtClient,
	}

	stored, err := s.repo.Upsert(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("storing entry: %w", err)
	}

	return stored, nil
}

func (s *EntryService) Recent(ctx context.Context, ownerID string, limit int) ([]*models.Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.repo.SelectRecentByOwner(ctx, ownerID, limit)
}

// validate enforces the submission contract: localID must be a UUID and the
// payload a JSON object within the size limit. Violations are permanent;
// retrying the same submission can never make it acceptable.
func (s *EntryService) validate(localID string, payload []byte) error {
	if _, err := uuid.Parse(localID); err != nil {
		return fmt.Errorf("%w: bad local id", common.ErrInvalidEntry)
	}
	if len(payload) == 0 || len(payload) > s.config.MaxPayloadBytes {
		return fmt.Errorf("%w: payload size", common.ErrInvalidEntry)
	}

	p := s.parser.Get()
	defer s.parser.Put(p)

	v, err := p.ParseBytes(payload)
	if err != nil {
		return fmt.Errorf("%w: payload is not valid JSON", common.ErrInvalidEntry)
	}
	if v.Type() != fastjson.TypeObject {
		return fmt.Errorf("%w: payload must be a JSON object", common.ErrInvalidEntry)
	}
	return nil
}

// AttachmentStorageKey builds the object key for an entry's attachment.
// The key is a pure function of the owner and entry identity, so a retried
// presign for the same entry always points at the same object and the blob
// stays linkable to its entry without extra bookkeeping.
func AttachmentStorageKey(ownerID, entryLocalID string) string {
	return fmt.Sprintf("owners/%s/%s", ownerID, entryLocalID)
}

func (s *EntryService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return s3.NewPresignClient(client), nil
}

// GetPresignedPutURL returns the storage key for the given entry's
// attachment and a presigned URL the client can PUT the blob to.
func (s *EntryService) GetPresignedPutURL(ctx context.Context, ownerID, entryLocalID string) (string, string, error) {

	if _, err := uuid.Parse(entryLocalID); err != nil {
		return "", "", fmt.Errorf("%w: bad entry local id", common.ErrInvalidEntry)
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := AttachmentStorageKey(ownerID, entryLocalID)

	req, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.PresignTTL))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}
