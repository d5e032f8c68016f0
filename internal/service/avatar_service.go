package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/forum-api/internal/dto"
	"github.com/noah-isme/forum-api/internal/models"
	"github.com/noah-isme/forum-api/internal/observability"
	"github.com/noah-isme/forum-api/internal/repository"
	"github.com/noah-isme/forum-api/internal/validation"
)

var (
	// ErrAvatarMissing indicates no file was attached to the request.
	ErrAvatarMissing = validation.NewError("avatar", "file is required")
	// ErrAvatarTooLarge indicates the payload exceeded the configured limit.
	ErrAvatarTooLarge = validation.NewError("avatar", "file exceeds maximum allowed size")
	// ErrAvatarType indicates the detected MIME type is not an accepted image.
	ErrAvatarType = validation.NewError("avatar", "file must be a png, jpeg, gif or webp image")
	// ErrStorageUnavailable indicates no avatar storage backend is configured.
	ErrStorageUnavailable = fmt.Errorf("%w: avatar storage is not configured", ErrInvalidState)
)

var allowedAvatarTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/gif":  {},
	"image/webp": {},
}

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// AvatarService validates, stores and assigns profile pictures.
type AvatarService interface {
	Upload(ctx context.Context, actor Actor, userID uint, file *multipart.FileHeader) (dto.AvatarResponse, error)
}

type avatarService struct {
	storage FileStorage
	uploads repository.UploadRepository
	users   repository.UserRepository
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
}

// NewAvatarService constructs an avatar service. A nil storage rejects every upload.
func NewAvatarService(storage FileStorage, uploads repository.UploadRepository, users repository.UserRepository, maxSizeMB int, logger zerolog.Logger) AvatarService {
	if maxSizeMB <= 0 {
		maxSizeMB = 2
	}
	return &avatarService{
		storage: storage,
		uploads: uploads,
		users:   users,
		logger:  logger.With().Str("component", "avatar_service").Logger(),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer("github.com/noah-isme/forum-api/internal/service/avatar"),
	}
}

func (s *avatarService) Upload(ctx context.Context, actor Actor, userID uint, file *multipart.FileHeader) (dto.AvatarResponse, error) {
	ctx, span := s.tracer.Start(ctx, "avatar.upload")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("upload.max_bytes", s.maxSize),
		attribute.Int("upload.user_id", int(userID)),
	)

	if !actor.Authenticated() {
		return dto.AvatarResponse{}, ErrUnauthenticated
	}
	if actor.ID != userID {
		return dto.AvatarResponse{}, kindError(ErrForbidden, "avatars can only be changed by their owner")
	}
	if s.storage == nil {
		observability.UploadsTotal().WithLabelValues("unavailable").Inc()
		span.SetStatus(codes.Error, "storage unavailable")
		return dto.AvatarResponse{}, ErrStorageUnavailable
	}
	if file == nil {
		return dto.AvatarResponse{}, ErrAvatarMissing
	}
	if file.Size > s.maxSize {
		return dto.AvatarResponse{}, s.reject(span, "size", ErrAvatarTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.AvatarResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.AvatarResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		return dto.AvatarResponse{}, s.reject(span, "size", ErrAvatarTooLarge)
	}

	fileType := mimetype.Detect(buf.Bytes()).String()
	span.SetAttributes(attribute.String("upload.detected_mime", fileType))
	if _, ok := allowedAvatarTypes[fileType]; !ok {
		return dto.AvatarResponse{}, s.reject(span, "type", ErrAvatarType)
	}

	sum := sha256.Sum256(buf.Bytes())
	checksum := hex.EncodeToString(sum[:])

	record, err := s.uploads.FindByChecksum(ctx, userID, checksum)
	switch {
	case err == nil:
		s.logger.Debug().Uint("user_id", userID).Str("checksum", checksum).Msg("reusing stored avatar")
		observability.UploadsTotal().WithLabelValues("reused").Inc()
	case errors.Is(err, gorm.ErrRecordNotFound):
		record, err = s.store(ctx, span, userID, file.Filename, fileType, checksum, buf.Bytes())
		if err != nil {
			return dto.AvatarResponse{}, err
		}
	default:
		span.RecordError(err)
		return dto.AvatarResponse{}, err
	}

	if _, err := s.users.Update(ctx, userID, map[string]interface{}{"avatar_url": record.URL}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile update failed")
		return dto.AvatarResponse{}, translate(err, "user")
	}

	span.SetStatus(codes.Ok, "stored")
	return dto.AvatarResponse{
		URL:       record.URL,
		SizeBytes: record.SizeBytes,
		MimeType:  record.MimeType,
		Checksum:  record.Checksum,
		FileName:  record.FileName,
	}, nil
}

func (s *avatarService) store(ctx context.Context, span trace.Span, userID uint, original, fileType, checksum string, payload []byte) (models.UploadRecord, error) {
	name := avatarFileName(userID, original)
	span.SetAttributes(attribute.String("upload.file_name", name))

	url, err := s.storage.Upload(ctx, name, bytes.NewReader(payload))
	if err != nil {
		observability.UploadsTotal().WithLabelValues("storage_error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return models.UploadRecord{}, fmt.Errorf("store avatar: %w", err)
	}

	record := models.UploadRecord{
		UserID:    userID,
		FileName:  name,
		URL:       url,
		MimeType:  fileType,
		SizeBytes: int64(len(payload)),
		Checksum:  checksum,
	}
	if err := s.uploads.Create(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return models.UploadRecord{}, err
	}

	observability.UploadsTotal().WithLabelValues("stored").Inc()
	s.logger.Info().Uint("user_id", userID).Str("url", url).Msg("avatar stored")
	return record, nil
}

func (s *avatarService) reject(span trace.Span, reason string, err error) error {
	observability.UploadsTotal().WithLabelValues("rejected_" + reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, "rejected")
	return err
}

func avatarFileName(userID uint, name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".img"
	}
	return fmt.Sprintf("user-%d-%d%s", userID, time.Now().Unix(), ext)
}
