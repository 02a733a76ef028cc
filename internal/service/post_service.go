package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/unitasa/social-scheduler/internal/lifecycle"
	"github.com/unitasa/social-scheduler/internal/models"
	"github.com/unitasa/social-scheduler/internal/repository"
	"github.com/unitasa/social-scheduler/internal/transfer"
)

var (
	ErrPostNotFound  = errors.New("scheduled post not found")
	ErrPostImmutable = errors.New("posted and failed posts are immutable")
)

type PostService interface {
	CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation, files []*multipart.FileHeader) ([]*models.ScheduledPost, time.Duration, error)
	ListPending(ctx context.Context, userID int64) ([]*models.ScheduledPost, error)
	ListDrafts(ctx context.Context, userID int64) ([]*models.ScheduledPost, error)
	ListHistory(ctx context.Context, userID int64, status string, limit, offset int) ([]*models.ScheduledPost, error)
	Approve(ctx context.Context, userID, postID int64) error
	Update(ctx context.Context, userID, postID int64, pu *transfer.PostUpdate) error
	Remove(ctx context.Context, userID, postID int64) error
}

type postService struct {
	db    *sql.DB
	posts repository.ScheduledPostRepository
	ac    repository.SocialAccountRepository
	ma    repository.MediaAssetRepository
	pm    repository.PostMediaRepository
	r2    R2Service
}

func NewPostService(
	db *sql.DB,
	posts repository.ScheduledPostRepository,
	ac repository.SocialAccountRepository,
	ma repository.MediaAssetRepository,
	pm repository.PostMediaRepository,
	r2 R2Service) PostService {
	return &postService{
		db:    db,
		posts: posts,
		ac:    ac,
		ma:    ma,
		pm:    pm,
		r2:    r2,
	}
}

// CreatePost creates one scheduled post per selected account inside a single
// transaction. The returned delay is how long until the slot, for queueing a
// delayed dispatch task.
func (s *postService) CreatePost(ctx context.Context, userID int64, pc *transfer.PostCreation, files []*multipart.FileHeader) ([]*models.ScheduledPost, time.Duration, error) {
	if pc == nil || pc.Content == "" {
		return nil, 0, transfer.FieldErrors{"content": "content is required"}
	}

	loc := time.UTC
	if pc.Timezone != "" {
		l, err := time.LoadLocation(pc.Timezone)
		if err != nil {
			return nil, 0, transfer.FieldErrors{"timezone": "unknown IANA timezone"}
		}
		loc = l
	}

	scheduledAt, err := time.ParseInLocation("2006-01-02T15:04", pc.ScheduledAt, loc)
	if err != nil {
		return nil, 0, transfer.FieldErrors{"scheduled_at": "must be YYYY-MM-DDTHH:MM"}
	}
	scheduledAt = scheduledAt.UTC()

	var selectedAccounts []int64
	if err := json.Unmarshal([]byte(pc.SelectedAccounts), &selectedAccounts); err != nil {
		return nil, 0, transfer.FieldErrors{"selected_accounts": "must be a JSON array of account ids"}
	}
	if len(selectedAccounts) == 0 {
		return nil, 0, transfer.FieldErrors{"selected_accounts": "at least one account is required"}
	}

	accounts := make([]*models.SocialAccount, 0, len(selectedAccounts))
	for _, accountID := range selectedAccounts {
		account, err := s.ac.GetByID(ctx, accountID)
		if err != nil {
			return nil, 0, err
		}
		if account == nil || account.UserID != userID {
			return nil, 0, transfer.FieldErrors{"selected_accounts": fmt.Sprintf("account %d is not connected", accountID)}
		}
		if !models.WithinCharacterLimit(account.Platform, pc.Content) {
			limit, _ := models.CharacterLimit(account.Platform)
			return nil, 0, transfer.FieldErrors{
				"content": fmt.Sprintf("exceeds the %d character limit for %s", limit, account.Platform),
			}
		}
		accounts = append(accounts, account)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return nil, 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	created := make([]*models.ScheduledPost, 0, len(accounts))
	for _, account := range accounts {
		post := &models.ScheduledPost{
			UserID:      userID,
			AccountID:   account.ID,
			Platform:    account.Platform,
			Content:     pc.Content,
			ScheduledAt: scheduledAt,
			Status:      lifecycle.Route(account.ApprovalRequired, true),
		}

		var postID int64
		postID, err = s.posts.Create(ctx, tx, post)
		if err != nil {
			return nil, 0, fmt.Errorf("error creating post: %w", err)
		}
		post.ID = postID

		if err = s.processFiles(ctx, tx, userID, postID, files); err != nil {
			return nil, 0, fmt.Errorf("error processing files: %w", err)
		}

		created = append(created, post)
	}

	if err = tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	delay := time.Until(scheduledAt)
	if delay < 0 {
		delay = 0
	}

	return created, delay, nil
}

func (s *postService) processFiles(ctx context.Context, tx *sql.Tx, userID, postID int64, files []*multipart.FileHeader) error {
	allowedTypes := map[string]struct{}{
		"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {},
	}

	for i, file := range files {
		fileContent, err := file.Open()
		if err != nil {
			return fmt.Errorf("error opening file: %w", err)
		}
		defer fileContent.Close()

		fileBytes, err := io.ReadAll(fileContent)
		if err != nil {
			return fmt.Errorf("error reading file content: %w", err)
		}

		fileType, err := filetype.Match(fileBytes)
		if err != nil || fileType == types.Unknown {
			return fmt.Errorf("unsupported file type: %w", err)
		}
		if _, ok := allowedTypes[fileType.Extension]; !ok {
			return fmt.Errorf("file type %s is not allowed", fileType.Extension)
		}

		assetID, err := s.saveFile(ctx, tx, userID, fileType.MIME.Value, fileBytes)
		if err != nil {
			return fmt.Errorf("error uploading file: %w", err)
		}

		postMedia := models.PostMedia{
			PostID:       postID,
			AssetID:      assetID,
			DisplayOrder: i,
		}
		if err := s.pm.Create(ctx, tx, &postMedia); err != nil {
			return fmt.Errorf("error saving media file: %w", err)
		}
	}
	return nil
}

func (s *postService) saveFile(ctx context.Context, tx *sql.Tx, userID int64, fileType string, file []byte) (int64, error) {
	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	if err := s.r2.Upload(ctx, id, file, fileType); err != nil {
		return 0, err
	}

	ma := models.MediaAsset{
		UserID:   userID,
		FileName: id,
		FileType: fileType,
		FileSize: int64(len(file)),
		FileURL:  s.r2.PublicURL(id),
	}

	return s.ma.Create(ctx, tx, &ma)
}

func (s *postService) ListPending(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	return s.posts.ListPending(ctx, userID)
}

func (s *postService) ListDrafts(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	return s.posts.ListDrafts(ctx, userID)
}

func (s *postService) ListHistory(ctx context.Context, userID int64, status string, limit, offset int) ([]*models.ScheduledPost, error) {
	if status != models.PostStatusPosted && status != models.PostStatusFailed {
		return nil, transfer.FieldErrors{"status": "status must be posted or failed"}
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.posts.ListHistory(ctx, userID, status, limit, offset)
}

// Approve releases a draft or approval-gated post for dispatch.
func (s *postService) Approve(ctx context.Context, userID, postID int64) error {
	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return err
	}

	if !lifecycle.CanTransition(post.Status, models.PostStatusPendingDispatch) {
		if lifecycle.IsTerminal(post.Status) {
			return ErrPostImmutable
		}
		return fmt.Errorf("post %d cannot be approved from status %s", postID, post.Status)
	}

	return s.posts.UpdateStatus(ctx, postID, models.PostStatusPendingDispatch)
}

func (s *postService) Update(ctx context.Context, userID, postID int64, pu *transfer.PostUpdate) error {
	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return err
	}
	if lifecycle.IsTerminal(post.Status) {
		return ErrPostImmutable
	}

	content := post.Content
	if pu.Content != nil {
		content = *pu.Content
		if content == "" {
			return transfer.FieldErrors{"content": "content cannot be empty"}
		}
		if !models.WithinCharacterLimit(post.Platform, content) {
			limit, _ := models.CharacterLimit(post.Platform)
			return transfer.FieldErrors{
				"content": fmt.Sprintf("exceeds the %d character limit for %s", limit, post.Platform),
			}
		}
	}

	scheduledAt := post.ScheduledAt
	if pu.ScheduledAt != nil {
		loc := time.UTC
		if pu.Timezone != "" {
			l, err := time.LoadLocation(pu.Timezone)
			if err != nil {
				return transfer.FieldErrors{"timezone": "unknown IANA timezone"}
			}
			loc = l
		}
		t, err := time.ParseInLocation("2006-01-02T15:04", *pu.ScheduledAt, loc)
		if err != nil {
			return transfer.FieldErrors{"scheduled_at": "must be YYYY-MM-DDTHH:MM"}
		}
		scheduledAt = t.UTC()
	}

	return s.posts.UpdateContent(ctx, postID, content, scheduledAt)
}

// Remove cancels a pending post. Terminal posts are history and stay.
func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return err
	}
	if lifecycle.IsTerminal(post.Status) {
		return ErrPostImmutable
	}

	return s.posts.Remove(ctx, postID)
}

func (s *postService) owned(ctx context.Context, userID, postID int64) (*models.ScheduledPost, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil || post.UserID != userID {
		return nil, ErrPostNotFound
	}
	return post, nil
}
