package boards

import (
	"context"
	"fmt"
	"io"

	"github.com/adnan-tnd/flow-core/internal/apperr"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/policy"
	"github.com/adnan-tnd/flow-core/internal/storage"
	"github.com/google/uuid"
)

// AddAttachments validates every file before uploading any of them, then
// appends the resulting URLs to the card.
func (s *Service) AddAttachments(ctx context.Context, cardID uuid.UUID, files []io.Reader, actor policy.Actor) (*models.Card, error) {
	if len(files) == 0 {
		return nil, apperr.Validation("At least one file is required")
	}
	card, _, err := s.accessibleCard(ctx, cardID, actor)
	if err != nil {
		return nil, err
	}
	if len(card.Attachments)+len(files) > s.limits.MaxFiles {
		return nil, apperr.Validation(fmt.Sprintf("A card can hold at most %d attachments", s.limits.MaxFiles))
	}

	images := make([]*storage.Image, 0, len(files))
	for _, f := range files {
		img, err := storage.ReadImage(f, s.limits.MaxFileBytes)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		images = append(images, img)
	}

	uploaded := make([]string, 0, len(images))
	for _, img := range images {
		key := fmt.Sprintf("cards/%s/%s%s", card.ID, uuid.NewString(), img.Ext)
		url, err := s.store.Put(ctx, key, img.ContentType, img.Reader(), img.Size())
		if err != nil {
			s.discard(ctx, uploaded)
			return nil, apperr.Internal(fmt.Errorf("uploading attachment: %w", err))
		}
		uploaded = append(uploaded, url)
	}

	card.Attachments = append(card.Attachments, uploaded...)
	if err := s.db.WithContext(ctx).Model(card).Select("attachments").Updates(card).Error; err != nil {
		s.discard(ctx, uploaded)
		return nil, apperr.Internal(fmt.Errorf("saving attachments: %w", err))
	}
	return card, nil
}

// RemoveAttachments detaches urls by exact match. One unknown URL fails the
// whole call.
func (s *Service) RemoveAttachments(ctx context.Context, cardID uuid.UUID, urls []string, actor policy.Actor) (*models.Card, error) {
	if len(urls) == 0 {
		return nil, apperr.Validation("At least one attachment URL is required")
	}
	card, _, err := s.accessibleCard(ctx, cardID, actor)
	if err != nil {
		return nil, err
	}

	drop := make(map[string]bool, len(urls))
	for _, u := range urls {
		drop[u] = true
	}
	for u := range drop {
		if !contains(card.Attachments, u) {
			return nil, apperr.Validation("Attachment not found on card: " + u)
		}
	}

	kept := make([]string, 0, len(card.Attachments))
	for _, u := range card.Attachments {
		if !drop[u] {
			kept = append(kept, u)
		}
	}
	card.Attachments = kept
	if err := s.db.WithContext(ctx).Model(card).Select("attachments").Updates(card).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("removing attachments: %w", err))
	}

	for u := range drop {
		if err := s.store.Delete(ctx, u); err != nil {
			s.logger.Warn("attachment delete failed", "card_id", card.ID, "url", u, "error", err)
		}
	}
	return card, nil
}

func (s *Service) discard(ctx context.Context, urls []string) {
	for _, u := range urls {
		if err := s.store.Delete(ctx, u); err != nil {
			s.logger.Warn("orphaned attachment", "url", u, "error", err)
		}
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
