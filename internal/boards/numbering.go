package boards

import (
	"context"
	"fmt"

	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/pkg/config"
	"github.com/adnan-tnd/flow-core/pkg/crypto"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Numberer hands out the next card number of a board. It runs inside the
// card-creation transaction.
type Numberer interface {
	Next(ctx context.Context, tx *gorm.DB, boardID uuid.UUID) (int, error)
}

// NewNumberer returns the strategy named by policy. rdb may be nil unless the
// redis strategy is selected.
func NewNumberer(policy string, rdb redis.Cmdable) (Numberer, error) {
	switch policy {
	case config.CardNumberingReadModifyWrite:
		return ReadModifyWrite{}, nil
	case config.CardNumberingAtomic:
		return AtomicIncrement{}, nil
	case config.CardNumberingRedis:
		if rdb == nil {
			return nil, fmt.Errorf("card numbering %q needs redis", policy)
		}
		return &RedisSequence{rdb: rdb}, nil
	default:
		return nil, fmt.Errorf("unknown card numbering policy %q", policy)
	}
}

// ReadModifyWrite loads the counter, increments it in memory and saves it.
// Two concurrent creations on one board may read the same value.
type ReadModifyWrite struct{}

func (ReadModifyWrite) Next(ctx context.Context, tx *gorm.DB, boardID uuid.UUID) (int, error) {
	var board models.Board
	if err := tx.WithContext(ctx).Select("id", "last_card_number").First(&board, "id = ?", boardID).Error; err != nil {
		return 0, fmt.Errorf("reading card counter: %w", err)
	}
	next := board.LastCardNumber + 1
	if err := tx.WithContext(ctx).Model(&models.Board{}).Where("id = ?", boardID).
		Update("last_card_number", next).Error; err != nil {
		return 0, fmt.Errorf("saving card counter: %w", err)
	}
	return next, nil
}

// AtomicIncrement bumps the counter in one UPDATE; the row lock it takes is
// held until the surrounding transaction ends.
type AtomicIncrement struct{}

func (AtomicIncrement) Next(ctx context.Context, tx *gorm.DB, boardID uuid.UUID) (int, error) {
	res := tx.WithContext(ctx).Model(&models.Board{}).Where("id = ?", boardID).
		UpdateColumn("last_card_number", gorm.Expr("last_card_number + ?", 1))
	if res.Error != nil {
		return 0, fmt.Errorf("incrementing card counter: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("board %s not found", boardID)
	}

	var board models.Board
	if err := tx.WithContext(ctx).Select("id", "last_card_number").First(&board, "id = ?", boardID).Error; err != nil {
		return 0, fmt.Errorf("reading card counter: %w", err)
	}
	return board.LastCardNumber, nil
}

// RedisSequence uses INCR on a per-board key, seeded from the stored counter
// the first time a board is seen. The stored counter follows the sequence.
type RedisSequence struct {
	rdb redis.Cmdable
}

func sequenceKey(boardID uuid.UUID) string {
	return "flowcore:board:" + boardID.String() + ":card_seq"
}

func (r *RedisSequence) Next(ctx context.Context, tx *gorm.DB, boardID uuid.UUID) (int, error) {
	var board models.Board
	if err := tx.WithContext(ctx).Select("id", "last_card_number").First(&board, "id = ?", boardID).Error; err != nil {
		return 0, fmt.Errorf("reading card counter: %w", err)
	}

	key := sequenceKey(boardID)
	if err := r.rdb.SetNX(ctx, key, board.LastCardNumber, 0).Err(); err != nil {
		return 0, fmt.Errorf("seeding card sequence: %w", err)
	}
	n, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incrementing card sequence: %w", err)
	}

	if err := tx.WithContext(ctx).Model(&models.Board{}).
		Where("id = ? AND last_card_number < ?", boardID, n).
		Update("last_card_number", n).Error; err != nil {
		return 0, fmt.Errorf("saving card counter: %w", err)
	}
	return int(n), nil
}

func newInvitationToken() (string, error) {
	return crypto.NewToken(32)
}
