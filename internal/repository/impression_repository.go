package repository

import (
	"context"

	"github.com/cinematch/backend/internal/models"
	"gorm.io/gorm"
)

// ImpressionRepository records which recommendations were shown
type ImpressionRepository interface {
	RecordImpressions(ctx context.Context, impressions []models.RecommendationImpression) error
	CountBySource(ctx context.Context, userID string) (map[string]int64, error)
}

type impressionRepository struct {
	db *gorm.DB
}

// NewImpressionRepository creates a new impression repository
func NewImpressionRepository(db *gorm.DB) ImpressionRepository {
	return &impressionRepository{db: db}
}

func (r *impressionRepository) RecordImpressions(ctx context.Context, impressions []models.RecommendationImpression) error {
	if len(impressions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(impressions, 100).Error
}

func (r *impressionRepository) CountBySource(ctx context.Context, userID string) (map[string]int64, error) {
	var rows []struct {
		Source string
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.RecommendationImpression{}).
		Select("source, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("source").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Source] = row.Count
	}
	return counts, nil
}
