package repository

import (
	"photo_battle/internal/repository/models"
	"photo_battle/internal/storage"
)

type BattleRecordRepository interface {
	Create(record *models.BattleRecord) error
	FindRecent(limit int) ([]models.BattleRecord, error)
}

type battleRecordRepository struct {
	db *storage.PostgresDB
}

func NewBattleRecordRepository(db *storage.PostgresDB) BattleRecordRepository {
	return &battleRecordRepository{db: db}
}

func (r *battleRecordRepository) Create(record *models.BattleRecord) error {
	return r.db.Create(record).Error
}

// FindRecent 查詢最近的對戰紀錄
func (r *battleRecordRepository) FindRecent(limit int) ([]models.BattleRecord, error) {
	var records []models.BattleRecord
	err := r.db.Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}
