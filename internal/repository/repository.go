package repository

import "photo_battle/internal/storage"

type Repositories struct {
	BattleRecord BattleRecordRepository
}

func NewRepositories(db *storage.PostgresDB) *Repositories {
	return &Repositories{
		BattleRecord: NewBattleRecordRepository(db),
	}
}
