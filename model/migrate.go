package model

import "gorm.io/gorm"

// allModels is the full table set; AutoMigrate walks it in order.
var allModels = []interface{}{
	&Account{},
	&TrainerProfile{},
	&FactoryRun{},
	&BattleRecord{},
	&AuditLog{},
}

// AutoMigrate brings the schema up to date on server start.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(allModels...)
}
