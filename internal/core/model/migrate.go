package model

import "gorm.io/gorm"

// AllModels lists every table owned by the measurement core, leaves first.
func AllModels() []interface{} {
	return []interface{}{
		&Organization{},
		&Team{},
		&Survey{},
		&Driver{},
		&Question{},
		&SurveyToken{},
		&NumericResponse{},
		&Comment{},
		&CommentNLP{},
		&ParticipationSummary{},
		&DriverSummary{},
		&SentimentSummary{},
		&OrgDriverTrend{},
		&ReportsCache{},
		&Alert{},
		&AuditRecord{},
	}
}

// AutoMigrate creates or updates the schema. Composite unique indexes are
// part of the external contract; upsert semantics depend on them.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
