package config

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ConnectionDb(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  databaseURL,
		PreferSimpleProtocol: true, // Disable prepared statements completely
	}), &gorm.Config{
		PrepareStmt: false,
		// Surfaces unique violations as gorm.ErrDuplicatedKey so the
		// service can map the signup race to a duplicate-email error.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}
