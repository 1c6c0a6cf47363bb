package store

import "codeberg.org/mutker/barologd/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("store_invalid_db_path")

	// Storage Errors
	ErrStorageAccess    = errors.ErrorCode("store_storage_access_failed")
	ErrStorageInit      = errors.ErrorCode("store_storage_init_failed")
	ErrStorageClose     = errors.ErrorCode("store_storage_close_failed")
	ErrSchemaInitFailed = errors.ErrorCode("store_schema_init_failed")

	// Data Errors
	ErrInvalidSample     = errors.ErrorCode("store_invalid_sample")
	ErrTransactionFailed = errors.ErrorCode("store_transaction_failed")
)
