package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrSymbolNotFound indicates that a market data lookup returned no results.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrNoTransactions indicates that the ledger holds no transactions at all.
	ErrNoTransactions = errors.New("no transactions loaded")

	// ErrFileNotFound indicates that a transaction file does not exist in the data directory.
	ErrFileNotFound = errors.New("transaction file not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidAction indicates an unknown transaction action value.
	ErrInvalidAction = errors.New("invalid transaction action")

	// ErrInvalidInterval indicates an intraday interval outside the supported set.
	ErrInvalidInterval = errors.New("invalid interval")

	// ErrInvalidDays indicates a multi-day range outside the supported bounds.
	ErrInvalidDays = errors.New("days must be between 1 and 7")

	// ErrInvalidDate indicates a date parameter that could not be parsed.
	ErrInvalidDate = errors.New("invalid date parameter")

	// ErrMissingRequiredField indicates that a required field is missing or empty.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrInvalidCSVHeaders indicates a transaction file without the required header columns.
	ErrInvalidCSVHeaders = errors.New("invalid CSV headers")

	// ErrEmptyFile indicates an uploaded transaction file with no data rows.
	ErrEmptyFile = errors.New("file contains no data rows")
)

// Operation failure errors represent system-level failures when retrieving or
// processing data. These errors indicate that an operation failed, but not due
// to missing entities or validation issues.
var (
	ErrFailedToRetrieveHoldings  = errors.New("failed to retrieve holdings")
	ErrFailedToGetSummary        = errors.New("failed to get portfolio summary")
	ErrFailedToGetHistory        = errors.New("failed to get portfolio history")
	ErrFailedToGetIntraday       = errors.New("failed to get intraday values")
	ErrFailedToRetrievePrices    = errors.New("failed to retrieve prices")
	ErrFailedToRetrieveSplits    = errors.New("failed to retrieve split events")
	ErrFailedToReloadPortfolio   = errors.New("failed to reload portfolio")
	ErrFailedToImportFile        = errors.New("failed to import transaction file")
	ErrFailedToQueryCache        = errors.New("failed to query cache")
	ErrFailedToSaveCache         = errors.New("failed to save cache entries")
)
