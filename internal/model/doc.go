package model

// Package model defines domain data structures used across the app: persisted
// collection state records, reconciliation plans, and update reports. Persisted
// structures carry JSON tags; plans are ephemeral and never written to disk.
