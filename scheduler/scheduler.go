package scheduler

// Package scheduler provides scheduled job management for the scan backend.
// It handles:
// - The daily post-close market scan
// - Mark-to-market updates of active trades
// - Morning revalidation of the latest published signals
//
// The main scheduler is implemented in jobs.go
