package usecase

import "time"

// DefaultTransactionTimeout is the maximum duration for a database transaction
// This prevents long-running transactions from blocking tables
const DefaultTransactionTimeout = 10 * time.Second
