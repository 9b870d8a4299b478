package constants

import "time"

// DefaultContextTimeout is the default timeout for context operations.
const DefaultContextTimeout = 10 * time.Second

// TestContextTimeout is the timeout for test contexts.
const TestContextTimeout = 5 * time.Second

// DefaultRequestTimeout is the timeout applied to each incoming HTTP request.
const DefaultRequestTimeout = 30 * time.Second

// LastUsedUpdateTimeout bounds the asynchronous token last-used write.
const LastUsedUpdateTimeout = 5 * time.Second

// TokenTTL is how long an auth token stays valid. Expired records are
// swept by the tokens table TTL.
const TokenTTL = 30 * 24 * time.Hour

// DatabaseWaitInterval is the polling interval while waiting for the database.
const DatabaseWaitInterval = 1 * time.Second

// DatabaseWaitTimeout is the default deadline while waiting for the database.
const DatabaseWaitTimeout = 60 * time.Second

// SpinnerTickerInterval is the interval between spinner frame updates.
const SpinnerTickerInterval = 80 * time.Millisecond
