// File: utils/constants.go
package utils

import "time"

// PaymentLockPrefix is the prefix used for per-appointment Redis lock leases.
const PaymentLockPrefix = "payment:lock:"

// PaymentLockLeaseTTL is the time-to-live for a per-appointment lock lease.
const PaymentLockLeaseTTL = 30 * time.Second

// QuoteCachePrefix is the prefix used for cached pricing quotes.
const QuoteCachePrefix = "quote:"

// QuoteCacheTTL is the time-to-live for cached pricing quotes.
const QuoteCacheTTL = 5 * time.Minute
