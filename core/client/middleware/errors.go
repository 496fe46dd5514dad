package middleware

import "errors"

// ErrRetryExhausted is returned by the retry middleware when every attempt
// failed. It wraps the last provider error, so both can be matched with
// [errors.Is].
var ErrRetryExhausted = errors.New("tabscrape: all retry attempts exhausted")
