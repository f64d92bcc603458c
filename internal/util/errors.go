package util

import "errors"

var (
	ErrNoExtractableText = errors.New("no extractable text found in PDF")

	ErrQuotaExhausted = errors.New("provider quota exhausted")
	ErrRateLimited    = errors.New("provider rate limited")
	ErrTransient      = errors.New("transient provider error")
	ErrPermanent      = errors.New("permanent provider error")
	ErrContextTooLong = errors.New("context too long")
)

// StatusError maps an upstream HTTP status to one of the provider sentinels.
func StatusError(status int) error {
	switch {
	case status == 429:
		return ErrRateLimited
	case status == 402:
		return ErrQuotaExhausted
	case status == 413:
		return ErrContextTooLong
	case status >= 500:
		return ErrTransient
	default:
		return ErrPermanent
	}
}
