// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// ActivationTokenTTL is the duration an activation token remains valid.
	// Short-lived (10m): the user is expected to have the email open already.
	ActivationTokenTTL = 10 * time.Minute

	// SessionCacheTTL is how long the logged-in snapshot survives in the
	// session cache without a refresh. Long-lived (30 days) to provide a
	// good user experience.
	SessionCacheTTL = 30 * 24 * time.Hour

	// ActivationCodeMin is the inclusive lower bound of the emailed code.
	ActivationCodeMin = 1000

	// ActivationCodeSpan is the size of the code range. Codes fall in
	// [ActivationCodeMin, ActivationCodeMin+ActivationCodeSpan), i.e. always
	// exactly four digits.
	ActivationCodeSpan = 8000

	// ActivationCodeLength is the digit count of the emailed code.
	ActivationCodeLength = 4
)
