// Copyright (c) 2026 Learnio. All rights reserved.
// Author: quang.dang.dev@gmail.com

// Package uuid wraps identifier generation so the rest of the codebase does
// not depend on a concrete UUID library.
//
// UUIDv7 is used for entity identifiers because its timestamp prefix keeps
// B-tree indexes append-mostly, unlike fully random v4 identifiers.
package uuid

import (
	guuid "github.com/google/uuid"
)

// New returns a new UUIDv7 string. It falls back to UUIDv4 in the unlikely
// event that the system clock is unusable.
func New() string {
	id, err := guuid.NewV7()
	if err != nil {
		return guuid.NewString()
	}
	return id.String()
}

// IsValid reports whether the given string parses as a UUID of any version.
func IsValid(value string) bool {
	_, err := guuid.Parse(value)
	return err == nil
}
