// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

//go:build !unix

package key

// Session keys are only pinned on unix.
func mlock([]byte) error { return nil }

func munlock([]byte) error { return nil }
