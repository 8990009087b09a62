// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import "github.com/google/uuid"

// NewRunID returns a UUIDv7 identifying one [RunScenario] evaluation.
//
// A run id lets a CLI or GUI correlate a scenario's step results with the
// trace file and config snapshot that produced them across separate log
// lines or report files, without needing a database key.
//
// This function panics if the system random number generator fails, which
// should only happen under extraordinary circumstances.
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return id.String()
}
