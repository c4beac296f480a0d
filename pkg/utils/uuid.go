/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package utils

import (
	"github.com/google/uuid"
)

func init() {
	// pooled random bytes are stored in heap, see uuid.EnableRandPool docs
	uuid.EnableRandPool()
}

// GenerateUUID creates a new random UUID and returns it as a string
func GenerateUUID() string {
	return uuid.NewString()
}
