/*
Copyright IBM Corp All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUUID(t *testing.T) {
	assert.NotEqual(t, GenerateUUID(), GenerateUUID())
	assert.Len(t, GenerateUUID(), 36)
}
