/*
Copyright IBM Corp All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package compose

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendAttributes(t *testing.T) {
	var sb strings.Builder
	CreateCompositeKeyOrPanic(&sb, "tx", "1", "2")
	k := AppendAttributesOrPanic(&sb, "3")
	assert.Equal(t, CreateCompositeKeyOrPanic(&strings.Builder{}, "tx", "1", "2", "3"), k)
}

func TestCreateTxTopic(t *testing.T) {
	sb, topic := CreateTxTopic("testnet", "testchannel", "")
	assert.NotEmpty(t, topic)

	perTx := AppendAttributesOrPanic(sb, "tx1")
	_, expected := CreateTxTopic("testnet", "testchannel", "tx1")
	assert.Equal(t, expected, perTx)
	assert.NotEqual(t, topic, perTx)
}

func TestInvalidAttribute(t *testing.T) {
	_, err := CreateCompositeKey(&strings.Builder{}, "tx", string(rune(0)))
	assert.Error(t, err)
}
