/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package hash

import (
	"crypto/sha256"
)

type Hasher interface {
	Hash(msg []byte) ([]byte, error)
}

// SHA256Hasher is the default Hasher
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(msg []byte) ([]byte, error) {
	h := sha256.New()
	if _, err := h.Write(msg); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
