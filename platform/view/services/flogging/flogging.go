/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package flogging re-exports the fabric logging facility so that the rest of
// the codebase does not depend on the fabric module directly.
package flogging

import (
	"github.com/hyperledger/fabric/common/flogging"
)

type FabricLogger = flogging.FabricLogger

// MustGetLogger returns the named logger, creating it if necessary
func MustGetLogger(name string) *FabricLogger {
	return flogging.MustGetLogger(name)
}

// ActivateSpec sets the active logging spec, e.g. "fabric-event-client=debug:info"
func ActivateSpec(spec string) {
	flogging.ActivateSpec(spec)
}
