/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package proto

import (
	//lint:ignore SA1019 the messages in fabric-protos-go are APIv1-generated
	protoV1 "github.com/golang/protobuf/proto"
)

// The generated fabric-protos-go messages predate the protoreflect API, so
// marshalling goes through the v1 package. Keeping the delegation in one
// place makes the eventual move to google.golang.org/protobuf a single edit.

type Message = protoV1.Message

func Marshal(m Message) ([]byte, error) {
	return protoV1.Marshal(m)
}

func Unmarshal(b []byte, m Message) error {
	return protoV1.Unmarshal(b, m)
}
