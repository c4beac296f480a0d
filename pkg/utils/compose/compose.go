/*
Copyright IBM Corp All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package compose

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	minUnicodeRuneValue   = 0            // U+0000
	maxUnicodeRuneValue   = '\U0010FFFF' // U+10FFFF - maximum (and unallocated) code point
	compositeKeyNamespace = "\x00"
)

// CreateCompositeKey composes a key out of an object type and a list of attributes.
// The resulting key is written to sb and returned.
func CreateCompositeKey(sb *strings.Builder, objectType string, attributes ...string) (string, error) {
	if err := validateCompositeKeyAttribute(objectType); err != nil {
		return "", err
	}
	sb.WriteString(compositeKeyNamespace)
	sb.WriteString(objectType)
	sb.WriteRune(minUnicodeRuneValue)
	return AppendAttributes(sb, attributes...)
}

// CreateCompositeKeyOrPanic is CreateCompositeKey but panics on invalid input
func CreateCompositeKeyOrPanic(sb *strings.Builder, objectType string, attributes ...string) string {
	k, err := CreateCompositeKey(sb, objectType, attributes...)
	if err != nil {
		panic(err)
	}
	return k
}

// AppendAttributes appends further attributes to a key previously composed with CreateCompositeKey
func AppendAttributes(sb *strings.Builder, attributes ...string) (string, error) {
	for _, att := range attributes {
		if err := validateCompositeKeyAttribute(att); err != nil {
			return "", err
		}
		sb.WriteString(att)
		sb.WriteRune(minUnicodeRuneValue)
	}
	return sb.String(), nil
}

// AppendAttributesOrPanic is AppendAttributes but panics on invalid input
func AppendAttributesOrPanic(sb *strings.Builder, attributes ...string) string {
	k, err := AppendAttributes(sb, attributes...)
	if err != nil {
		panic(err)
	}
	return k
}

// CreateTxTopic composes the topic under which status changes of the passed transaction
// are published. With an empty txID, the topic covers all transactions on the channel and
// the returned builder can be extended with AppendAttributes.
func CreateTxTopic(network, channel, txID string) (*strings.Builder, string) {
	sb := &strings.Builder{}
	var topic string
	if len(txID) == 0 {
		topic = CreateCompositeKeyOrPanic(sb, "tx", network, channel)
	} else {
		topic = CreateCompositeKeyOrPanic(sb, "tx", network, channel, txID)
	}
	return sb, topic
}

func validateCompositeKeyAttribute(str string) error {
	for index, runeValue := range str {
		if runeValue == minUnicodeRuneValue || runeValue == maxUnicodeRuneValue {
			return errors.Errorf("input contains unicode %#U starting at position [%d]. %#U and %#U are not allowed in the input attribute of a composite key",
				runeValue, index, minUnicodeRuneValue, maxUnicodeRuneValue)
		}
	}
	return nil
}
