// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Nanosecond-precision timestamps. The default integer-seconds
	// encoding would truncate, breaking exact round trips.
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// When the decode target is any, produce map[string]any
		// rather than the CBOR default map[any]any, for
		// compatibility with encoding/json consumers.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v as deterministic CBOR.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Clone deep-copies v through a CBOR round trip. The copy shares no
// slices, maps, or pointers with the original, which is what makes it
// safe to hand out cached values and to restore snapshots verbatim.
func Clone[T any](v T) T {
	data, err := Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("codec: cloning %T: %v", v, err))
	}
	var out T
	if err := Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("codec: cloning %T: %v", v, err))
	}
	return out
}
