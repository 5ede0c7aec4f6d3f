// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package fingerprint computes the content fingerprints that drive
// restart propagation. A service unit's restart trigger is the
// fingerprint of the generated configuration document; when the
// document changes, every unit carrying its trigger is restarted.
//
// Two properties matter and both are provided here:
//
//   - Determinism: logically identical input produces identical
//     bytes to hash. Structured values are encoded with CBOR Core
//     Deterministic Encoding (RFC 8949 §4.2: sorted map keys,
//     smallest integer encoding) before hashing.
//   - Domain separation: document and tree fingerprints use distinct
//     BLAKE3 keys, so the same bytes can never collide across
//     contexts.
package fingerprint

import (
	"encoding/hex"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"github.com/prabhat-suresh/shareforge/lib/confval"
)

// Digest is a 32-byte BLAKE3 digest.
type Digest [32]byte

// String returns the lowercase hex form, the representation embedded
// in service unit definitions.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// domainKey is a 32-byte key for BLAKE3 keyed hashing. The byte
// values are the ASCII encoding of the domain name, zero-padded:
// readable in hex dumps, opaque to the hash.
type domainKey [32]byte

var (
	documentDomainKey = domainKey{
		's', 'h', 'a', 'r', 'e', 'f', 'o', 'r', 'g', 'e', '.',
		'd', 'o', 'c', 'u', 'm', 'e', 'n', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	treeDomainKey = domainKey{
		's', 'h', 'a', 'r', 'e', 'f', 'o', 'r', 'g', 'e', '.',
		't', 'r', 'e', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding. Initialized once; the options are static so failure is a
// programming error.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("fingerprint: CBOR encoder initialization failed: " + err.Error())
	}
}

// Document fingerprints the rendered configuration document. This is
// the restart trigger carried by every enabled service unit.
func Document(text string) Digest {
	return keyedHash(documentDomainKey, []byte(text))
}

// Tree fingerprints a configuration value tree via its deterministic
// CBOR encoding. Used to identify the resolved configuration as a
// whole in compilation results.
func Tree(v confval.Value) (Digest, error) {
	encoded, err := encMode.Marshal(v.Interface())
	if err != nil {
		return Digest{}, err
	}
	return keyedHash(treeDomainKey, encoded), nil
}

func keyedHash(key domainKey, data []byte) Digest {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		// NewKeyed fails only on a key that is not 32 bytes.
		panic("fingerprint: keyed hasher initialization failed: " + err.Error())
	}
	hasher.Write(data)

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}
