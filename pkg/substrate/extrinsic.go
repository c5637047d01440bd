// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package substrate

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/holiman/uint256"
	"github.com/luxfi/dotcli/pkg/models"
	"github.com/luxfi/dotcli/pkg/ss58"
)

const (
	extrinsicVersion = 4
	signedBit        = 0x80

	// payloads longer than this are signed through their blake2-256 hash
	maxRawPayload = 256

	multiAddressID = 0
)

// Call is an encoded call: pallet index, call index, arguments.
type Call []byte

// Index returns the (pallet, call) pair the call starts with.
func (c Call) Index() models.CallIndex {
	var idx models.CallIndex
	copy(idx[:], c)
	return idx
}

// TransferKeepAliveCall encodes Balances.transfer_keep_alive(MultiAddress::Id(dest), Compact(amount)).
func TransferKeepAliveCall(idx models.CallIndex, dest ss58.AccountID, amount *uint256.Int) (Call, error) {
	if amount == nil {
		return nil, fmt.Errorf("transfer amount is nil")
	}
	var buf bytes.Buffer
	buf.Write(idx[:])
	buf.WriteByte(multiAddressID)
	buf.Write(dest[:])
	if err := encodeCompact(scale.NewEncoder(&buf), amount); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SignatureScheme is the MultiSignature variant.
type SignatureScheme byte

const (
	SchemeEd25519 SignatureScheme = iota
	SchemeSr25519
	SchemeEcdsa
)

func (s SignatureScheme) String() string {
	switch s {
	case SchemeEd25519:
		return "ed25519"
	case SchemeSr25519:
		return "sr25519"
	case SchemeEcdsa:
		return "ecdsa"
	}
	return fmt.Sprintf("scheme(%d)", byte(s))
}

func (s SignatureScheme) size() int {
	if s == SchemeEcdsa {
		return 65
	}
	return 64
}

// Signature is a MultiSignature.
type Signature struct {
	Scheme SignatureScheme
	Bytes  []byte
}

// SigningContext holds the per-extrinsic values of the signed extensions.
// Extrinsics are immortal and carry no tip.
type SigningContext struct {
	Nonce              uint64
	SpecVersion        uint32
	TransactionVersion uint32
	GenesisHash        Hash
	// MetadataHash appends the CheckMetadataHash extension in disabled mode.
	MetadataHash bool
}

// extra is the part of the signed extensions carried in the extrinsic.
func (sc SigningContext) extra() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(0) // immortal era
	e := scale.NewEncoder(&buf)
	if err := encodeCompactUint(e, sc.Nonce); err != nil {
		return nil, err
	}
	if err := encodeCompactUint(e, 0); err != nil {
		return nil, err
	}
	if sc.MetadataHash {
		buf.WriteByte(0)
	}
	return buf.Bytes(), nil
}

// additional is the part of the signed extensions that is only signed.
func (sc SigningContext) additional() []byte {
	out := make([]byte, 8, 8+2*len(sc.GenesisHash)+1)
	binary.LittleEndian.PutUint32(out[:4], sc.SpecVersion)
	binary.LittleEndian.PutUint32(out[4:], sc.TransactionVersion)
	out = append(out, sc.GenesisHash[:]...)
	// immortal: the era checkpoint is the genesis block
	out = append(out, sc.GenesisHash[:]...)
	if sc.MetadataHash {
		out = append(out, 0)
	}
	return out
}

// SigningPayload returns the bytes a signer must sign for call.
func SigningPayload(call Call, sc SigningContext) ([]byte, error) {
	extra, err := sc.extra()
	if err != nil {
		return nil, err
	}
	payload := make([]byte, 0, len(call)+len(extra)+80)
	payload = append(payload, call...)
	payload = append(payload, extra...)
	payload = append(payload, sc.additional()...)
	if len(payload) > maxRawPayload {
		h := Blake2_256(payload)
		return h[:], nil
	}
	return payload, nil
}

// Extrinsic is a fully encoded extrinsic including its length prefix.
type Extrinsic []byte

func (x Extrinsic) Hex() string {
	return EncodeHex(x)
}

// Hash is the extrinsic hash nodes report.
func (x Extrinsic) Hash() Hash {
	return Blake2_256(x)
}

// NewSignedExtrinsic assembles a v4 signed extrinsic.
func NewSignedExtrinsic(signer ss58.AccountID, sig Signature, call Call, sc SigningContext) (Extrinsic, error) {
	if len(sig.Bytes) != sig.Scheme.size() {
		return nil, fmt.Errorf("%s signature has %d bytes", sig.Scheme, len(sig.Bytes))
	}
	extra, err := sc.extra()
	if err != nil {
		return nil, err
	}
	var body bytes.Buffer
	body.WriteByte(extrinsicVersion | signedBit)
	body.WriteByte(multiAddressID)
	body.Write(signer[:])
	body.WriteByte(byte(sig.Scheme))
	body.Write(sig.Bytes)
	body.Write(extra)
	body.Write(call)
	return withLengthPrefix(body.Bytes())
}

// NewUnsignedExtrinsic wraps call as a bare v4 extrinsic.
func NewUnsignedExtrinsic(call Call) (Extrinsic, error) {
	return withLengthPrefix(append([]byte{extrinsicVersion}, call...))
}

func withLengthPrefix(body []byte) (Extrinsic, error) {
	var buf bytes.Buffer
	if err := encodeCompactUint(scale.NewEncoder(&buf), uint64(len(body))); err != nil {
		return nil, err
	}
	buf.Write(body)
	return buf.Bytes(), nil
}

// ExtrinsicInfo is what can be read from an extrinsic without metadata.
type ExtrinsicInfo struct {
	Hash    Hash
	Version byte
	Signed  bool
	// Signer is set for signed extrinsics addressed by account id.
	Signer *ss58.AccountID
	// Call is set for unsigned extrinsics; signed extension layouts differ
	// per runtime so the call offset of signed ones is unknown.
	Call *models.CallIndex
}

// InspectExtrinsic reads the header of an encoded extrinsic.
func InspectExtrinsic(x Extrinsic) (ExtrinsicInfo, error) {
	info := ExtrinsicInfo{Hash: x.Hash()}
	d := scale.NewDecoder(bytes.NewReader(x))
	n, err := decodeCompactInt(d)
	if err != nil {
		return info, wrapDecode("extrinsic length", err)
	}
	v, err := d.ReadOneByte()
	if err != nil {
		return info, wrapDecode("extrinsic version", err)
	}
	if n == 0 {
		return info, fmt.Errorf("%w: empty extrinsic", ErrDecode)
	}
	info.Version = v &^ signedBit
	info.Signed = v&signedBit != 0

	if !info.Signed {
		var idx models.CallIndex
		if err := d.Read(idx[:]); err != nil {
			return info, wrapDecode("call index", err)
		}
		info.Call = &idx
		return info, nil
	}

	addrKind, err := d.ReadOneByte()
	if err != nil {
		return info, wrapDecode("signer", err)
	}
	if addrKind == multiAddressID {
		var id ss58.AccountID
		if err := d.Read(id[:]); err != nil {
			return info, wrapDecode("signer", err)
		}
		info.Signer = &id
	}
	return info, nil
}
