// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package substrate

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/luxfi/dotcli/pkg/models"
	"github.com/luxfi/dotcli/pkg/ss58"
)

// MaxRawDataLen is the largest payload a Data::Raw variant can carry.
const MaxRawDataLen = 32

var ErrDataTooLong = errors.New("identity field longer than 32 bytes")

// DataKind is the variant of an identity Data field.
type DataKind byte

const (
	DataNone DataKind = iota
	DataRaw
	DataBlakeTwo256
	DataSha256
	DataKeccak256
	DataShaThree256
)

// Data is pallet-identity's Data enum.
type Data struct {
	Kind  DataKind
	Value []byte
}

// NewData maps the empty string to None and anything else to Raw.
func NewData(s string) (Data, error) {
	if s == "" {
		return Data{Kind: DataNone}, nil
	}
	if len(s) > MaxRawDataLen {
		return Data{}, fmt.Errorf("%w: %d bytes", ErrDataTooLong, len(s))
	}
	return Data{Kind: DataRaw, Value: []byte(s)}, nil
}

// Text returns the field as a display string. Only Raw values holding
// valid UTF-8 are displayable.
func (d Data) Text() (string, bool) {
	if d.Kind != DataRaw || !utf8.Valid(d.Value) {
		return "", false
	}
	return string(d.Value), true
}

func (d Data) Encode(e scale.Encoder) error {
	switch d.Kind {
	case DataNone:
		return e.PushByte(0)
	case DataRaw:
		if len(d.Value) > MaxRawDataLen {
			return ErrDataTooLong
		}
		if err := e.PushByte(byte(len(d.Value) + 1)); err != nil {
			return err
		}
		return e.Write(d.Value)
	default:
		if len(d.Value) != 32 {
			return fmt.Errorf("hashed identity data needs 32 bytes, got %d", len(d.Value))
		}
		if err := e.PushByte(byte(d.Kind) - byte(DataBlakeTwo256) + 34); err != nil {
			return err
		}
		return e.Write(d.Value)
	}
}

func (d *Data) Decode(dec scale.Decoder) error {
	tag, err := dec.ReadOneByte()
	if err != nil {
		return err
	}
	switch {
	case tag == 0:
		*d = Data{Kind: DataNone}
		return nil
	case tag <= MaxRawDataLen+1:
		value := make([]byte, tag-1)
		if len(value) > 0 {
			if err := dec.Read(value); err != nil {
				return err
			}
		}
		*d = Data{Kind: DataRaw, Value: value}
		return nil
	case tag <= 37:
		value := make([]byte, 32)
		if err := dec.Read(value); err != nil {
			return err
		}
		*d = Data{Kind: DataKind(tag-34) + DataBlakeTwo256, Value: value}
		return nil
	}
	return fmt.Errorf("%w: unknown identity data tag %d", ErrDecode, tag)
}

// IdentityInfo is the People chain's identity record, in encoding order.
type IdentityInfo struct {
	Display        Data
	Legal          Data
	Web            Data
	Matrix         Data
	Email          Data
	PgpFingerprint *[20]byte
	Image          Data
	Twitter        Data
	Github         Data
	Discord        Data
}

func (info IdentityInfo) Encode(e scale.Encoder) error {
	for _, d := range []Data{info.Display, info.Legal, info.Web, info.Matrix, info.Email} {
		if err := d.Encode(e); err != nil {
			return err
		}
	}
	if info.PgpFingerprint == nil {
		if err := e.PushByte(0); err != nil {
			return err
		}
	} else {
		if err := e.PushByte(1); err != nil {
			return err
		}
		if err := e.Write(info.PgpFingerprint[:]); err != nil {
			return err
		}
	}
	for _, d := range []Data{info.Image, info.Twitter, info.Github, info.Discord} {
		if err := d.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

func (info *IdentityInfo) Decode(dec scale.Decoder) error {
	for _, d := range []*Data{&info.Display, &info.Legal, &info.Web, &info.Matrix, &info.Email} {
		if err := d.Decode(dec); err != nil {
			return err
		}
	}
	some, err := dec.ReadOneByte()
	if err != nil {
		return err
	}
	switch some {
	case 0:
		info.PgpFingerprint = nil
	case 1:
		var fp [20]byte
		if err := dec.Read(fp[:]); err != nil {
			return err
		}
		info.PgpFingerprint = &fp
	default:
		return fmt.Errorf("%w: bad option tag %d", ErrDecode, some)
	}
	for _, d := range []*Data{&info.Image, &info.Twitter, &info.Github, &info.Discord} {
		if err := d.Decode(dec); err != nil {
			return err
		}
	}
	return nil
}

// Judgement is a registrar's verdict; FeePaid carries a balance we skip.
type Judgement struct {
	Registrar uint32
	Kind      byte
}

// Registration is the value of Identity.IdentityOf.
type Registration struct {
	Judgements []Judgement
	Info       IdentityInfo
}

// IdentityOfKey is Identity.IdentityOf(twox64concat(id)).
func IdentityOfKey(id ss58.AccountID) StorageKey {
	return NewStorageKey("Identity", "IdentityOf", Twox64Concat(id[:]))
}

// DecodeRegistration decodes judgements, deposit and info. Runtimes that
// store (Registration, Option<Username>) append bytes that are ignored.
func DecodeRegistration(raw []byte) (Registration, error) {
	var reg Registration
	d := scale.NewDecoder(bytes.NewReader(raw))

	n, err := decodeCompactInt(d)
	if err != nil {
		return reg, wrapDecode("judgements", err)
	}
	reg.Judgements = make([]Judgement, 0, n)
	for i := 0; i < n; i++ {
		var j Judgement
		if err := d.Decode(&j.Registrar); err != nil {
			return reg, wrapDecode("judgement registrar", err)
		}
		if j.Kind, err = d.ReadOneByte(); err != nil {
			return reg, wrapDecode("judgement", err)
		}
		if j.Kind == 1 { // FeePaid(Balance)
			if err := skip(d, 16); err != nil {
				return reg, wrapDecode("judgement fee", err)
			}
		}
		reg.Judgements = append(reg.Judgements, j)
	}
	if err := skip(d, 16); err != nil {
		return reg, wrapDecode("deposit", err)
	}
	if err := reg.Info.Decode(*d); err != nil {
		return reg, wrapDecode("identity info", err)
	}
	return reg, nil
}

// EncodeRegistration builds a Registration without judgements and a zero
// deposit.
func EncodeRegistration(info IdentityInfo) ([]byte, error) {
	var buf bytes.Buffer
	e := scale.NewEncoder(&buf)
	if err := e.PushByte(0); err != nil {
		return nil, err
	}
	if err := e.Write(make([]byte, 16)); err != nil {
		return nil, err
	}
	if err := info.Encode(*e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SetIdentityCall encodes Identity.set_identity(info).
func SetIdentityCall(idx models.CallIndex, info IdentityInfo) (Call, error) {
	var buf bytes.Buffer
	buf.Write(idx[:])
	if err := info.Encode(*scale.NewEncoder(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
