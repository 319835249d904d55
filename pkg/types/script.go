package types

import (
	"encoding/hex"
	"encoding/json"
)

// Script opcodes used by the standard output templates.
const (
	OpDup         = 0x76
	OpEqual       = 0x87
	OpEqualVerify = 0x88
	OpHash160     = 0xa9
	OpCheckSig    = 0xac
)

// P2PKHScriptLen is the length of a pay-to-public-key-hash script.
const P2PKHScriptLen = 25

// ScriptType identifies the template a locking script follows.
type ScriptType uint8

const (
	ScriptTypeNonStandard ScriptType = iota
	ScriptTypeP2PKH                  // Pay to public key hash
	ScriptTypeP2PK                   // Pay to public key
	ScriptTypeP2SH                   // Pay to script hash
)

// String returns a human-readable name for the script type.
func (st ScriptType) String() string {
	switch st {
	case ScriptTypeP2PKH:
		return "P2PKH"
	case ScriptTypeP2PK:
		return "P2PK"
	case ScriptTypeP2SH:
		return "P2SH"
	default:
		return "NonStandard"
	}
}

// Script is a raw Bitcoin script: an unlocking script on inputs and a
// locking script on outputs.
type Script []byte

// P2PKHScript returns OP_DUP OP_HASH160 <hash> OP_EQUALVERIFY OP_CHECKSIG.
func P2PKHScript(pubKeyHash Address) Script {
	s := make(Script, 0, P2PKHScriptLen)
	s = append(s, OpDup, OpHash160, AddressSize)
	s = append(s, pubKeyHash[:]...)
	return append(s, OpEqualVerify, OpCheckSig)
}

// Type classifies the script against the standard output templates.
func (s Script) Type() ScriptType {
	switch {
	case s.isP2PKH():
		return ScriptTypeP2PKH
	case s.isP2PK():
		return ScriptTypeP2PK
	case len(s) == 23 && s[0] == OpHash160 && s[1] == AddressSize && s[22] == OpEqual:
		return ScriptTypeP2SH
	default:
		return ScriptTypeNonStandard
	}
}

func (s Script) isP2PKH() bool {
	return len(s) == P2PKHScriptLen &&
		s[0] == OpDup && s[1] == OpHash160 && s[2] == AddressSize &&
		s[23] == OpEqualVerify && s[24] == OpCheckSig
}

func (s Script) isP2PK() bool {
	switch len(s) {
	case 35:
		return s[0] == 33 && s[34] == OpCheckSig
	case 67:
		return s[0] == 65 && s[66] == OpCheckSig
	}
	return false
}

// PubKeyHash returns the 20-byte hash locked by a P2PKH script.
func (s Script) PubKeyHash() (Address, bool) {
	var a Address
	if !s.isP2PKH() {
		return a, false
	}
	copy(a[:], s[3:23])
	return a, true
}

// PubKey returns the public key locked by a P2PK script.
func (s Script) PubKey() ([]byte, bool) {
	if !s.isP2PK() {
		return nil, false
	}
	return append([]byte(nil), s[1:len(s)-1]...), true
}

// Clone returns a copy of the script that shares no memory with s.
func (s Script) Clone() Script {
	if s == nil {
		return nil
	}
	return append(Script(nil), s...)
}

// String returns the hex-encoded script.
func (s Script) String() string {
	return hex.EncodeToString(s)
}

// MarshalJSON encodes the script as a hex string.
func (s Script) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(s))
}

// UnmarshalJSON decodes a hex string into a script.
func (s *Script) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	b, err := hex.DecodeString(str)
	if err != nil {
		return err
	}
	*s = b
	return nil
}
