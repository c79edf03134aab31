package signer

import (
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ickb/orderbot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Dev chain genesis account.
const devKey = "0xd00c06bfd800d27397002dca6fb0993d5ba6399b4238b2f29ee9deb97593d2bc"

func TestHash_Empty(t *testing.T) {
	sum := Hash(nil)
	assert.Equal(t, "44f4c69744d5f8c55d642062949dcae49bc4e7ef43d388c5a12f42b5633d163e", hex.EncodeToString(sum[:]))
}

func TestHash_MultiBlock(t *testing.T) {
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i)
	}

	first := Hash(data)
	second := Hash(data)
	shorter := Hash(data[:299])

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, shorter)
}

func TestNew_DerivesLockArgs(t *testing.T) {
	s, err := New(devKey, Secp256k1Blake160CodeHash, types.HashTypeType)
	require.NoError(t, err)

	lock := s.Lock()
	assert.Equal(t, "0xc8328aabcd9b9e8e64fbc566c4385c3bdeb219d7", hexutil.Encode(lock.Args))
	assert.Equal(t, Secp256k1Blake160CodeHash, lock.CodeHash)
	assert.Equal(t, types.HashTypeType, lock.HashType)
}

func TestNew_InvalidKey(t *testing.T) {
	_, err := New("0xnothex", Secp256k1Blake160CodeHash, types.HashTypeType)
	assert.Error(t, err)
}

func TestSign(t *testing.T) {
	s, err := New(devKey, Secp256k1Blake160CodeHash, types.HashTypeType)
	require.NoError(t, err)

	msg := common.HexToHash("0x01020304")
	tx := &types.TxSkeleton{
		Inputs:         []types.Cell{{OutPoint: types.OutPoint{TxHash: common.Hash{5}, Index: 1}}},
		Witnesses:      []hexutil.Bytes{WitnessArgs(make([]byte, 65)), {}},
		SigningMessage: msg,
		SigningWitness: 0,
	}

	signed, err := s.Sign(tx)
	require.NoError(t, err)

	require.Len(t, signed.Inputs, 1)
	assert.Equal(t, tx.Inputs[0].OutPoint, signed.Inputs[0].PreviousOutput)
	require.Len(t, signed.Witnesses, 2)

	witness := signed.Witnesses[0]
	require.Len(t, witness, 85)
	sig := witness[20:]

	pub, err := crypto.SigToPub(msg[:], sig)
	require.NoError(t, err)
	assert.Equal(t, s.Lock().Args, hexutil.Bytes(Blake160(crypto.CompressPubkey(pub))))

	// the skeleton itself is left untouched
	assert.Equal(t, make([]byte, 65), []byte(tx.Witnesses[0][20:]))
}

func TestSign_Errors(t *testing.T) {
	s, err := New(devKey, Secp256k1Blake160CodeHash, types.HashTypeType)
	require.NoError(t, err)

	_, err = s.Sign(&types.TxSkeleton{Witnesses: []hexutil.Bytes{{}}})
	assert.ErrorContains(t, err, "signing message")

	_, err = s.Sign(&types.TxSkeleton{SigningMessage: common.Hash{1}, SigningWitness: 3})
	assert.ErrorContains(t, err, "out of range")
}

func TestWitnessArgs_Layout(t *testing.T) {
	w := WitnessArgs(make([]byte, 65))

	assert.Len(t, w, 85)
	assert.Equal(t, uint32(85), binary.LittleEndian.Uint32(w[0:]))
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(w[4:]))
	assert.Equal(t, uint32(85), binary.LittleEndian.Uint32(w[8:]))
	assert.Equal(t, uint32(85), binary.LittleEndian.Uint32(w[12:]))
	assert.Equal(t, uint32(65), binary.LittleEndian.Uint32(w[16:]))
}

func TestBlake160_IsHashPrefix(t *testing.T) {
	pub := []byte{0x02, 0x01, 0x02, 0x03}
	sum := Hash(pub)

	assert.Equal(t, sum[:20], Blake160(pub))
	assert.Equal(t, "44f4c69744d5f8c55d642062949dcae49bc4e7ef", hex.EncodeToString(Blake160(nil)))
}

func TestWitnessArgs_EmptyLock(t *testing.T) {
	w := WitnessArgs(nil)

	// header only, the lock field encodes as an absent option
	assert.Len(t, w, 16)
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(w[0:]))
}
