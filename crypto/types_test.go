package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	data := []byte("escrow message payload")
	sig, err := Sign(priv, data)
	require.NoError(t, err)

	assert.True(t, sig.Verify(pub, data))
	assert.False(t, sig.Verify(pub, []byte("different payload")))

	otherPub, _, err := GenerateKeyPair()
	require.NoError(t, err)
	assert.False(t, sig.Verify(otherPub, data))
}

func TestSignInvalidKeySize(t *testing.T) {
	_, err := Sign(PrivateKey([]byte("short")), []byte("data"))
	require.Error(t, err)
}

func TestVerifyInvalidKeySize(t *testing.T) {
	_, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	sig, err := Sign(priv, []byte("data"))
	require.NoError(t, err)

	assert.False(t, sig.Verify(PublicKey([]byte("short")), []byte("data")))
}

func TestPublicKeyEqual(t *testing.T) {
	pub, _, err := GenerateKeyPair()
	require.NoError(t, err)

	other, _, err := GenerateKeyPair()
	require.NoError(t, err)

	assert.True(t, pub.Equal(NewPublicKeyFromBytes(pub)))
	assert.False(t, pub.Equal(other))
	assert.False(t, pub.Equal(pub[:16]))
}

func TestPublicKeyHexRoundtrip(t *testing.T) {
	pub, _, err := GenerateKeyPair()
	require.NoError(t, err)

	decoded, err := NewPublicKeyFromString(pub.String())
	require.NoError(t, err)
	assert.True(t, pub.Equal(decoded))
}

func TestPrivateKeyPublicKey(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	derived, err := priv.PublicKey()
	require.NoError(t, err)
	assert.True(t, pub.Equal(derived))

	_, err = PrivateKey([]byte("short")).PublicKey()
	require.Error(t, err)
}

func TestPublicKeyToAccountID(t *testing.T) {
	pub, _, err := GenerateKeyPair()
	require.NoError(t, err)

	id := PublicKeyToAccountID(pub)
	assert.Equal(t, id, PublicKeyToAccountID(pub), "derivation must be deterministic")

	other, _, err := GenerateKeyPair()
	require.NoError(t, err)
	assert.NotEqual(t, id, PublicKeyToAccountID(other))

	// The account ID must not leak the raw key bytes.
	assert.NotEqual(t, pub.Bytes(), id[:])
}

func TestAccountIDTextRoundtrip(t *testing.T) {
	pub, _, err := GenerateKeyPair()
	require.NoError(t, err)
	id := PublicKeyToAccountID(pub)

	text, err := id.MarshalText()
	require.NoError(t, err)

	var decoded AccountID
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, id, decoded)

	require.Error(t, decoded.UnmarshalText([]byte("deadbeef")))
	require.Error(t, decoded.UnmarshalText([]byte("not hex")))
}
