package fingerprint

import (
	"bytes"
	"context"
	"encoding/hex"
	"math/rand"
	"testing"

	blake2b "github.com/minio/blake2b-simd"
	"github.com/stretchr/testify/require"
)

func testPayload(t testing.TB, size int) []byte {
	t.Helper()
	rnd := rand.New(rand.NewSource(42))
	b := make([]byte, size)
	_, err := rnd.Read(b)
	require.NoError(t, err)
	return b
}

func TestFingerprintMatchesReference(t *testing.T) {
	data := testPayload(t, 1<<20)
	expected := blake2b.Sum512(data)

	key, size, err := New().Process(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, uint64(len(data)), size)
	require.Equal(t, hex.EncodeToString(expected[:]), key.String())
}

func TestFingerprintChunkingInvariance(t *testing.T) {
	data := testPayload(t, 3<<20+17)

	var keys []Key
	for _, chunk := range []int64{1 << 10, 64 << 10, 1 << 20, DefaultChunkSize} {
		key, size, err := New(ChunkSize(chunk)).Process(context.Background(), bytes.NewReader(data))
		require.NoError(t, err)
		require.Equal(t, uint64(len(data)), size)
		keys = append(keys, key)
	}
	for _, key := range keys[1:] {
		require.Equal(t, keys[0], key)
	}
}

func TestFingerprintEmptyStream(t *testing.T) {
	key, size, err := New().Process(context.Background(), bytes.NewReader(nil))
	require.NoError(t, err)
	require.EqualValues(t, 0, size)

	expected := blake2b.Sum512(nil)
	require.Equal(t, hex.EncodeToString(expected[:]), key.String())
}

func TestFingerprintCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New(ChunkSize(1024)).Process(ctx, bytes.NewReader(testPayload(t, 64<<10)))
	require.ErrorIs(t, err, context.Canceled)
}

func TestKeyRoundTrip(t *testing.T) {
	data := testPayload(t, 2048)
	key, _, err := New().Process(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)

	parsed, err := KeyFromString(key.String())
	require.NoError(t, err)
	require.Equal(t, key, parsed)

	_, err = KeyFromString("abcdef")
	require.Error(t, err)

	_, err = NewKey([]byte("short"))
	require.Error(t, err)
	var bad *BadKeySize
	require.ErrorAs(t, err, &bad)
}
