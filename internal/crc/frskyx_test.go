package crc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrSkyXInnerKnownVectors(t *testing.T) {
	require.Equal(t, uint16(0x0000), FrSkyXInner(nil))
	require.Equal(t, frskyxTable[0x42], FrSkyXInner([]byte{0x42}))
}

func TestFrSkyXInnerDeterministic(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	require.Equal(t, FrSkyXInner(data), FrSkyXInner(data))
}
