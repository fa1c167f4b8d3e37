package polymarketffi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScaleFactorConvertsSixToEightDecimals(t *testing.T) {
	require.Equal(t, int64(100), int64(ScaleFactor))
}

func TestErrorMessageKnownCodes(t *testing.T) {
	require.Equal(t, "OK", ErrorMessage(OK))
	require.Equal(t, "order size below minimum ($1)", ErrorMessage(ErrMinOrderSize))
	require.Equal(t, "shares below market minimum (call prefetch first)", ErrorMessage(ErrMinShares))
	require.Contains(t, ErrorMessage(-99), "unknown error")
}
