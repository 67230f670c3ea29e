package obs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitQueryName(t *testing.T) {
	name, stmt := splitQueryName("-- name: RedeemCoupon :execrows\nUPDATE coupons SET used_count = used_count + 1")
	require.Equal(t, "RedeemCoupon", name)
	require.True(t, strings.HasPrefix(stmt, "UPDATE coupons"))

	name, stmt = splitQueryName("  SELECT 1 ")
	require.Empty(t, name)
	require.Equal(t, "SELECT 1", stmt)
}

func TestTruncateSQL(t *testing.T) {
	long := strings.Repeat("x", maxStatementLen+10)
	require.Len(t, truncateSQL(long), maxStatementLen+3)
}
