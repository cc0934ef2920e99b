package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/shopfloor/internal/domain/operators"
)

func TestParseApproveArgs(t *testing.T) {
	tg, op, err := parseApproveArgs(" 12345  77 ")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), tg)
	assert.Equal(t, int64(77), op)

	for _, args := range []string{"", "12345", "a 1", "1 b", "1 0", "-1 5", "1 2 3"} {
		_, _, err := parseApproveArgs(args)
		assert.Error(t, err, args)
	}
}

func TestPendingLine(t *testing.T) {
	assert.Equal(t, "Иванов И.И. (tg 10, @ivanov)",
		pendingLine(operators.Operator{FullName: "Иванов И.И.", TelegramID: 10, Username: "ivanov"}))
	assert.Equal(t, "Петров (tg 11)", pendingLine(operators.Operator{FullName: "Петров", TelegramID: 11}))
}
