package keyboard_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/calc-bot/internal/bot/keyboard"
	"github.com/Proton-105/calc-bot/internal/calculator"
)

func historyEntries(n int) []calculator.HistoryEntry {
	entries := make([]calculator.HistoryEntry, n)
	for i := range entries {
		entries[i] = calculator.HistoryEntry{
			Expression: strconv.Itoa(i) + " + 1",
			Result:     float64(i + 1),
		}
	}
	return entries
}

func TestBuilder_Keypad(t *testing.T) {
	builder := keyboard.NewBuilder(&mockTranslator{
		translations: map[string]string{"keypad.history": "Historial"},
	})

	markup, err := builder.Keypad()
	require.NoError(t, err)

	rows := markup.InlineKeyboard
	require.Len(t, rows, 9)

	data := make(map[string]string)
	for _, row := range rows {
		for _, btn := range row {
			data[btn.Text] = btn.Data
		}
	}

	assert.Equal(t, "calc:7", data["7"])
	assert.Equal(t, "calc:.", data["."])
	assert.Equal(t, "calc:add", data["+"])
	assert.Equal(t, "calc:divide", data["÷"])
	assert.Equal(t, "calc:sqrt", data["√"])
	assert.Equal(t, "calc:memory-add", data["M+"])
	assert.Equal(t, "calc:equals", data["="])
	assert.Equal(t, "calc:clear", data["C"])
	assert.Equal(t, "hist:1", data["Historial"])
}

func TestBuilder_HistoryPage(t *testing.T) {
	builder := keyboard.NewBuilder(nil)

	testCases := []struct {
		name        string
		entries     int
		page        int
		wantRecalls []string
		wantRows    int
	}{
		{
			name:        "empty history",
			entries:     0,
			page:        1,
			wantRecalls: nil,
			wantRows:    1,
		},
		{
			name:        "single page",
			entries:     3,
			page:        1,
			wantRecalls: []string{"recall:0", "recall:1", "recall:2"},
			wantRows:    4,
		},
		{
			name:        "second page",
			entries:     8,
			page:        2,
			wantRecalls: []string{"recall:5", "recall:6", "recall:7"},
			wantRows:    5,
		},
		{
			name:        "page clamped",
			entries:     7,
			page:        10,
			wantRecalls: []string{"recall:5", "recall:6"},
			wantRows:    4,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			markup, err := builder.HistoryPage(historyEntries(tc.entries), tc.page)
			require.NoError(t, err)
			require.Len(t, markup.InlineKeyboard, tc.wantRows)

			var recalls []string
			for _, row := range markup.InlineKeyboard {
				for _, btn := range row {
					if len(btn.Data) > 7 && btn.Data[:7] == "recall:" {
						recalls = append(recalls, btn.Data)
					}
				}
			}
			assert.Equal(t, tc.wantRecalls, recalls)

			last := markup.InlineKeyboard[len(markup.InlineKeyboard)-1]
			require.Len(t, last, 1)
			assert.Equal(t, "calc:show", last[0].Data)
		})
	}
}

func TestPageBounds(t *testing.T) {
	testCases := []struct {
		n, page    int
		start, end int
	}{
		{n: 0, page: 1, start: 0, end: 0},
		{n: 4, page: 1, start: 0, end: 4},
		{n: 10, page: 2, start: 5, end: 10},
		{n: 10, page: 0, start: 0, end: 5},
		{n: 6, page: 3, start: 5, end: 6},
	}

	for _, tc := range testCases {
		start, end := keyboard.PageBounds(tc.n, tc.page)
		assert.Equal(t, tc.start, start, "n=%d page=%d", tc.n, tc.page)
		assert.Equal(t, tc.end, end, "n=%d page=%d", tc.n, tc.page)
	}

	assert.Equal(t, 1, keyboard.TotalPages(0))
	assert.Equal(t, 2, keyboard.TotalPages(10))
	assert.Equal(t, 3, keyboard.TotalPages(11))
}
