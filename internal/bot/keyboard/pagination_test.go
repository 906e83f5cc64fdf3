package keyboard_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Proton-105/calc-bot/internal/bot/keyboard"
	"github.com/Proton-105/calc-bot/internal/testutil"
)

type mockTranslator struct {
	translations map[string]string
}

func (m *mockTranslator) T(key string) string {
	if val, ok := m.translations[key]; ok {
		return val
	}
	return key
}

func (m *mockTranslator) Tf(key string, data map[string]any) string {
	text := m.T(key)
	for name, value := range data {
		text = strings.ReplaceAll(text, "{{."+name+"}}", fmt.Sprint(value))
	}
	return text
}

func (m *mockTranslator) Lang() string {
	return "es"
}

func newTranslator() *mockTranslator {
	return &mockTranslator{
		translations: map[string]string{
			"pagination.prev": "◀️ Anterior",
			"pagination.next": "Siguiente ▶️",
			"pagination.page": "Página {{.Page}}/{{.Total}}",
		},
	}
}

func TestPaginationButtons(t *testing.T) {
	translator := newTranslator()

	testCases := []struct {
		name      string
		page      int
		total     int
		wantTexts []string
		wantData  []string
	}{
		{
			name:      "first page",
			page:      1,
			total:     5,
			wantTexts: []string{"Página 1/5", "Siguiente ▶️"},
			wantData:  []string{"1", "2"},
		},
		{
			name:      "middle page",
			page:      3,
			total:     5,
			wantTexts: []string{"◀️ Anterior", "Página 3/5", "Siguiente ▶️"},
			wantData:  []string{"2", "3", "4"},
		},
		{
			name:      "last page",
			page:      5,
			total:     5,
			wantTexts: []string{"◀️ Anterior", "Página 5/5"},
			wantData:  []string{"4", "5"},
		},
		{
			name:      "single page",
			page:      1,
			total:     1,
			wantTexts: []string{"Página 1/1"},
			wantData:  []string{"1"},
		},
		{
			name:      "page beyond total is clamped",
			page:      9,
			total:     2,
			wantTexts: []string{"◀️ Anterior", "Página 2/2"},
			wantData:  []string{"1", "2"},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			buttons := keyboard.PaginationButtons(translator, "hist", tc.page, tc.total)
			testutil.AssertEqual(t, len(tc.wantTexts), len(buttons))

			for i := range tc.wantTexts {
				testutil.AssertEqual(t, tc.wantTexts[i], buttons[i].Text)
				testutil.AssertEqual(t, "hist", buttons[i].Unique)
				testutil.AssertEqual(t, tc.wantData[i], buttons[i].Data)
			}
		})
	}
}

func TestPaginationButtons_NilTranslator(t *testing.T) {
	buttons := keyboard.PaginationButtons(nil, "hist", 2, 3)

	testutil.AssertEqual(t, 3, len(buttons))
	testutil.AssertEqual(t, "◀️", buttons[0].Text)
	testutil.AssertEqual(t, "2/3", buttons[1].Text)
	testutil.AssertEqual(t, "▶️", buttons[2].Text)
}
