package keyboard_test

import (
	"testing"

	"github.com/Proton-105/calc-bot/internal/bot/keyboard"
	"github.com/Proton-105/calc-bot/internal/testutil"
)

func TestMainMenu(t *testing.T) {
	translator := &mockTranslator{
		translations: map[string]string{
			"main_menu.calculator":    "Calculadora",
			"main_menu.history":       "Historial",
			"main_menu.clear_history": "Borrar historial",
			"main_menu.help":          "Ayuda",
		},
	}

	markup := keyboard.MainMenu(translator)

	if !markup.ResizeKeyboard {
		t.Fatalf("expected ResizeKeyboard to be true")
	}

	expectedRows := [][]string{
		{"Calculadora", "Historial"},
		{"Borrar historial", "Ayuda"},
	}

	testutil.AssertEqual(t, len(expectedRows), len(markup.ReplyKeyboard))

	for i, row := range expectedRows {
		testutil.AssertEqual(t, len(row), len(markup.ReplyKeyboard[i]))
		for j, text := range row {
			testutil.AssertEqual(t, text, markup.ReplyKeyboard[i][j].Text)
		}
	}
}

func TestMainMenu_NilTranslator(t *testing.T) {
	markup := keyboard.MainMenu(nil)

	testutil.AssertEqual(t, keyboard.MenuCalculator, markup.ReplyKeyboard[0][0].Text)
	testutil.AssertEqual(t, keyboard.MenuHelp, markup.ReplyKeyboard[1][1].Text)
}
