package keyboard

import (
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/calc-bot/internal/calculator"
	"github.com/Proton-105/calc-bot/internal/i18n"
)

// Callback namespaces.
const (
	UniqueCalc    = "calc"
	UniqueHistory = "hist"
	UniqueRecall  = "recall"
)

// Keypad actions besides digits, operations, functions and memory actions.
const (
	ActionEquals = "equals"
	ActionClear  = "clear"
	ActionShow   = "show"
)

// HistoryPageSize is the number of history entries per page.
const HistoryPageSize = 5

type key struct {
	label  string
	action string
}

var keypadLayout = [][]key{
	{
		{"MC", string(calculator.MemoryClear)},
		{"MR", string(calculator.MemoryRecall)},
		{"M+", string(calculator.MemoryAdd)},
		{"M−", string(calculator.MemorySubtract)},
	},
	{
		{"sin", string(calculator.FuncSin)},
		{"cos", string(calculator.FuncCos)},
		{"tan", string(calculator.FuncTan)},
		{"log", string(calculator.FuncLog)},
	},
	{
		{"√", string(calculator.FuncSqrt)},
		{"x²", string(calculator.FuncPower)},
		{"%", string(calculator.FuncPercent)},
		{"1/x", string(calculator.FuncReciprocal)},
	},
	{{"7", "7"}, {"8", "8"}, {"9", "9"}, {"÷", string(calculator.OpDivide)}},
	{{"4", "4"}, {"5", "5"}, {"6", "6"}, {"×", string(calculator.OpMultiply)}},
	{{"1", "1"}, {"2", "2"}, {"3", "3"}, {"−", string(calculator.OpSubtract)}},
	{{"0", "0"}, {".", "."}, {"±", string(calculator.FuncNegate)}, {"+", string(calculator.OpAdd)}},
	{{"C", ActionClear}, {"=", ActionEquals}},
}

// Builder renders the calculator keyboards with localized labels.
type Builder struct {
	t i18n.Translator
}

// NewBuilder returns a new Builder instance.
func NewBuilder(t i18n.Translator) *Builder {
	return &Builder{t: t}
}

// Keypad builds the inline calculator keypad. Every button carries
// "calc:<action>" callback data.
func (b *Builder) Keypad() (*telebot.ReplyMarkup, error) {
	inline := NewInlineKeyboard()
	for _, row := range keypadLayout {
		buttons := make([]InlineButton, len(row))
		for i, k := range row {
			buttons[i] = InlineButton{Text: k.label, Unique: UniqueCalc, Data: k.action}
		}
		inline.AddRow(buttons...)
	}

	inline.AddRow(InlineButton{
		Text:   translated(b.t, "keypad.history", "📜 Historial"),
		Unique: UniqueHistory,
		Data:   "1",
	})

	return inline.Build()
}

// HistoryPage builds the recall buttons for one page of history followed by
// pagination and a button back to the keypad. page is 1-based and clamped.
func (b *Builder) HistoryPage(entries []calculator.HistoryEntry, page int) (*telebot.ReplyMarkup, error) {
	total := TotalPages(len(entries))
	page = clampPage(page, total)

	inline := NewInlineKeyboard()
	start, end := PageBounds(len(entries), page)
	for i := start; i < end; i++ {
		inline.AddRow(InlineButton{
			Text:   "↩ " + entries[i].String(),
			Unique: UniqueRecall,
			Data:   strconv.Itoa(i),
		})
	}

	if total > 1 {
		inline.AddRow(PaginationButtons(b.t, UniqueHistory, page, total)...)
	}

	inline.AddRow(InlineButton{
		Text:   translated(b.t, "keypad.back", "🧮 Teclado"),
		Unique: UniqueCalc,
		Data:   ActionShow,
	})

	return inline.Build()
}

// TotalPages returns the number of history pages for n entries, at least 1.
func TotalPages(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + HistoryPageSize - 1) / HistoryPageSize
}

// PageBounds returns the [start, end) entry indexes shown on page.
func PageBounds(n, page int) (int, int) {
	page = clampPage(page, TotalPages(n))
	start := (page - 1) * HistoryPageSize
	if start > n {
		start = n
	}
	end := start + HistoryPageSize
	if end > n {
		end = n
	}
	return start, end
}

func clampPage(page, total int) int {
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}
