package bot

// Command constants for Telegram bot commands.
const (
	CommandStart        = "/start"
	CommandReset        = "/reset"
	CommandCancel       = "/cancel"
	CommandHistory      = "/history"
	CommandClearHistory = "/clearhistory"
	CommandHelp         = "/help"
)

// commandDescriptions is the command list published to Telegram.
var commandDescriptions = []struct {
	Command     string
	Description string
}{
	{CommandStart, "Mostrar la calculadora"},
	{CommandReset, "Reiniciar la calculadora"},
	{CommandHistory, "Ver el historial"},
	{CommandClearHistory, "Borrar el historial"},
	{CommandHelp, "Ayuda"},
}
