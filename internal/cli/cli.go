// Package cli is the terminal view of the local hot-seat game: it reads
// commands, draws the board and asks for promotion choices.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"chessrules/internal/rules"
	"chessrules/internal/server/core"

	"github.com/fatih/color"
)

type CommandType int

const (
	CmdNone CommandType = iota
	CmdNew
	CmdMove
	CmdMoves
	CmdColor
	CmdVerbose
	CmdHistory
	CmdHelp
	CmdQuit
)

type Command struct {
	Type CommandType
	Args []string
	Raw  string
}

type ColorTheme string

const (
	ThemeOff   ColorTheme = "off"
	ThemeBrown ColorTheme = "brown"
	ThemeGreen ColorTheme = "green"
	ThemeGray  ColorTheme = "gray"
)

type themeColors struct {
	lightBg color.Attribute
	darkBg  color.Attribute
	markBg  color.Attribute
}

// Backgrounds are 256-color palette indices
var themes = map[ColorTheme]themeColors{
	ThemeOff:   {},
	ThemeBrown: {lightBg: 230, darkBg: 94, markBg: 143},
	ThemeGreen: {lightBg: 157, darkBg: 22, markBg: 185},
	ThemeGray:  {lightBg: 251, darkBg: 240, markBg: 110},
}

type CLI struct {
	input   *bufio.Scanner
	output  io.Writer
	theme   ColorTheme
	verbose bool
}

func New(input io.Reader, output io.Writer) *CLI {
	return &CLI{
		input:  bufio.NewScanner(input),
		output: output,
		theme:  ThemeOff,
	}
}

// Reads a command synchronously
func (c *CLI) GetCommand() (*Command, error) {
	if !c.input.Scan() {
		if err := c.input.Err(); err != nil {
			return nil, err
		}
		return &Command{Type: CmdQuit}, nil
	}

	input := strings.TrimSpace(c.input.Text())
	if input == "" {
		return &Command{Type: CmdNone}, nil
	}

	return ParseCommand(input), nil
}

func ParseCommand(input string) *Command {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return &Command{Type: CmdNone}
	}

	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "new":
		return &Command{Type: CmdNew, Args: args, Raw: input}
	case "moves":
		return &Command{Type: CmdMoves, Args: args, Raw: input}
	case "color":
		return &Command{Type: CmdColor, Args: args, Raw: input}
	case "verbose":
		return &Command{Type: CmdVerbose, Raw: input}
	case "history":
		return &Command{Type: CmdHistory, Raw: input}
	case "help", "?":
		return &Command{Type: CmdHelp, Raw: input}
	case "quit", "exit":
		return &Command{Type: CmdQuit, Raw: input}
	default:
		// Anything else is taken as coordinates
		return &Command{Type: CmdMove, Args: parts, Raw: input}
	}
}

func (c *CLI) SetTheme(theme ColorTheme) error {
	if _, ok := themes[theme]; !ok {
		return fmt.Errorf("invalid theme: %s (use: off, brown, green, gray)", theme)
	}
	c.theme = theme
	return nil
}

func (c *CLI) ToggleVerbose() bool {
	c.verbose = !c.verbose
	return c.verbose
}

func (c *CLI) IsVerbose() bool {
	return c.verbose
}

func (c *CLI) ShowMessage(msg string) {
	fmt.Fprintln(c.output, msg)
}

func (c *CLI) ShowError(err error) {
	c.ShowMessage(fmt.Sprintf("Error: %v", err))
}

func (c *CLI) ShowPrompt(prompt string) {
	fmt.Fprint(c.output, prompt)
}

func (c *CLI) ReadLine() string {
	if c.input.Scan() {
		return strings.TrimSpace(c.input.Text())
	}
	return ""
}

// DisplayBoard draws the diagram rows (y=0 first) and highlights marks.
func (c *CLI) DisplayBoard(rows [8]string, marks []rules.Square) {
	hot := make(map[rules.Square]bool, len(marks))
	for _, sq := range marks {
		hot[sq] = true
	}

	theme := themes[c.theme]
	var sb strings.Builder

	sb.WriteString("\n  0 1 2 3 4 5 6 7\n")
	for y := 0; y < 8; y++ {
		sb.WriteString(fmt.Sprintf("%d ", y))
		for x := 0; x < 8; x++ {
			sym := rows[y][x]
			marked := hot[rules.Square{X: x, Y: y}]

			if c.theme == ThemeOff {
				switch {
				case marked && sym == '.':
					sb.WriteString("* ")
				case marked:
					sb.WriteString(fmt.Sprintf("%c*", sym))
				default:
					sb.WriteString(fmt.Sprintf("%c ", sym))
				}
				continue
			}

			bg := theme.darkBg
			if (x+y)%2 == 0 {
				bg = theme.lightBg
			}
			if marked {
				bg = theme.markBg
			}
			attrs := []color.Attribute{48, 5, bg}
			switch {
			case sym == '.':
				sym = ' '
			case sym >= 'A' && sym <= 'Z':
				attrs = append(attrs, color.FgHiWhite, color.Bold)
			default:
				attrs = append(attrs, color.FgBlack, color.Bold)
			}
			sb.WriteString(color.New(attrs...).Sprintf("%c ", sym))
		}
		sb.WriteString(fmt.Sprintf(" %d\n", y))
	}
	sb.WriteString("  0 1 2 3 4 5 6 7\n")

	c.ShowMessage(sb.String())
}

// PromptPromotion asks which piece a pawn reaching (at) becomes. Anything
// other than r, b or n yields a queen.
func (c *CLI) PromptPromotion(side rules.Color, at rules.Square) rules.PieceKind {
	c.ShowPrompt(fmt.Sprintf("Promote %s pawn on %s to (q/r/b/n) [q]: ", SideName(side), at))
	line := c.ReadLine()
	if line == "" {
		return rules.Queen
	}
	if k, ok := rules.KindFromSymbol(line[0]); ok && k != rules.Pawn && k != rules.King {
		return k
	}
	return rules.Queen
}

func (c *CLI) ShowHelp() {
	help := `Commands:
  new                  - Start a new hot-seat game
  <fx> <fy> <tx> <ty> [q|r|b|n]
                       - Make a move by coordinates (or compact: 6444)
  moves <x> <y>        - Highlight the legal destinations of a piece
  color <theme>        - Set board color theme (off|brown|green|gray)
  verbose              - Toggle detailed move information
  history              - Show the moves played so far
  quit/exit            - Exit the program
  help/?               - Show this help message

Coordinates: x is the column 0-7, y is the row 0-7 (y=0 is Black's back rank).`

	c.ShowMessage(help)
}

func (c *CLI) ShowWelcome() {
	c.ShowMessage("Welcome to Chess!")
	c.ShowMessage("Commands: new, <fx> <fy> <tx> <ty>, moves <x> <y>, history, verbose, color, help/?, quit/exit")
	c.ShowMessage("Example: '4 6 4 4' advances White's king pawn two squares.")
	c.ShowMessage("")
}

func (c *CLI) ShowGameHistory(moves []rules.Move, state core.State) {
	for i := 0; i < len(moves); i += 2 {
		moveNum := i/2 + 1
		if i+1 < len(moves) {
			c.ShowMessage(fmt.Sprintf("%d. %s | %s", moveNum, moves[i], moves[i+1]))
		} else {
			c.ShowMessage(fmt.Sprintf("%d. %s | ...", moveNum, moves[i]))
		}
	}
	c.ShowMessage(fmt.Sprintf("Game state: %s", state))
}

func (c *CLI) ShowMove(side rules.Color, m rules.Move, inCheck bool) {
	if !c.verbose {
		if inCheck {
			c.ShowMessage("Check!")
		}
		return
	}
	msg := fmt.Sprintf("%s: %s", SideName(side), m)
	if inCheck {
		msg += " (check)"
	}
	c.ShowMessage(msg)
}

// SideName spells out a color for messages
func SideName(side rules.Color) string {
	if side == rules.White {
		return "White"
	}
	return "Black"
}

func (c *CLI) ShowGameOver(state core.State) {
	c.ShowMessage(fmt.Sprintf("\nGame Over: %s", state))
	c.ShowMessage("Start a new game with 'new'.")
}
