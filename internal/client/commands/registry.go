package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"chessrules/internal/client/api"
	"chessrules/internal/client/display"
)

// Session is the client state the commands read and update
type Session interface {
	GetAPIBaseURL() string
	SetAPIBaseURL(string)
	GetClient() *api.Client
	IsVerbose() bool

	GetCurrentGame() string
	SetCurrentGame(string)
	GetLastMoveCount() int
	GetGameState() *api.GameResponse
	SetGameState(*api.GameResponse)
	GetPlayerColor() string

	GetAuthToken() string
	GetUserID() string
	GetUsername() string
	SetAuth(token, userID, username string)
}

// Command defines a client command with its handler
type Command struct {
	Name        string
	ShortName   string
	Group       string
	Description string
	Usage       string
	Handler     func(Session, []string) error
}

// Registry manages command registration and execution
type Registry struct {
	session  Session
	commands map[string]*Command
	order    []*Command
}

func NewRegistry(session Session) *Registry {
	r := &Registry{
		session:  session,
		commands: make(map[string]*Command),
	}

	r.registerGameCommands()
	r.registerAuthCommands()
	r.registerDebugCommands()

	r.Register(&Command{
		Name:        "help",
		ShortName:   "?",
		Group:       groupUtil,
		Description: "Show available commands",
		Usage:       "help [command]",
		Handler:     r.helpHandler,
	})
	r.Register(&Command{
		Name:        "exit",
		ShortName:   "x",
		Group:       groupUtil,
		Description: "Exit the client",
		Usage:       "exit",
		Handler:     exitHandler,
	})

	return r
}

const (
	groupGame = "Game Commands"
	groupAuth = "Auth Commands"
	groupUtil = "Utility Commands"
)

func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	if cmd.ShortName != "" {
		r.commands[cmd.ShortName] = cmd
	}
	r.order = append(r.order, cmd)
}

// Lookup finds a command by name or short name
func (r *Registry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

func (r *Registry) Execute(input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	cmd, exists := r.commands[parts[0]]
	if !exists {
		fmt.Println(display.Error("Unknown command: " + parts[0]))
		fmt.Println("Type 'help' for available commands")
		return
	}

	r.session.GetClient().SetVerbose(r.session.IsVerbose())

	if err := cmd.Handler(r.session, parts[1:]); err != nil {
		fmt.Println(display.Error("Error: " + err.Error()))
	}
}

func (r *Registry) helpHandler(s Session, args []string) error {
	if len(args) > 0 {
		cmd, exists := r.commands[args[0]]
		if !exists {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Printf("\n%s - %s\n", display.Info(cmd.Name), cmd.Description)
		if cmd.ShortName != "" {
			fmt.Printf("Short form: %s\n", display.Info(cmd.ShortName))
		}
		fmt.Printf("Usage: %s\n", cmd.Usage)
		return nil
	}

	fmt.Printf("\n%s\n\n", display.Info("Available Commands:"))

	groups := make(map[string][]*Command)
	for _, cmd := range r.order {
		groups[cmd.Group] = append(groups[cmd.Group], cmd)
	}
	names := make([]string, 0, len(groups))
	for g := range groups {
		names = append(names, g)
	}
	sort.Strings(names)

	for _, g := range names {
		fmt.Println(display.Warn(g + ":"))
		for _, cmd := range groups[g] {
			short := "    "
			if cmd.ShortName != "" {
				short = fmt.Sprintf("[%s] ", display.Info(cmd.ShortName))
			}
			fmt.Printf("  %s%-10s %s\n", short, cmd.Name, cmd.Description)
		}
		fmt.Println()
	}

	fmt.Println("Type 'help <command>' for detailed usage")
	fmt.Println("Add '-v' to any command for verbose output")
	return nil
}

func exitHandler(s Session, args []string) error {
	fmt.Println(display.Info("Goodbye!"))
	os.Exit(0)
	return nil
}
