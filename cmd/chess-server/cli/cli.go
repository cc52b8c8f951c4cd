// Package cli implements the "db" maintenance subcommands of chess-server.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"chessrules/internal/rules"
	"chessrules/internal/server/storage"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"
	"golang.org/x/term"
)

// Run is the entry point for the CLI mini-app
func Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, query, replay, user")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:])
	case "delete":
		return runDelete(args[1:])
	case "query":
		return runQuery(args[1:])
	case "replay":
		return runReplay(args[1:])
	case "user":
		if len(args) < 2 {
			return fmt.Errorf("user subcommand required: add, delete, promote, list")
		}
		return runUser(args[1], args[2:])
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

// openStore parses the shared -path flag and opens the database
func openStore(fs *flag.FlagSet, args []string) (*storage.Store, error) {
	path := fs.String("path", "", "Database file path (required)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *path == "" {
		return nil, fmt.Errorf("database path required")
	}
	store, err := storage.NewStore(*path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func runInit(args []string) error {
	store, err := openStore(flag.NewFlagSet("init", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	fmt.Println("Database initialized")
	return nil
}

func runDelete(args []string) error {
	store, err := openStore(flag.NewFlagSet("delete", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}
	fmt.Println("Database deleted")
	return nil
}

func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	gameID := fs.String("gameId", "", "Game ID to filter (optional, * for all)")
	userID := fs.String("userId", "", "User ID to filter (optional, * for all)")
	showMoves := fs.Bool("moves", false, "List the moves of each game")

	store, err := openStore(fs, args)
	if err != nil {
		return err
	}
	defer store.Close()

	games, err := store.QueryGames(*gameID, *userID)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if len(games) == 0 {
		fmt.Println("No games found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Game ID\tWhite User\tBlack User\tStarted\tResult")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, g := range games {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			g.GameID,
			orNone(g.WhiteUserID),
			orNone(g.BlackUserID),
			g.StartTimeUTC.Format("2006-01-02 15:04:05"),
			orDefault(g.Result, "ongoing"),
		)
	}
	w.Flush()

	if *showMoves {
		for _, g := range games {
			moves, err := store.QueryMoves(g.GameID)
			if err != nil {
				return fmt.Errorf("query moves for %s: %w", g.GameID, err)
			}
			fmt.Printf("\n%s (%d moves)\n", g.GameID, len(moves))
			for _, m := range moves {
				fmt.Printf("  %3d %s %s\n", m.MoveNumber, m.PlayerColor, recordMove(m))
			}
		}
	}

	fmt.Printf("\nFound %d game(s)\n", len(games))
	return nil
}

// runReplay re-plays a stored game through the rules engine and prints the
// resulting position.
func runReplay(args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	gameID := fs.String("gameId", "", "Game ID to replay (required)")

	store, err := openStore(fs, args)
	if err != nil {
		return err
	}
	defer store.Close()

	if *gameID == "" {
		return fmt.Errorf("game ID required")
	}

	moves, err := store.QueryMoves(*gameID)
	if err != nil {
		return fmt.Errorf("query moves: %w", err)
	}

	pos := rules.New()
	for _, rec := range moves {
		m := recordMove(rec)
		if !pos.IsLegal(m.FromX, m.FromY, m.ToX, m.ToY) {
			return fmt.Errorf("stored move %d (%s) is illegal in the replayed position", rec.MoveNumber, m)
		}
		pos.ApplyMove(m)
	}

	fmt.Print(pos.String())
	fmt.Printf("\n%d moves, %s to move", len(moves), pos.SideToMove())
	switch {
	case pos.IsCheckmate():
		fmt.Print(", checkmate")
	case pos.IsStalemate():
		fmt.Print(", stalemate")
	case pos.InCheck():
		fmt.Print(", in check")
	}
	fmt.Println()
	return nil
}

func recordMove(r storage.MoveRecord) rules.Move {
	m := rules.NewMove(r.FromX, r.FromY, r.ToX, r.ToY)
	if r.Promotion != "" {
		m.Promotion, _ = rules.KindFromSymbol(r.Promotion[0])
	}
	return m
}

func runUser(subcommand string, args []string) error {
	switch subcommand {
	case "add":
		return runUserAdd(args)
	case "delete":
		return runUserDelete(args)
	case "promote":
		return runUserPromote(args)
	case "list":
		return runUserList(args)
	default:
		return fmt.Errorf("unknown user subcommand: %s", subcommand)
	}
}

func runUserAdd(args []string) error {
	fs := flag.NewFlagSet("user add", flag.ContinueOnError)
	username := fs.String("username", "", "Username (required)")
	email := fs.String("email", "", "Email address (optional)")
	password := fs.String("password", "", "Password (prompted if omitted)")
	temp := fs.Bool("temp", false, "Create as temporary user (24h TTL, default: permanent)")

	store, err := openStore(fs, args)
	if err != nil {
		return err
	}
	defer store.Close()

	if *username == "" {
		return fmt.Errorf("username required")
	}

	plain := *password
	if plain == "" {
		fmt.Print("Enter password: ")
		pw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		plain = string(pw)
	}
	if len(plain) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	passwordHash, err := auth.HashPassword(plain)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	var userID string
	for attempts := 0; ; attempts++ {
		if attempts == 10 {
			return fmt.Errorf("failed to generate unique user ID after 10 attempts")
		}
		userID = uuid.New().String()
		_, err := store.GetUserByID(userID)
		if errors.Is(err, storage.ErrUserNotFound) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to check user ID: %w", err)
		}
	}

	record := storage.UserRecord{
		UserID:       userID,
		Username:     strings.ToLower(*username),
		Email:        strings.ToLower(*email),
		PasswordHash: passwordHash,
		AccountType:  storage.AccountPermanent,
		CreatedAt:    time.Now().UTC(),
	}
	if *temp {
		record.AccountType = storage.AccountTemp
		expiry := record.CreatedAt.Add(24 * time.Hour)
		record.ExpiresAt = &expiry
	}

	if err := store.CreateUser(record); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("User created: %s (%s, %s)\n", record.Username, userID, record.AccountType)
	return nil
}

// lookupUser resolves -username or -id to a user ID
func lookupUser(store *storage.Store, username, userID string) (string, error) {
	switch {
	case username == "" && userID == "":
		return "", fmt.Errorf("either -username or -id required")
	case username != "" && userID != "":
		return "", fmt.Errorf("specify either -username or -id, not both")
	case userID != "":
		return userID, nil
	}
	user, err := store.GetUserByUsername(strings.ToLower(username))
	if err != nil {
		return "", fmt.Errorf("user not found: %s", username)
	}
	return user.UserID, nil
}

func runUserDelete(args []string) error {
	fs := flag.NewFlagSet("user delete", flag.ContinueOnError)
	username := fs.String("username", "", "Username to delete")
	userID := fs.String("id", "", "User ID to delete")

	store, err := openStore(fs, args)
	if err != nil {
		return err
	}
	defer store.Close()

	targetID, err := lookupUser(store, *username, *userID)
	if err != nil {
		return err
	}
	// Queued; Close drains the writer before returning
	if err := store.DeleteUser(targetID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	fmt.Printf("User deleted: %s\n", targetID)
	return nil
}

func runUserPromote(args []string) error {
	fs := flag.NewFlagSet("user promote", flag.ContinueOnError)
	username := fs.String("username", "", "Username to promote")
	userID := fs.String("id", "", "User ID to promote")

	store, err := openStore(fs, args)
	if err != nil {
		return err
	}
	defer store.Close()

	targetID, err := lookupUser(store, *username, *userID)
	if err != nil {
		return err
	}
	if err := store.PromoteToPermanent(targetID); err != nil {
		return fmt.Errorf("failed to promote user: %w", err)
	}

	fmt.Printf("User promoted to permanent: %s\n", targetID)
	return nil
}

func runUserList(args []string) error {
	store, err := openStore(flag.NewFlagSet("user list", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	defer store.Close()

	users, err := store.ListUsers()
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		fmt.Println("No users found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "User ID\tUsername\tType\tEmail\tCreated\tExpires\tLast Login\tGames\tW/L/D")
	fmt.Fprintln(w, strings.Repeat("-", 140))
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d/%d/%d\n",
			u.UserID,
			u.Username,
			u.AccountType,
			orNone(u.Email),
			u.CreatedAt.Format("2006-01-02 15:04"),
			formatTime(u.ExpiresAt, "never"),
			formatTime(u.LastLoginAt, "never"),
			u.Stats.Played,
			u.Stats.Won, u.Stats.Lost, u.Stats.Drawn,
		)
	}
	w.Flush()

	fmt.Printf("\nTotal users: %d\n", len(users))
	return nil
}

func formatTime(t *time.Time, none string) string {
	if t == nil {
		return none
	}
	return t.Format("2006-01-02 15:04")
}

func orNone(s string) string { return orDefault(s, "(none)") }

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
