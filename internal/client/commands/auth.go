package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"chessrules/internal/client/display"

	"golang.org/x/term"
)

func (r *Registry) registerAuthCommands() {
	for _, cmd := range []*Command{
		{Name: "register", ShortName: "r", Description: "Register a new (temporary) user", Usage: "register", Handler: registerHandler},
		{Name: "login", ShortName: "l", Description: "Login with credentials", Usage: "login", Handler: loginHandler},
		{Name: "logout", ShortName: "o", Description: "End the session and clear authentication", Usage: "logout", Handler: logoutHandler},
		{Name: "whoami", ShortName: "i", Description: "Show current user", Usage: "whoami", Handler: whoamiHandler},
	} {
		cmd.Group = groupAuth
		r.Register(cmd)
	}
}

var stdin = bufio.NewScanner(os.Stdin)

func readLine(prompt string) string {
	fmt.Print(display.Warn(prompt))
	stdin.Scan()
	return strings.TrimSpace(stdin.Text())
}

func readPassword(prompt string) (string, error) {
	fmt.Print(display.Warn(prompt))
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func registerHandler(s Session, args []string) error {
	username := readLine("Username: ")
	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}
	email := readLine("Email (optional): ")

	resp, err := s.GetClient().Register(username, password, email)
	if err != nil {
		return err
	}

	s.SetAuth(resp.Token, resp.UserID, resp.Username)
	fmt.Println(display.Success("Registered successfully"))
	fmt.Printf("User ID: %s\nUsername: %s\n", resp.UserID, display.User(resp.Username))
	return nil
}

func loginHandler(s Session, args []string) error {
	identifier := readLine("Username or Email: ")
	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	resp, err := s.GetClient().Login(identifier, password)
	if err != nil {
		return err
	}

	s.SetAuth(resp.Token, resp.UserID, resp.Username)
	fmt.Println(display.Success("Logged in successfully"))
	fmt.Printf("User ID: %s\nUsername: %s\n", resp.UserID, display.User(resp.Username))
	return nil
}

func logoutHandler(s Session, args []string) error {
	if s.GetAuthToken() != "" {
		if err := s.GetClient().Logout(); err != nil {
			fmt.Println(display.Warn("Server logout failed, clearing local credentials"))
		}
	}
	s.SetAuth("", "", "")
	fmt.Println(display.Success("Logged out"))
	return nil
}

func whoamiHandler(s Session, args []string) error {
	if s.GetAuthToken() == "" {
		fmt.Println(display.Warn("Not authenticated"))
		return nil
	}

	user, err := s.GetClient().GetCurrentUser()
	if err != nil {
		return err
	}

	fmt.Println(display.Info("Current User:"))
	fmt.Printf("  User ID:  %s\n", user.UserID)
	fmt.Printf("  Username: %s\n", display.User(user.Username))
	if user.Email != "" {
		fmt.Printf("  Email:    %s\n", user.Email)
	}
	fmt.Printf("  Account:  %s\n", user.AccountType)
	fmt.Printf("  Created:  %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))
	if user.ExpiresAt != nil {
		fmt.Printf("  Expires:  %s\n", user.ExpiresAt.Format("2006-01-02 15:04:05"))
	}
	if g := user.Games; g != nil {
		fmt.Printf("  Games:    %d played, %d won, %d lost, %d drawn, %d ongoing\n",
			g.Played, g.Won, g.Lost, g.Drawn, g.Ongoing)
	}
	return nil
}
