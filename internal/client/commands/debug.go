package commands

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"chessrules/internal/client/display"
)

func (r *Registry) registerDebugCommands() {
	for _, cmd := range []*Command{
		{Name: "health", ShortName: ".", Description: "Check server health", Usage: "health", Handler: healthHandler},
		{Name: "url", ShortName: "/", Description: "Show or set API base URL", Usage: "url [apiUrl]", Handler: urlHandler},
		{Name: "raw", ShortName: ":", Description: "Send raw API request", Usage: "raw <method> <path> [json-body]", Handler: rawRequestHandler},
		{Name: "clear", ShortName: "-", Description: "Clear screen", Usage: "clear", Handler: clearHandler},
	} {
		cmd.Group = groupUtil
		r.Register(cmd)
	}
}

func healthHandler(s Session, args []string) error {
	resp, err := s.GetClient().Health()
	if err != nil {
		return err
	}

	fmt.Println(display.Info("Server Health:"))
	fmt.Printf("  Status:  %s\n", resp.Status)
	fmt.Printf("  Time:    %s\n", time.Unix(resp.Time, 0).Format("2006-01-02 15:04:05"))
	fmt.Printf("  Games:   %d\n", resp.Games)
	if resp.Storage != "" {
		fmt.Printf("  Storage: %s\n", resp.Storage)
	}
	return nil
}

func urlHandler(s Session, args []string) error {
	if len(args) == 0 {
		fmt.Printf("Current API URL: %s\n", s.GetAPIBaseURL())
		return nil
	}

	u := args[0]
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "http://" + u
	}
	s.SetAPIBaseURL(u)

	fmt.Println(display.Info("API URL set to: " + u))
	return nil
}

func rawRequestHandler(s Session, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: raw <method> <path> [json-body]")
	}
	body := strings.Join(args[2:], " ")
	return s.GetClient().RawRequest(strings.ToUpper(args[0]), args[1], body)
}

func clearHandler(s Session, args []string) error {
	cmd := exec.Command("clear")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}
