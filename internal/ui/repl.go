package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/themobileprof/voicepilot/internal/agent"
	"github.com/themobileprof/voicepilot/internal/dom"
)

var (
	speakColor     = color.New(color.FgCyan)
	highlightColor = color.New(color.FgYellow)
	actionColor    = color.New(color.FgGreen)
	dimColor       = color.New(color.Faint)
)

// ConsoleSynthesizer renders spoken responses as console lines, for
// running sessions without a browser on the other end.
type ConsoleSynthesizer struct{}

func (ConsoleSynthesizer) Speak(ctx context.Context, text string) error {
	speakColor.Printf("VoicePilot: %s\n", text)
	return nil
}

func (ConsoleSynthesizer) Cancel() {}

// REPL is the interactive console around one voice session
type REPL struct {
	machine *agent.Machine
	route   string
	html    string
	history []string
}

// NewREPL creates a new REPL around a session machine
func NewREPL(machine *agent.Machine) *REPL {
	return &REPL{
		machine: machine,
		route:   "/",
		history: []string{},
	}
}

// Start begins the interactive loop
func (repl *REPL) Start(ctx context.Context) error {
	fmt.Println("VoicePilot - voice assistant console")
	fmt.Println("Type 'help' for commands, 'exit' to quit; anything else is spoken input.")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")
		input, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		repl.history = append(repl.history, input)

		if err := repl.handleCommand(ctx, input); err != nil {
			if err.Error() == "exit" {
				fmt.Println("Goodbye!")
				return nil
			}
			fmt.Printf("Error: %v\n\n", err)
		}
	}
}

// handleCommand processes a single line of input
func (repl *REPL) handleCommand(ctx context.Context, input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	command := parts[0]
	args := parts[1:]

	switch command {
	case "help":
		return repl.showHelp()
	case "exit", "quit":
		return fmt.Errorf("exit")
	case "page":
		if len(args) == 0 {
			return fmt.Errorf("usage: page <file.html>")
		}
		return repl.loadPage(args[0])
	case "route":
		if len(args) == 0 {
			return fmt.Errorf("usage: route </path>")
		}
		return repl.setRoute(args[0])
	case "memory":
		return repl.showMemory()
	case "history":
		return repl.showHistory()
	case "complete":
		repl.machine.CompleteStep(ctx)
		return nil
	default:
		// Everything else is something the user said
		return repl.handleUtterance(ctx, input)
	}
}

// showHelp displays help information
func (repl *REPL) showHelp() error {
	fmt.Print(`
Available Commands:
  help               - Show this help message
  page <file.html>   - Load a page snapshot from disk
  route </path>      - Set the browser route for the loaded page
  memory             - Show the conversation memory
  history            - Show what you've said this session
  complete           - Mark the current onboarding step done
  exit, quit         - Leave the console

Anything else is treated as spoken input.

Examples:
  > page snapshots/login.html
  > route /login
  > what does this page say
  > find the join button
  > I want to create an account
  > stop

`)
	return nil
}

// handleUtterance runs one spoken turn through the machine
func (repl *REPL) handleUtterance(ctx context.Context, input string) error {
	turn, err := repl.machine.ProcessUserInput(ctx, input)
	if err != nil {
		if err == agent.ErrSpeaking {
			dimColor.Println("(still speaking, give it a moment)")
			return nil
		}
		return fmt.Errorf("could not process that: %w", err)
	}

	if turn.Match != nil && turn.Match.Found {
		highlightColor.Printf("Highlighted %s\n", turn.Match.Selector)
	}
	if turn.Action != nil {
		actionColor.Printf("Action: %s %s\n", turn.Action.Type, turn.Action.Target)
	}
	fmt.Println()
	return nil
}

// loadPage reads an HTML snapshot from disk and hands it to the machine
func (repl *REPL) loadPage(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read page: %w", err)
	}

	doc, err := dom.ParseString(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse page: %w", err)
	}
	doc.SetRoute(repl.route)

	repl.html = string(data)
	repl.machine.SetDocument(doc)

	title := doc.Title()
	if title == "" {
		title = "untitled"
	}
	dimColor.Printf("Loaded %s (%s) at %s\n\n", path, title, repl.route)
	return nil
}

// setRoute changes the route the loaded page is considered to be on.
// The document is reparsed so the machine sees the route change and
// drops its cached structure.
func (repl *REPL) setRoute(route string) error {
	repl.route = route
	if repl.html == "" {
		dimColor.Printf("Route set to %s (no page loaded yet)\n\n", route)
		return nil
	}

	doc, err := dom.ParseString(repl.html)
	if err != nil {
		return fmt.Errorf("failed to reparse page: %w", err)
	}
	doc.SetRoute(route)
	repl.machine.SetDocument(doc)

	dimColor.Printf("Route set to %s\n\n", route)
	return nil
}

// showMemory displays the session memory
func (repl *REPL) showMemory() error {
	memory := repl.machine.Memory()

	fmt.Println()
	fmt.Printf("• Current step: %s\n", memory.CurrentStep)
	if len(memory.OnboardingProgress) > 0 {
		steps := make([]string, len(memory.OnboardingProgress))
		for i, step := range memory.OnboardingProgress {
			steps[i] = string(step)
		}
		fmt.Printf("• Completed steps: %s\n", strings.Join(steps, ", "))
	}
	if memory.LastResponse != "" {
		fmt.Printf("• Last response: %s\n", memory.LastResponse)
	}
	if memory.LastElementQuery != "" {
		fmt.Printf("• Last element query: %s\n", memory.LastElementQuery)
	}
	fmt.Println()
	return nil
}

// showHistory displays what was typed this session
func (repl *REPL) showHistory() error {
	if len(repl.history) == 0 {
		fmt.Println("Nothing said yet.")
		return nil
	}

	fmt.Println()
	for i, line := range repl.history {
		fmt.Printf("%3d. %s\n", i+1, line)
	}
	fmt.Println()
	return nil
}

// Preload sets the starting route and loads a page snapshot before the
// loop begins. Either argument may be empty.
func (repl *REPL) Preload(route, pagePath string) error {
	if route != "" {
		repl.route = route
	}
	if pagePath == "" {
		return nil
	}
	return repl.loadPage(pagePath)
}

// ExecuteNonInteractive runs a single line without the loop
func (repl *REPL) ExecuteNonInteractive(ctx context.Context, input string) error {
	return repl.handleCommand(ctx, input)
}
