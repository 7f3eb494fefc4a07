package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"

	"github.com/dgwartney/agentic-app-cli/sdk/agentic"
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)
)

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Start an interactive chat session with the agent",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "session-id",
				Aliases: []string{"s"},
				Usage:   "Session identifier (auto-generated if not provided)",
			},
			&cli.StringFlag{
				Name:    "user-id",
				Aliases: []string{"u"},
				Usage:   "User identifier (optional, defaults to session-id)",
			},
			&cli.StringFlag{
				Name:  "stream",
				Usage: "Enable streaming with the given mode (tokens, messages or custom)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug mode",
			},
			&cli.StringFlag{
				Name:  "debug-mode",
				Usage: "Debug mode level (all, function-call or thoughts; requires --debug)",
			},
			&cli.StringFlag{
				Name:  "metadata",
				Usage: "JSON string of metadata key-value pairs",
			},
		}, commonFlags()...),
		Action: runChat,
	}
}

func runChat(c *cli.Context) error {
	logger := newLogger(c)

	metadata, err := parseMetadata(c.String("metadata"))
	if err != nil {
		return err
	}
	if c.String("debug-mode") != "" && !c.Bool("debug") {
		return fmt.Errorf("--debug-mode requires the --debug flag to be set")
	}

	client, _, err := newAPIClient(c, logger)
	if err != nil {
		return err
	}

	sessionID := c.String("session-id")
	if sessionID == "" {
		sessionID = newSessionID("chat")
	}

	m := initialChatModel(client, sessionID, c.String("user-id"), metadata)
	m.streamMode = c.String("stream")
	m.streamEnabled = m.streamMode != ""
	m.debugEnabled = c.Bool("debug")
	m.debugMode = c.String("debug-mode")

	logger.Info("starting chat session", "session", sessionID)
	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}

type chatMessage struct {
	role    string
	content string
}

type chatModel struct {
	client   *agentic.Client
	metadata map[string]any

	sessionID string
	userID    string

	streamEnabled bool
	streamMode    string
	debugEnabled  bool
	debugMode     string

	messages []chatMessage
	input    string
	waiting  bool
	err      error
	width    int
}

type agentResponseMsg string
type agentErrMsg error

func initialChatModel(client *agentic.Client, sessionID, userID string, metadata map[string]any) chatModel {
	return chatModel{
		client:    client,
		metadata:  metadata,
		sessionID: sessionID,
		userID:    userID,
		messages:  []chatMessage{},
		input:     "",
	}
}

func (m chatModel) Init() tea.Cmd {
	return nil
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Always allow Ctrl+C to quit, even when waiting
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

		if m.waiting {
			return m, nil
		}

		switch msg.Type {
		case tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			input := strings.TrimSpace(m.input)
			m.input = ""
			if input == "" {
				return m, nil
			}

			switch strings.ToLower(input) {
			case "exit", "quit", "q":
				return m, tea.Quit
			}

			if strings.HasPrefix(input, "#") {
				return m.handleCommand(input), nil
			}

			m.messages = append(m.messages, chatMessage{role: "user", content: input})
			m.waiting = true
			m.err = nil

			return m, m.sendCmd(input)

		case tea.KeyBackspace:
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}

		case tea.KeySpace:
			m.input += " "

		case tea.KeyRunes:
			m.input += string(msg.Runes)
		}

	case agentResponseMsg:
		m.waiting = false
		m.messages = append(m.messages, chatMessage{role: "assistant", content: string(msg)})

	case agentErrMsg:
		m.waiting = false
		m.err = msg

	case tea.WindowSizeMsg:
		m.width = msg.Width
	}

	return m, nil
}

// sendCmd returns a command that executes one run against the agent.
func (m chatModel) sendCmd(input string) tea.Cmd {
	client := m.client
	opts := agentic.ExecuteOptions{
		Query:            input,
		SessionReference: m.sessionID,
		UserReference:    m.userID,
		StreamEnabled:    m.streamEnabled,
		StreamMode:       m.streamMode,
		DebugEnabled:     m.debugEnabled,
		DebugMode:        m.debugMode,
		Metadata:         m.metadata,
	}
	return func() tea.Msg {
		result, err := client.ExecuteRun(context.Background(), opts)
		if err != nil {
			return agentErrMsg(err)
		}
		text := result.Text()
		if text == "" {
			if result.SessionInfo != nil && result.SessionInfo.RunID != "" {
				text = fmt.Sprintf("(no output, run %s is %s)",
					result.SessionInfo.RunID, result.SessionInfo.Status)
			} else {
				text = "(no output)"
			}
		}
		return agentResponseMsg(text)
	}
}

// handleCommand processes a # command typed at the prompt.
func (m chatModel) handleCommand(input string) chatModel {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	arg := ""
	if len(fields) > 1 {
		arg = strings.ToLower(fields[1])
	}

	switch cmd {
	case "#help":
		m.messages = append(m.messages, chatMessage{role: "system", content: chatHelp})

	case "#new", "#newsession":
		m.sessionID = newSessionID("chat")
		m.messages = append(m.messages, chatMessage{
			role:    "system",
			content: "Started new session: " + m.sessionID,
		})

	case "#info", "#session":
		m.messages = append(m.messages, chatMessage{role: "system", content: m.sessionSummary()})

	case "#clear":
		m.messages = []chatMessage{}

	case "#history":
		var b strings.Builder
		count := 0
		for _, msg := range m.messages {
			if msg.role == "system" {
				continue
			}
			fmt.Fprintf(&b, "[%s] %s\n", msg.role, msg.content)
			count++
		}
		if count == 0 {
			b.WriteString("No messages in this session yet")
		}
		m.messages = append(m.messages, chatMessage{role: "system", content: strings.TrimRight(b.String(), "\n")})

	case "#debug":
		switch arg {
		case "on":
			m.debugEnabled = true
			m.messages = append(m.messages, chatMessage{role: "system", content: "Debug mode enabled"})
		case "off":
			m.debugEnabled = false
			m.debugMode = ""
			m.messages = append(m.messages, chatMessage{role: "system", content: "Debug mode disabled"})
		default:
			m.messages = append(m.messages, chatMessage{role: "system", content: "Usage: #debug on|off"})
		}

	case "#stream":
		switch arg {
		case "on", agentic.StreamTokens, agentic.StreamMessages, agentic.StreamCustom:
			m.streamEnabled = true
			m.streamMode = arg
			if arg == "on" {
				m.streamMode = agentic.StreamTokens
			}
			m.messages = append(m.messages, chatMessage{
				role:    "system",
				content: "Streaming enabled (mode: " + m.streamMode + ")",
			})
		case "off":
			m.streamEnabled = false
			m.streamMode = ""
			m.messages = append(m.messages, chatMessage{role: "system", content: "Streaming disabled"})
		default:
			m.messages = append(m.messages, chatMessage{role: "system", content: "Usage: #stream on|off|tokens|messages|custom"})
		}

	default:
		m.messages = append(m.messages, chatMessage{
			role:    "system",
			content: "Unknown command: " + cmd + " (type #help for available commands)",
		})
	}
	return m
}

func (m chatModel) sessionSummary() string {
	userID := m.userID
	if userID == "" {
		userID = m.sessionID
	}
	stream := "off"
	if m.streamEnabled {
		stream = m.streamMode
	}
	debug := "off"
	if m.debugEnabled {
		debug = "on"
		if m.debugMode != "" {
			debug = m.debugMode
		}
	}
	return fmt.Sprintf("Session ID: %s\nUser ID: %s\nStreaming: %s\nDebug: %s",
		m.sessionID, userID, stream, debug)
}

const chatHelp = `Available commands:
  #help               Show this help
  #new                Start a new session
  #info               Show current session settings
  #history            Show the conversation so far
  #clear              Clear the screen
  #debug on|off       Toggle debug mode
  #stream on|off|...  Toggle streaming (tokens, messages, custom)
  exit, quit, q       Leave the chat`

func (m chatModel) View() string {
	var s strings.Builder

	if len(m.messages) == 0 {
		s.WriteString(bannerStyle.Render("Agentic App Platform Chat") + "\n")
		s.WriteString(noticeStyle.Render("Session: "+m.sessionID) + "\n")
		s.WriteString(noticeStyle.Render("Type #help for commands, exit to quit") + "\n\n")
	}

	for _, msg := range m.messages {
		switch msg.role {
		case "user":
			s.WriteString(promptStyle.Render("> ") + msg.content + "\n\n")
		case "system":
			s.WriteString(systemStyle.Render(msg.content) + "\n\n")
		default:
			s.WriteString(responseStyle.Render(msg.content) + "\n\n")
		}
	}

	if m.waiting {
		s.WriteString(noticeStyle.Render("Waiting for agent...") + "\n\n")
	}

	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n")
	}

	s.WriteString("> " + m.input)
	return s.String()
}
