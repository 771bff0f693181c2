package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"gopkg.in/yaml.v3"

	"github.com/nadzzz/beckon/internal/ipc"
	"github.com/nadzzz/beckon/internal/message"
	grpctransport "github.com/nadzzz/beckon/internal/transport/grpc"
)

var (
	execJSON   bool
	execRemote string

	triggerSocket string

	sayVoice bool
)

// execCmd runs one typed command through the dispatcher.
var execCmd = &cobra.Command{
	Use:   "exec <command...>",
	Short: "Run one typed command",
	Long: `Run one command exactly as if it had been spoken after the wake word, e.g.

  beckon exec open youtube and find cooking videos

With --remote the command is sent to a running daemon over gRPC instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

// triggerCmd asks a running daemon to start listening.
var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Trigger push-to-talk on a running daemon",
	Long: `Send a trigger over the daemon's unix socket. Bind this to a hotkey when the
daemon runs with session.mode=push-to-talk and session.trigger=ipc.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := triggerSocket
		if path == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path = cfg.Session.SocketPath
		}
		if err := ipc.SendCommand(path, ipc.CmdTrigger); err != nil {
			return fmt.Errorf("beckon daemon not reachable: %w", err)
		}
		return nil
	},
}

// vocabCmd prints the effective vocabulary tables.
var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Print the effective vocabulary as YAML",
	Long: `Print the application, website and search-engine tables after defaults
are applied. The output can be pasted under "vocabulary:" in beckon.yaml.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(a.tables.Snapshot())
	},
}

// sayCmd speaks a line through the configured announcer.
var sayCmd = &cobra.Command{
	Use:   "say <text...>",
	Short: "Speak a line to test the announcement voice",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if sayVoice {
			cfg.TTS.Enabled = true
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		a.announcer.Announce(cmd.Context(), strings.Join(args, " "))
		return nil
	},
}

func init() {
	execCmd.Flags().BoolVar(&execJSON, "json", false, "print the outcome as JSON")
	execCmd.Flags().StringVar(&execRemote, "remote", "", "gRPC address of a running daemon (host:port)")
	triggerCmd.Flags().StringVar(&triggerSocket, "socket", "", "daemon socket path (default: session.socket_path)")
	sayCmd.Flags().BoolVar(&sayVoice, "voice", false, "enable the TTS voice even if tts.enabled is false")
}

func runExec(cmd *cobra.Command, args []string) error {
	text := strings.ToLower(strings.Join(args, " "))
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	var resp *message.CommandResponse
	if execRemote != "" {
		conn, err := grpc.NewClient(execRemote, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("connecting to %s: %w", execRemote, err)
		}
		defer conn.Close()

		resp, err = grpctransport.Execute(ctx, conn, &message.CommandRequest{Command: text, Source: "cli"})
		if err != nil {
			return err
		}
		if !execJSON {
			fmt.Fprintln(cmd.OutOrStdout(), resp.Response)
		}
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		// The announcer echoes the narration.
		resp, err = a.dispatcher.Handle(ctx, &message.CommandRequest{Command: text, Source: "cli"})
		if err != nil {
			return err
		}
		a.announcer.Announce(ctx, resp.Response)
	}

	if execJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	if !resp.Success {
		return fmt.Errorf("command not carried out (%s)", resp.Kind)
	}
	return nil
}
