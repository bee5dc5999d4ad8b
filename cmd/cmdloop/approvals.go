package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/quailyquaily/cmdloop/guard"
	"github.com/quailyquaily/cmdloop/internal/clifmt"
)

func newApprovalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approvals",
		Short: "Inspect and edit remembered command approvals",
	}
	cmd.AddCommand(newApprovalsListCmd(), newApprovalsForgetCmd(), newApprovalsApproveCmd())
	return cmd
}

func newApprovalsListCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List remembered approvals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore := approvalStoreFromViper(loggerFromViper(cmd.ErrOrStderr()))
			defer closeStore()

			recs, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list approvals: %w", err)
			}
			return writeApprovals(cmd.OutOrStdout(), recs, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json|yaml")
	return cmd
}

func newApprovalsForgetCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "forget [command]",
		Short: "Forget the approval of a command (or of --id), so it is asked about again",
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := identityFromArgs(args, id)
			if err != nil {
				return err
			}
			store, closeStore := approvalStoreFromViper(loggerFromViper(cmd.ErrOrStderr()))
			defer closeStore()

			if _, ok, err := store.Get(cmd.Context(), identity); err != nil {
				return err
			} else if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), clifmt.Warn("no approval for "+identity))
				return nil
			}
			if err := store.Delete(cmd.Context(), identity); err != nil {
				return fmt.Errorf("forget approval: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), clifmt.Success("forgot "+identity))
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Command id instead of a command")
	return cmd
}

func newApprovalsApproveCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "approve <command>",
		Short: "Approve a command ahead of time",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := loggerFromViper(cmd.ErrOrStderr())
			store, closeStore := approvalStoreFromViper(log)
			defer closeStore()

			gate := guard.NewGate(guardConfigFromViper(), store, nil, guard.WithLogger(log), guard.WithActor(currentActor()))
			command := strings.Join(args, " ")
			if err := gate.Approve(cmd.Context(), command, id); err != nil {
				return fmt.Errorf("approve: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), clifmt.Success("approved "+guard.CommandIdentity(command, id)))
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Approve by command id")
	return cmd
}

func identityFromArgs(args []string, id string) (string, error) {
	if strings.TrimSpace(id) != "" {
		return guard.CommandIdentity("", id), nil
	}
	command := strings.TrimSpace(strings.Join(args, " "))
	if command == "" {
		return "", fmt.Errorf("a command or --id is required")
	}
	if strings.HasPrefix(command, "id:") || strings.HasPrefix(command, "cmd:") {
		return command, nil
	}
	return guard.CommandIdentity(command, ""), nil
}

type approvalView struct {
	Identity  string    `json:"identity" yaml:"identity"`
	Status    string    `json:"status" yaml:"status"`
	Command   string    `json:"command,omitempty" yaml:"command,omitempty"`
	CommandID string    `json:"command_id,omitempty" yaml:"command_id,omitempty"`
	Actor     string    `json:"actor,omitempty" yaml:"actor,omitempty"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

func writeApprovals(w io.Writer, recs []guard.ApprovalRecord, format string) error {
	views := make([]approvalView, 0, len(recs))
	for _, r := range recs {
		views = append(views, approvalView{
			Identity:  r.Identity,
			Status:    string(r.Status),
			Command:   r.Command,
			CommandID: r.CommandID,
			Actor:     r.Actor,
			UpdatedAt: r.UpdatedAt,
		})
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	case "", "table":
		if len(views) == 0 {
			fmt.Fprintln(w, clifmt.Dim("no approvals"))
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "IDENTITY\tSTATUS\tACTOR\tUPDATED")
		for _, v := range views {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Identity, v.Status, v.Actor, v.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q (want table|json|yaml)", format)
	}
}
