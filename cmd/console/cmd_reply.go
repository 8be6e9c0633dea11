package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/technosupport/ts-console/internal/incidents"
	"github.com/technosupport/ts-console/internal/reply"
)

var replyIncident string

var replyCmd = &cobra.Command{
	Use:   "reply <prompt...>",
	Short: "Print the assistant reply for a prompt",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in *incidents.Incident
		if replyIncident != "" {
			var err error
			in, err = incidents.MustLoadCatalog().Get(cmd.Context(), replyIncident)
			if err != nil {
				return err
			}
		}
		r := reply.Generate(in, strings.Join(args, " "))
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "[%s]\n%s\n", r.Intent, r.Text)
		for _, a := range r.QuickActions {
			fmt.Fprintf(out, "  > %s\n", a)
		}
		return nil
	},
}

func init() {
	replyCmd.Flags().StringVarP(&replyIncident, "incident", "i", "EVT-2401", "incident id (empty for none)")
}
