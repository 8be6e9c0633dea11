package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/technosupport/ts-console/internal/console"
	"github.com/technosupport/ts-console/internal/incidents"
	"github.com/technosupport/ts-console/internal/keys"
	"github.com/technosupport/ts-console/internal/scenario"
)

var (
	demoIncident string
	demoScript   string
	demoKeys     string
	demoAgent    bool
	demoJSON     bool
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk a scripted scenario against an in-memory session",
	Long: "Creates an in-memory console session, presses the given keys in order\n" +
		"and optionally sends the result to the tracking agent, printing the\n" +
		"scenario state after every step.",
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().StringVarP(&demoIncident, "incident", "i", "EVT-2401", "incident to select")
	demoCmd.Flags().StringVar(&demoScript, "script", "", "embedded script name (default script when empty)")
	demoCmd.Flags().StringVarP(&demoKeys, "keys", "k", "q,w,Escape,e", "comma separated key presses")
	demoCmd.Flags().BoolVar(&demoAgent, "agent", true, "send to the tracking agent after the keys")
	demoCmd.Flags().BoolVar(&demoJSON, "json", false, "print the final session as json")
}

func runDemo(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	script := scenario.Default()
	if demoScript != "" {
		var err error
		if script, err = scenario.LoadScript(demoScript); err != nil {
			return err
		}
	}

	cat := incidents.MustLoadCatalog()
	m := console.NewManager(console.NewMemoryStore(), cat, cat, script, console.Options{
		TrackingDuration:   500 * time.Millisecond,
		TrackingOverlayTTL: 200 * time.Millisecond,
	})
	defer m.Close()

	out := cmd.OutOrStdout()
	s, err := m.Create(ctx, "demo", "local", demoIncident)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "session %s  incident %s  state %s\n", s.ID, s.IncidentID, s.Scenario.State)

	for _, k := range strings.Split(demoKeys, ",") {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		res, cur, err := m.HandleKey(ctx, s.ID, keys.Event{Key: k})
		if err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		open := cur.Popups.Order
		switch {
		case res.Ignored:
			fmt.Fprintf(out, "%-8s ignored\n", k)
		case res.Step != nil:
			fmt.Fprintf(out, "%-8s %s -> %s  popups %v\n", k, res.Step.From, res.Step.To, open)
		default:
			fmt.Fprintf(out, "%-8s %s  popups %v\n", k, res.Command.Action, open)
		}
		s = cur
	}

	if demoAgent {
		if s, err = m.SendToAgent(ctx, s.ID); err != nil {
			return fmt.Errorf("send to agent: %w", err)
		}
		fmt.Fprintln(out, "tracking requested")
		for s.Tracking.Pending || s.Tracking.Running {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(50 * time.Millisecond):
			}
			if s, err = m.Get(ctx, s.ID); err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "tracking done  pin (%.1f, %.1f)  state %s\n", s.Tracking.Pin.X, s.Tracking.Pin.Y, s.Scenario.State)
	}

	fmt.Fprintf(out, "filters %v\n", s.Scenario.Flags.TimelineFilters)
	if demoJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	return nil
}
