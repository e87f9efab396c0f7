package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/IgorAraujoV/agilean-core-api/internal/events"
	"github.com/IgorAraujoV/agilean-core-api/internal/propagation"
	"github.com/IgorAraujoV/agilean-core-api/internal/ui"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch [building-id]",
	Short:   "Stream schedule change events from NATS",
	GroupID: "views",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats-url")
		kind, _ := cmd.Flags().GetString("kind")
		if natsURL == "" {
			return fmt.Errorf("no NATS server: set AGL_NATS_URL or --nats-url")
		}
		var buildingID string
		if len(args) == 1 {
			buildingID = args[0]
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return watchNATS(ctx, cmd.OutOrStdout(), natsURL, watchSubject(buildingID, kind))
	},
}

// watchSubject narrows events.TopicAll to one building and/or one event kind
// such as "patch.applied".
func watchSubject(buildingID, kind string) string {
	switch {
	case buildingID == "" && kind == "":
		return events.TopicAll
	case kind == "":
		return "agl.*.*." + buildingID
	case buildingID == "":
		return "agl." + kind + ".*"
	}
	return "agl." + kind + "." + buildingID
}

// watchNATS prints every event published on subject until ctx is done.
func watchNATS(ctx context.Context, w io.Writer, natsURL, subject string) error {
	logger := newLogger()
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()
	return watch(ctx, w, sub, subject, logger)
}

// watch prints every payload delivered on subject until ctx is done or the
// subscription closes.
func watch(ctx context.Context, w io.Writer, sub events.Subscriber, subject string, logger *slog.Logger) error {
	ch, cancel, err := sub.Subscribe(subject)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()
	logger.Debug("watching", "subject", subject)

	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-ch:
			if !ok {
				return nil
			}
			if jsonOutput {
				fmt.Fprintln(w, strings.TrimSpace(string(data)))
				continue
			}
			line, err := describeEvent(data)
			if err != nil {
				logger.Warn("skipping undecodable event", "err", err)
				continue
			}
			fmt.Fprintf(w, "%s %s\n", ui.RenderMuted(time.Now().Format(time.TimeOnly)), line)
		}
	}
}

// watchEvent is the union of the published event payloads.
type watchEvent struct {
	BuildingID string             `json:"building_id"`
	UserID     string             `json:"user_id"`
	Operation  string             `json:"operation"`
	Patch      *propagation.Patch `json:"patch"`
	SpaceIDs   []string           `json:"space_ids"`
	LinkID     string             `json:"link_id"`
}

// describeEvent renders one event payload as a single line.
func describeEvent(data []byte) (string, error) {
	var e watchEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return "", err
	}
	if e.BuildingID == "" {
		return "", fmt.Errorf("event without building_id")
	}
	by := ""
	if e.UserID != "" {
		by = " by " + e.UserID
	}
	head := ui.RenderAccent(e.BuildingID)
	switch {
	case e.Patch != nil:
		return fmt.Sprintf("%s %s%s: %d moved, %d crew(s) created, %d crew(s) deleted",
			head, e.Operation, by, e.Patch.MovedCount, len(e.Patch.CreatedCrews), len(e.Patch.DeletedCrewIDs)), nil
	case len(e.SpaceIDs) > 0:
		return fmt.Sprintf("%s %s%s: %s", head, ui.RenderWarn("space deleted"), by, strings.Join(e.SpaceIDs, ", ")), nil
	case e.LinkID != "":
		return fmt.Sprintf("%s %s%s: %s", head, ui.RenderWarn("link deleted"), by, e.LinkID), nil
	}
	return "", fmt.Errorf("unrecognized event for building %s", e.BuildingID)
}

func init() {
	watchCmd.Flags().String("nats-url", os.Getenv("AGL_NATS_URL"), "NATS server URL")
	watchCmd.Flags().String("kind", "", `event kind to follow, e.g. "patch.applied" (default all)`)
}
