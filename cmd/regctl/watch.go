package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/coderegistry/internal/domain/code"
)

func watchCmd(flags *globalFlags) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream publish events from the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint, err := eventsURL(flags.server)
			if err != nil {
				return err
			}

			conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), endpoint, nil)
			if err != nil {
				return fmt.Errorf("connect %s: %w", endpoint, err)
			}
			defer conn.Close()

			go func() {
				<-cmd.Context().Done()
				conn.Close()
			}()

			out := cmd.OutOrStdout()
			for seen := 0; count == 0 || seen < count; {
				_, raw, err := conn.ReadMessage()
				if err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					return err
				}

				var ev code.Event
				if err := sonic.Unmarshal(raw, &ev); err != nil {
					return fmt.Errorf("decode event: %w", err)
				}
				switch ev.Type {
				case code.EventPublished, code.EventRejected:
					seen++
				default:
					continue
				}

				if flags.json {
					fmt.Fprintln(out, string(raw))
					continue
				}
				if ev.Type == code.EventPublished {
					fmt.Fprintf(out, "published %s::%s upgrade %d (%s)\n", ev.Publisher, ev.Package, ev.UpgradeNumber, ev.Policy)
				} else {
					fmt.Fprintf(out, "rejected  %s::%s %s (abort %d)\n", ev.Publisher, ev.Package, ev.Kind, ev.AbortCode)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "Exit after this many events (0 streams forever)")
	return cmd
}

// eventsURL maps the server's HTTP base URL to its event feed
func eventsURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/registry/events"
	return u.String(), nil
}
