/*
Command roster-watch prints the live participant list of a Google Meet conference.

In poll mode it queries the Meet API directly with an access token. In stream mode it
consumes the participant event stream of a running GM Pro server. Every roster change is
rendered as a table on stdout.

	roster-watch -meeting abc-mnop-xyz -token "$GOOGLE_ACCESS_TOKEN"
	roster-watch -mode stream -server http://localhost:8080 -conference abc123
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"

	"gmpro/internal/app/meet"
	"gmpro/internal/app/roster"
	"gmpro/internal/pkg/logx"
)

func main() {
	mode := flag.String("mode", "poll", "poll (Meet API) or stream (GM Pro server)")
	meeting := flag.String("meeting", "", "meeting code, spaces/{id} or conferenceRecords/{id} (poll mode)")
	token := flag.String("token", os.Getenv("GOOGLE_ACCESS_TOKEN"), "Google access token (poll mode)")
	interval := flag.Duration("interval", roster.DefaultPollInterval, "poll interval")
	server := flag.String("server", "http://localhost:8080", "GM Pro server base URL (stream mode)")
	conference := flag.String("conference", "", "conference record id (stream mode)")
	all := flag.Bool("all", false, "include participants who left")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	logx.InitGlobalLogger(*verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := roster.NewStore()
	updates, cancel := store.Subscribe()
	defer cancel()

	errCh := make(chan error, 1)
	switch *mode {
	case "poll":
		if *meeting == "" || *token == "" {
			usage("poll mode needs -meeting and -token")
		}

		source := meet.NewSource(meet.NewGoogleAPIFactory(&http.Client{Timeout: 15 * time.Second}))
		poller := roster.NewPoller(store, func(ctx context.Context) ([]roster.Participant, error) {
			return source.FetchAll(ctx, *meeting, *token)
		}, *interval)
		release := poller.Acquire()
		defer release()

	case "stream":
		if *conference == "" {
			usage("stream mode needs -conference")
		}

		streamURL := strings.TrimRight(*server, "/") + "/api/meet/participants-sse?conferenceId=" + url.QueryEscape(*conference)
		stream := roster.NewStream(store, nil, streamURL, nil)
		go func() { errCh <- stream.Run(ctx) }()

	default:
		usage(fmt.Sprintf("unknown mode %q", *mode))
	}

	var rendered uint64
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				logx.Fatal(err, "Participant stream ended")
			}
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if snap.Err != nil {
				logx.Warn("Roster update failed", "error", snap.Err.Error())
				continue
			}
			if snap.Loading || snap.Version == rendered {
				continue
			}
			rendered = snap.Version
			render(snap, *all)
		}
	}
}

func render(snap roster.Snapshot, all bool) {
	participants := snap.Participants
	if !all {
		participants = snap.Active()
	}

	fmt.Printf("\n%s  %d participant(s)\n", snap.UpdatedAt.Format("15:04:05"), len(participants))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Status", "Type", "Joined", "Left"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, p := range participants {
		left := ""
		if p.LeftAt != nil {
			left = p.LeftAt.Local().Format("15:04:05")
		}
		table.Append([]string{
			p.Name,
			string(p.Status),
			string(p.Type),
			p.JoinedAt.Local().Format("15:04:05"),
			left,
		})
	}

	table.Render()
}

func usage(msg string) {
	fmt.Fprintln(os.Stderr, "roster-watch:", msg)
	flag.Usage()
	os.Exit(2)
}
