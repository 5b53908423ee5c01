// Command syncreplay replays a JSON-encoded access trace through a
// syncval.Context and prints every hazard it finds.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	syncval "github.com/ehrlich-b/go-syncval"
	"github.com/ehrlich-b/go-syncval/internal/logging"
)

func main() {
	app := &cli.App{
		Name:  "syncreplay",
		Usage: "replay a recorded access trace and report synchronization hazards",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "trace", Aliases: []string{"t"}, Required: true, Usage: "path to a JSON trace file"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log a start message and a replay summary"},
			&cli.BoolFlag{Name: "no-present", Usage: "fold present-remapped hazard kinds back to their base kind"},
			&cli.StringFlag{Name: "queue-flags", Value: "graphics,compute,transfer", Usage: "comma-separated queue capability flags"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "syncreplay:", err)
		os.Exit(1)
	}
}

type traceFile struct {
	Ops []syncval.TraceOp `json:"ops"`
}

func run(cctx *cli.Context) error {
	log := logging.Default()
	if cctx.Bool("verbose") {
		log.Info("starting replay", "trace", cctx.String("trace"))
	}

	data, err := os.ReadFile(cctx.String("trace"))
	if err != nil {
		return fmt.Errorf("reading trace: %w", err)
	}

	var tf traceFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("parsing trace: %w", err)
	}

	cfg := syncval.DefaultConfig()
	cfg.ReportPresentAsHazard = !cctx.Bool("no-present")

	flags := parseQueueFlags(cctx.String("queue-flags"))
	syncCtx := syncval.NewContext(flags, cfg)

	results := syncval.ReplayTrace(syncCtx, tf.Ops, flags, 0)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}

	if cctx.Bool("verbose") {
		snap := syncCtx.Metrics().Snapshot()
		log.Infof("replayed %d ops, %d hazards, %d updates", len(tf.Ops), len(results), snap.UpdateCalls)
	}

	if len(results) > 0 {
		return cli.Exit(fmt.Sprintf("%d hazard(s) found", len(results)), 2)
	}
	return nil
}

func parseQueueFlags(s string) syncval.QueueFlags {
	var flags syncval.QueueFlags
	cur := ""
	flush := func() {
		switch cur {
		case "graphics":
			flags |= syncval.QueueGraphics
		case "compute":
			flags |= syncval.QueueCompute
		case "transfer":
			flags |= syncval.QueueTransfer
		}
		cur = ""
	}
	for _, r := range s {
		if r == ',' {
			flush()
			continue
		}
		cur += string(r)
	}
	flush()
	return flags
}
