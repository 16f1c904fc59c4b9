package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/willclark/traceplay/pkg/config"
	"github.com/willclark/traceplay/pkg/replay"
	"github.com/willclark/traceplay/pkg/trace"
	"github.com/willclark/traceplay/pkg/version"
	"github.com/willclark/traceplay/pkg/visual"
	"github.com/willclark/traceplay/pkg/visual/augment"
)

var (
	configFile string
	verbose    bool

	log = logrus.New()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "traceplay",
		Short: "replay recorded graphics traces with pluggable visualizers",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFormatter(&logrus.TextFormatter{
				ForceColors: isatty.IsTerminal(os.Stderr.Fd()),
			})
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to traceplay.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	replayCmd := &cobra.Command{
		Use:   "replay [trace]",
		Short: "step through a trace interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplay,
	}

	infoCmd := &cobra.Command{
		Use:   "info [trace]",
		Short: "summarize a trace",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	timelineCmd := &cobra.Command{
		Use:   "timeline [trace]",
		Short: "chart events per frame",
		Args:  cobra.ExactArgs(1),
		RunE:  runTimeline,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.GetVersionInfo())
		},
	}

	rootCmd.AddCommand(replayCmd, infoCmd, timelineCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configured YAML file, falling back to defaults when
// no file was given.
func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(configFile)
}

// buildPlayer wires a player and its visualizer from config.
func buildPlayer(cfg *config.Config, tr *trace.Trace) (*replay.Player, *augment.CallStats, error) {
	player := replay.NewPlayer(
		replay.WithLogger(log),
		replay.WithCheckpointInterval(cfg.CheckpointInterval),
	)
	if err := player.LoadTrace(tr); err != nil {
		return nil, nil, err
	}

	var augs []visual.Augmentation
	var stats *augment.CallStats
	if len(cfg.Visualizer.CallStats) > 0 {
		stats = augment.NewCallStats(log, cfg.Visualizer.CallStats...)
		augs = append(augs, stats)
	}
	if cfg.Visualizer.Highlight != "" {
		augs = append(augs, augment.NewDrawHighlight(cfg.Visualizer.Highlight))
	}
	if cfg.Visualizer.FrameOverlay {
		augs = append(augs, augment.NewFrameOverlay())
	}

	v, err := visual.New(player, visual.DefaultTable(), augs...)
	if err != nil {
		return nil, nil, err
	}
	v.SetActive(cfg.Visualizer.Active)
	player.Attach(v)
	return player, stats, nil
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.SetLevel(cfg.Level())
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	tr, err := trace.ReadFile(args[0])
	if err != nil {
		return err
	}
	player, stats, err := buildPlayer(cfg, tr)
	if err != nil {
		return err
	}

	fmt.Printf("traceplay: %d events, %d frames\n", tr.Len(), len(tr.Frames()))
	printHelp()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("(traceplay) ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		if quit := handleCommand(player, stats, strings.TrimSpace(input)); quit {
			return nil
		}
	}
}

// printHelp displays available commands
func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  step (s)          - Execute the next event")
	fmt.Println("  backstep (b)      - Step backward one event")
	fmt.Println("  continue (c)      - Replay to the end of the trace")
	fmt.Println("  until <name>      - Replay until the named call is next")
	fmt.Println("  seek <index>      - Seek to an event index")
	fmt.Println("  substep <n>       - Re-apply visualizers at sub-step n")
	fmt.Println("  info (i)          - Show current playback state")
	fmt.Println("  viz on|off        - Toggle visualizer dispatch")
	fmt.Println("  stats             - Log call statistics")
	fmt.Println("  help (h)          - Show this help message")
	fmt.Println("  quit (q)          - Exit")
}

// handleCommand processes user input. It returns true when the loop should
// exit.
func handleCommand(player *replay.Player, stats *augment.CallStats, input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false
	}

	cmd := parts[0]
	rest := parts[1:]

	switch cmd {
	case "h", "help":
		printHelp()
	case "s", "step":
		if err := player.Step(); err != nil {
			fmt.Println(err)
			break
		}
		printCurrent(player)
	case "b", "backstep":
		if err := player.StepBackward(); err != nil {
			fmt.Println(err)
			break
		}
		printCurrent(player)
	case "c", "continue":
		if err := player.ReplayForward(); err != nil {
			fmt.Println(err)
		}
	case "until":
		if len(rest) != 1 {
			fmt.Println("usage: until <name>")
			break
		}
		name := rest[0]
		err := player.ReplayUntil(func(e trace.Event) bool {
			return e.Name == name
		})
		if err != nil {
			fmt.Println(err)
			break
		}
		printCurrent(player)
	case "seek":
		if len(rest) != 1 {
			fmt.Println("usage: seek <index>")
			break
		}
		idx, err := strconv.Atoi(rest[0])
		if err != nil {
			fmt.Println("invalid index:", rest[0])
			break
		}
		if err := player.SeekToIndex(idx); err != nil {
			fmt.Println(err)
			break
		}
		printCurrent(player)
	case "substep":
		idx := visual.CurrentSubStep
		if len(rest) == 1 {
			n, err := strconv.Atoi(rest[0])
			if err != nil {
				fmt.Println("invalid sub-step:", rest[0])
				break
			}
			idx = n
		}
		for _, v := range player.Visualizers() {
			v.ApplyToSubStep(idx)
		}
	case "i", "info":
		printInfo(player)
	case "viz":
		if len(rest) != 1 || (rest[0] != "on" && rest[0] != "off") {
			fmt.Println("usage: viz on|off")
			break
		}
		active := rest[0] == "on"
		for _, v := range player.Visualizers() {
			v.SetActive(active)
		}
		fmt.Printf("visualizers %s\n", rest[0])
	case "stats":
		if stats == nil {
			fmt.Println("call stats not enabled")
			break
		}
		stats.LogSummary()
	case "q", "quit", "exit":
		return true
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
	}
	return false
}

func printCurrent(player *replay.Player) {
	idx := player.CurrentIndex()
	if idx < 0 {
		fmt.Println("at start of trace")
		return
	}
	e := player.Events()[idx]
	fmt.Printf("%s  (frame %d, sub-step %d)\n", e, player.CurrentFrame(), player.CurrentSubStep())
}

func printInfo(player *replay.Player) {
	fmt.Printf("event %d/%d, frame %d, sub-step %d\n",
		player.CurrentIndex()+1, len(player.Events()),
		player.CurrentFrame(), player.CurrentSubStep())
	fmt.Printf("context: %s\n", player.Context())
	for i, v := range player.Visualizers() {
		state := "inactive"
		if v.Active() {
			state = "active"
		}
		fmt.Printf("visualizer %d: %s\n", i, state)
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	tr, err := trace.ReadFile(args[0])
	if err != nil {
		return err
	}

	frames := tr.Frames()
	fmt.Printf("events: %d\n", tr.Len())
	fmt.Printf("frames: %d\n", len(frames))

	counts := tr.CallNames()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	fmt.Println("\ncalls:")
	for _, name := range names {
		fmt.Printf("  %6d  %s\n", counts[name], name)
	}
	return nil
}

func runTimeline(cmd *cobra.Command, args []string) error {
	tr, err := trace.ReadFile(args[0])
	if err != nil {
		return err
	}

	frames := tr.Frames()
	if len(frames) == 0 {
		fmt.Println("empty trace")
		return nil
	}

	data := make([]float64, len(frames))
	for i, f := range frames {
		data[i] = float64(f.End - f.Start)
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		for i, n := range data {
			fmt.Printf("frame %d: %d events\n", i, int(n))
		}
		return nil
	}

	fmt.Println(asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Caption("events per frame"),
	))
	return nil
}
