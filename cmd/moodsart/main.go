package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lionking1994/moodsart/internal/condition"
	"github.com/lionking1994/moodsart/internal/config"
	"github.com/lionking1994/moodsart/internal/daemon"
	"github.com/lionking1994/moodsart/internal/model"
	"github.com/lionking1994/moodsart/internal/plan"
	"github.com/lionking1994/moodsart/internal/scale"
	"github.com/lionking1994/moodsart/internal/schedule"
	"github.com/lionking1994/moodsart/internal/session"
	"github.com/lionking1994/moodsart/internal/status"
	"github.com/lionking1994/moodsart/internal/stimuli"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "setup":
		runSetup(os.Args[2:])
	case "plan":
		runPlan(os.Args[2:])
	case "run":
		runRun(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "probes":
		runProbes(os.Args[2:])
	case "check":
		runCheck(os.Args[2:])
	case "version":
		fmt.Printf("moodsart %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runSetup(args []string) {
	dir := "."
	cfg := config.Default()

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--mode":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--mode requires a value")
				os.Exit(1)
			}
			i++
			mode, err := model.ParseMode(args[i])
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid --mode value: %v\n", err)
				os.Exit(1)
			}
			cfg.Session.Mode = mode
		case "--condition":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--condition requires a value")
				os.Exit(1)
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid --condition value: %s\n", args[i])
				os.Exit(1)
			}
			cfg.Session.Condition = n
		case "--seed":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--seed requires a value")
				os.Exit(1)
			}
			i++
			n, err := strconv.ParseInt(args[i], 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid --seed value: %s\n", args[i])
				os.Exit(1)
			}
			cfg.Session.Seed = n
		default:
			if args[i][0] == '-' {
				fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: moodsart setup [dir] [--mode full|demo] [--condition 1-4] [--seed n]\n", args[i])
				os.Exit(1)
			}
			dir = args[i]
		}
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve dir: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "create dir: %v\n", err)
		os.Exit(1)
	}

	path := filepath.Join(absDir, config.DefaultFileName)
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(os.Stderr, "%s already exists\n", path)
		os.Exit(1)
	}
	if err := config.Write(path, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "setup: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (mode=%s)\n", path, cfg.Session.Mode)
}

// runPlan previews the plan a session in this directory would run, without
// creating any session state.
func runPlan(args []string) {
	dir := "."
	jsonOutput := false
	for _, a := range args {
		switch a {
		case "--json":
			jsonOutput = true
		default:
			if a[0] == '-' {
				fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: moodsart plan [dir] [--json]\n", a)
				os.Exit(1)
			}
			dir = a
		}
	}

	cfg := mustLoadConfig(dir)

	scaled, err := scale.Scale(scale.Nominal(), cfg.Session.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan: %v\n", err)
		os.Exit(1)
	}
	code := model.NewParticipantCode(time.Now())
	seed := cfg.Session.Seed
	if seed == 0 {
		seed = schedule.DeriveSeed(code, 0)
	}
	cond, err := condition.Select(cfg.Session.Condition, seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan: %v\n", err)
		os.Exit(1)
	}
	p, err := plan.Build(code, cond, scaled)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "plan: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	fmt.Println(scale.StatusLine(scaled, cond))
	fmt.Printf("estimated duration: %s\n", scale.EstimateDuration(scaled, cond))
	for i, ph := range p.Phases {
		fmt.Printf("%2d  %s\n", i+1, ph.Label)
	}
}

func runRun(args []string) {
	dir := "."
	for _, a := range args {
		if a[0] == '-' {
			fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: moodsart run [dir]\n", a)
			os.Exit(1)
		}
		dir = a
	}

	cfg := mustLoadConfig(dir)

	absDir, err := filepath.Abs(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve dir: %v\n", err)
		os.Exit(1)
	}

	// Resume a persisted session if one exists, otherwise start fresh.
	var sess *session.Session
	statePath := filepath.Join(absDir, "session.yaml")
	if _, err := os.Stat(statePath); err == nil {
		sess, err = session.Load(absDir, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "resume session: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Resuming session %s\n", sess.State.SessionID)
	} else {
		sess, err = session.Setup(absDir, cfg, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "setup session: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Started session %s\n", sess.State.SessionID)
	}
	fmt.Println(sess.StatusLine())

	d, err := daemon.New(sess)
	if err != nil {
		sess.Close()
		fmt.Fprintf(os.Stderr, "create daemon: %v\n", err)
		os.Exit(1)
	}
	if err := d.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "daemon: %v\n", err)
		os.Exit(1)
	}
}

func runStatus(args []string) {
	dir := "."
	jsonOutput := false
	for _, a := range args {
		switch a {
		case "--json":
			jsonOutput = true
		default:
			if a[0] == '-' {
				fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: moodsart status [dir] [--json]\n", a)
				os.Exit(1)
			}
			dir = a
		}
	}

	cfg := mustLoadConfig(dir)
	if err := status.Run(dir, cfg, jsonOutput, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "status: %v\n", err)
		os.Exit(1)
	}
}

// runProbes prints the probe positions a block of the given length gets.
// Handy when checking a protocol change against the analysis plan.
func runProbes(args []string) {
	trials := 0
	mode := model.ModeFull
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--trials":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--trials requires a value")
				os.Exit(1)
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid --trials value: %s\n", args[i])
				os.Exit(1)
			}
			trials = n
		case "--mode":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--mode requires a value")
				os.Exit(1)
			}
			i++
			m, err := model.ParseMode(args[i])
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid --mode value: %v\n", err)
				os.Exit(1)
			}
			mode = m
		default:
			fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: moodsart probes --trials <n> [--mode full|demo]\n", args[i])
			os.Exit(1)
		}
	}
	if trials == 0 {
		scaled, err := scale.Scale(scale.Nominal(), mode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "probes: %v\n", err)
			os.Exit(1)
		}
		trials = scaled.SARTTrialsPerBlock
	}

	indices, err := schedule.Probes(trials, mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "probes: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("trials=%d probes=%d indices=%v\n", trials, len(indices), indices)
}

// runCheck verifies every registered stimulus file exists before a
// participant sits down.
func runCheck(args []string) {
	dir := "."
	for _, a := range args {
		if a[0] == '-' {
			fmt.Fprintf(os.Stderr, "unknown flag: %s\nusage: moodsart check [dir]\n", a)
			os.Exit(1)
		}
		dir = a
	}

	cfg := mustLoadConfig(dir)
	root := cfg.Paths.StimuliDir
	if !filepath.IsAbs(root) {
		root = filepath.Join(dir, root)
	}

	reg := stimuli.NewRegistry(root)
	errs := reg.Check()
	if len(errs) == 0 {
		fmt.Printf("stimuli OK under %s\n", root)
		return
	}
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "missing: %v\n", err)
	}
	fmt.Fprintf(os.Stderr, "%d stimulus files missing under %s\n", len(errs), root)
	os.Exit(1)
}

func mustLoadConfig(dir string) *model.Config {
	cfg, err := config.Load(filepath.Join(dir, config.DefaultFileName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `moodsart %s - mood induction + SART session controller

Usage: moodsart <command> [options]

Session:
  setup [dir] [flags]   Write moodsart.yaml (--mode, --condition, --seed)
  plan [dir] [--json]   Preview the session plan for this configuration
  run [dir]             Start (or resume) a session and serve it
  status [dir] [--json] Show the running session's progress

Utilities:
  check [dir]           Verify all stimulus files are present
  probes --trials <n>   Show probe positions for a block length
  version               Show version
  help                  Show this help

`, version)
}
