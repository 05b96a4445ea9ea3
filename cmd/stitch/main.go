// Command-line interface to segmentation stitching jobs.
// Validates and runs job specifications against a local block store.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"

	"github.com/janelia-flyem/stitch/stitch"
	"github.com/janelia-flyem/stitch/workflow"
)

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	// Path to TOML configuration file.
	configFile = flag.String("config", "", "")

	// Minimum grayscale value considered foreground by the fallback segmenter.
	threshold = flag.Int("threshold", 128, "")

	// Profile CPU usage using standard gotest system.
	cpuprofile = flag.String("cpuprofile", "", "")

	// Profile memory usage using standard gotest system.
	memprofile = flag.String("memprofile", "", "")

	// Number of logical CPUs to use.
	useCPU = flag.Int("numcpu", 0, "")
)

const helpMessage = `
stitch runs distributed-style segmentation stitching jobs over a local block store

Usage: stitch [options] <command>

      -config     =string   Path to TOML configuration file (required for run).
      -threshold  =number   Foreground threshold for the fallback segmenter.
      -cpuprofile =string   Write CPU profile to this file.
      -memprofile =string   Write memory profile to this file on exit.
      -numcpu     =number   Number of logical CPUs to use.
      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

Commands:

	about
	help
	validate <job file>
	run      <job file>
`

var usage = func() {
	fmt.Print(helpMessage)
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() >= 1 && strings.ToLower(flag.Args()[0]) == "help" {
		*showHelp = true
	}
	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	if *runVerbose {
		stitch.SetLogMode(stitch.DebugMode)
	}
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}
	if *useCPU != 0 {
		runtime.GOMAXPROCS(*useCPU)
	}

	command := strings.ToLower(flag.Args()[0])
	switch command {
	case "about":
		fmt.Printf("stitch %s\n", stitch.Version)
	case "validate":
		if flag.NArg() < 2 {
			log.Fatalln("validate requires a job file argument")
		}
		job, err := workflow.LoadJob(flag.Args()[1])
		if err != nil {
			log.Fatalf("Job spec invalid: %v\n", err)
		}
		fmt.Printf("Job spec OK: box %s, chunk size %d, border %d\n",
			job.Box(), job.ChunkSize, job.Border)
	case "run":
		runJob(flag.Args()[1:])
	default:
		fmt.Printf("Unknown command: %q\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runJob(args []string) {
	if len(args) < 1 {
		log.Fatalln("run requires a job file argument")
	}
	cfg, err := workflow.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Unable to load configuration: %v\n", err)
	}
	cfg.Logging.SetLogger()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}
	if err := cfg.Kafka.Initialize(hostname); err != nil {
		log.Fatalf("Unable to initialize kafka: %v\n", err)
	}
	defer stitch.KafkaShutdown()

	job, err := workflow.LoadJob(args[0])
	if err != nil {
		log.Fatalf("Unable to load job: %v\n", err)
	}

	// Capture ctrl+c and other interrupts, then cancel the job cleanly.
	ctx, cancel := context.WithCancel(context.Background())
	stopSig := make(chan os.Signal, 1)
	signal.Notify(stopSig, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-stopSig
		stitch.Infof("Stitch process has been halted due to signal: %v\n", sig)
		cancel()
	}()

	segment := workflow.ThresholdSegmenter(uint8(*threshold))
	summary, err := workflow.Run(ctx, cfg, job, segment)
	if err != nil {
		log.Fatalf("Job failed: %v\n", err)
	}
	fmt.Printf("Completed job over %s: %d subvolumes, %d bodies merged, %s elapsed\n",
		job.Box(), summary.NumSubvolumes, summary.NumMerged, summary.Elapsed)

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
