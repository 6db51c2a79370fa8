package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sttmcp/audio"
	"sttmcp/log"
	"sttmcp/recorder"
	"sttmcp/transcriber"
)

var version = "dev"

const defaultModelRel = ".local/share/stt-mcp/ggml-base.bin"

func defaultModelPath() string {
	if p := os.Getenv("WHISPER_MODEL_PATH"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, defaultModelRel)
}

func run() int {
	modelFlag := flag.String("model", "", "whisper model file (default: $WHISPER_MODEL_PATH or ~/"+defaultModelRel+")")
	deviceFlag := flag.String("device", "", "capture device name, substring match (default: system default)")
	langFlag := flag.String("lang", "en", `default language code for transcription (e.g. en, es, fr), or "auto"`)
	maxDurFlag := flag.Duration("max-duration", 60*time.Second, "upper bound for a single recording")
	logPathFlag := flag.String("logpath", "", "diagnostics log file (default: stderr)")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("stt-mcp %s\n", version)
		return 0
	}

	if !validLanguage(*langFlag) {
		fmt.Fprintf(os.Stderr, "Error: invalid -lang %q: expected a lowercase ISO 639 code or \"auto\"\n", *langFlag)
		return 1
	}

	logPath, err := log.ResolvePath(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: resolving log path: %v\n", err)
		return 1
	}
	if err := log.Init(logPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer log.Close()

	modelPath := *modelFlag
	if modelPath == "" {
		modelPath = defaultModelPath()
	}

	// Engine failures at this point are fatal: never open the protocol
	// stream without a working engine behind it.
	eng, err := transcriber.NewWhisper(modelPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer eng.Close()

	rec := recorder.New(recorder.Config{
		SampleRate: audio.DefaultSampleRate,
		Channels:   audio.DefaultChannels,
		DeviceName: *deviceFlag,
	}, audio.NewContext)
	defer rec.Close()

	s := newServer(serverConfig{MaxDuration: *maxDurFlag, DefaultLanguage: *langFlag}, rec, eng)

	log.Infof("stt-mcp %s serving on stdio (model: %s)", version, modelPath)
	if err := serveStdio(context.Background(), s, os.Stdin, os.Stdout); err != nil {
		log.Errorf("stdio loop: %v", err)
		return 1
	}
	// Stdin closed: clean shutdown.
	return 0
}

func main() {
	os.Exit(run())
}
