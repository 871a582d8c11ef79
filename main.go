package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ausocean/utils/logging"
	"github.com/lambertjamesd/z64audio/config"
	"github.com/lambertjamesd/z64audio/extract"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logging configuration.
const (
	logMaxSize     = 500 // MB
	logMaxBackup   = 10
	logMaxAge      = 28 // days
	logSuppress    = false
	defaultLogPath = "z64audio.log"
)

// Command line only keys.
const (
	keyLogPath = "LogPath"
	keyVerbose = "Verbose"
)

const usage = `Usage
	z64audio extract -r baserom.z64 -v oot_n0 [options]
	z64audio inspect Sample0.aifc [more.aifc ...]`

func extractArgs() Args {
	var args = NewArgs(usage)

	args.AddStringArg([]string{"-r", "--rom"}, config.KeyRomPath, "path to the rom image (z64, v64 or n64)", "")
	args.AddStringArg([]string{"-v", "--version"}, config.KeyVersion, fmt.Sprintf("rom version, one of %s", strings.Join(config.VersionNames(), ", ")), "")
	args.AddStringArg([]string{"-o", "--out"}, config.KeyOutDir, "directory the assets are written to", "")
	args.AddStringArg([]string{"-b", "--baserom"}, config.KeyBaseromDir, "directory the raw tables and files are dumped to", "")
	args.AddIntegerArg([]string{"-j", "--jobs"}, config.KeyWorkers, "number of samples processed at once", 0, 1, 256)
	args.AddFlagArg([]string{"--write-xml"}, config.KeyWriteRecord, "write an extraction record per sample bank")
	args.AddStringArg([]string{"--records"}, config.KeyRecordDir, "directory of extraction records to extract with", "")
	args.AddStringArg([]string{"--z64sample"}, config.KeyDecoderPath, "path to the z64sample binary", "")
	args.AddStringArg([]string{"--bad-floats"}, config.KeyBadFloats, "comma separated bit patterns of tunings known to be off by one ulp", "")
	args.AddStringArg([]string{"-l", "--log"}, keyLogPath, "log file", defaultLogPath)
	args.AddFlagArg([]string{"--verbose"}, keyVerbose, "log debug messages")

	return args
}

func newLogger(path string, verbose bool) logging.Logger {
	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}

	var level int8 = logging.Info

	if verbose {
		level = logging.Debug
	}

	return logging.New(level, io.MultiWriter(os.Stderr, fileLog), logSuppress)
}

func runExtract(stringArgs []string) {
	var args = extractArgs()

	namedArgs, orderedArgs, errs := args.Parse(stringArgs)

	if len(errs) != 0 || len(orderedArgs) != 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, err)
		}

		fmt.Fprintln(os.Stderr, args.CreateHelpMessage())
		os.Exit(1)
	}

	log := newLogger(namedArgs[keyLogPath], namedArgs[keyVerbose] == "true")

	var cfg = config.Config{Logger: log}
	cfg.Update(namedArgs)

	err := cfg.Validate()

	if err != nil {
		log.Fatal("invalid config", "error", err)
	}

	e, err := extract.New(&cfg, extract.NewToolDecoder(cfg.DecoderPath, log))

	if err != nil {
		log.Fatal("could not create extractor", "error", err)
	}

	err = e.Run()

	if err != nil {
		log.Fatal("extraction failed", "error", err)
	}

	log.Info("extraction complete", "banks", len(e.Banks), "soundfonts", len(e.Soundfonts))
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "extract":
		runExtract(os.Args[2:])
	case "inspect":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(1)
		}

		for _, path := range os.Args[2:] {
			err := inspectFile(os.Stdout, path)

			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		}
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
}
