// Command srt scores sit-to-rise test videos, either one at a time from the
// command line or behind an HTTP API that stores every report.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/banshee-data/sitrise/internal/config"
	"github.com/banshee-data/sitrise/internal/fsutil"
	"github.com/banshee-data/sitrise/internal/srt/analysis"
	"github.com/banshee-data/sitrise/internal/srt/pose"
	"github.com/banshee-data/sitrise/internal/srt/video"
	"github.com/banshee-data/sitrise/internal/version"
)

const usage = `usage: srt <command> [flags] [args]

commands:
  analyze [-plot out.png] [-html out.html] [-json] <video>   score one video
  submit  -server URL <video>                                 score a video on a running server
  serve                                                       run the HTTP API
  migrate up|down|version                                     manage the report schema
  version                                                     print build information

run "srt <command> -h" for the flags of a command.
`

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// options are the flags shared by every command.
type options struct {
	configPath  string
	dbPath      string
	listen      string
	workDir     string
	allowDirs   stringList
	poseCmd     string
	poseFixture string
	ffmpeg      string
	ffprobe     string
	workers     int
	server      string
}

func newFlagSet(name string, o *options, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("srt "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "scoring config JSON file (defaults are built in)")
	fs.StringVar(&o.dbPath, "db", "", "SQLite report database")
	fs.StringVar(&o.listen, "listen", ":8080", "listen address for serve")
	fs.StringVar(&o.workDir, "work-dir", os.TempDir(), "parent directory for per-run frame directories")
	fs.Var(&o.allowDirs, "allow-dir", "directory the server may read videos from (repeatable)")
	fs.StringVar(&o.poseCmd, "pose-cmd", "", "pose worker command line, spoken to over JSON lines")
	fs.StringVar(&o.poseFixture, "pose-fixture", "", "JSON file of recorded poses to replay instead of a worker")
	fs.StringVar(&o.ffmpeg, "ffmpeg", "ffmpeg", "ffmpeg binary")
	fs.StringVar(&o.ffprobe, "ffprobe", "ffprobe", "ffprobe binary")
	fs.IntVar(&o.workers, "workers", -1, "concurrent pose estimations; -1 uses the config value, 0 one per CPU")
	fs.StringVar(&o.server, "server", "http://localhost:8080", "server URL for submit")
	return fs
}

// params resolves the scoring parameters from -config and -workers.
func (o *options) params() (config.Params, error) {
	p := config.DefaultParams()
	if o.configPath != "" {
		cfg, err := config.LoadScoringConfig(o.configPath)
		if err != nil {
			return config.Params{}, err
		}
		p = cfg.Params()
	}
	if o.workers >= 0 {
		p.Workers = o.workers
	}
	return p, nil
}

// poseSource returns a lazily started pose source. The caller closes it.
func (o *options) poseSource() (*pose.Handle, error) {
	switch {
	case o.poseFixture != "" && o.poseCmd != "":
		return nil, fmt.Errorf("-pose-cmd and -pose-fixture are mutually exclusive")
	case o.poseFixture != "":
		path := o.poseFixture
		return pose.NewHandle(func() (pose.Estimator, error) {
			f, err := pose.LoadFixture(fsutil.OSFileSystem{}, path)
			if err != nil {
				return nil, err
			}
			return f, nil
		}), nil
	case o.poseCmd != "":
		argv := strings.Fields(o.poseCmd)
		return pose.NewHandle(func() (pose.Estimator, error) {
			e, err := pose.StartExecEstimator(argv[0], argv[1:]...)
			if err != nil {
				return nil, err
			}
			return e, nil
		}), nil
	default:
		return nil, fmt.Errorf("one of -pose-cmd or -pose-fixture is required")
	}
}

// analyzer builds an Analyzer and the pose handle it owns.
func (o *options) analyzer() (*analysis.Analyzer, *pose.Handle, error) {
	p, err := o.params()
	if err != nil {
		return nil, nil, err
	}
	poses, err := o.poseSource()
	if err != nil {
		return nil, nil, err
	}
	dec := video.NewFFmpeg()
	dec.FFmpegPath = o.ffmpeg
	dec.FFprobePath = o.ffprobe

	a := analysis.New(analysis.Options{
		Params:  p,
		Decoder: dec,
		Poses:   poses,
		WorkDir: o.workDir,
	})
	return a, poses, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "analyze":
		err = runAnalyze(ctx, rest, stdout, stderr)
	case "submit":
		err = runSubmit(ctx, rest, stdout, stderr)
	case "serve":
		err = runServe(ctx, rest, stderr)
	case "migrate":
		err = runMigrate(rest, stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, version.String())
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case err == flag.ErrHelp:
		return 0
	case isUsage(err):
		fmt.Fprintln(stderr, err)
		return 2
	default:
		fmt.Fprintln(stderr, "srt:", err)
		return 1
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
