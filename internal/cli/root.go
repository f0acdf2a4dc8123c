package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	upload "github.com/goliatone/go-upload"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is stamped at build time with
// -ldflags "-X github.com/goliatone/go-upload/internal/cli.Version=...".
var Version = "dev"

// Streams are the process streams used by the command.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
	// Interactive reports whether In is a terminal.
	Interactive bool
}

func DefaultStreams() Streams {
	fd := os.Stdin.Fd()
	return Streams{
		In:          os.Stdin,
		Out:         os.Stdout,
		Err:         os.Stderr,
		Interactive: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

// BackendFactory builds the backend pool for a run.
type BackendFactory func(ctx context.Context, s *Settings, logger upload.Logger) ([]upload.Backend, error)

type options struct {
	streams  Streams
	backends BackendFactory
}

type CommandOption func(*options)

func WithStreams(s Streams) CommandOption {
	return func(o *options) { o.streams = s }
}

// WithBackendFactory replaces the built in backend pool.
func WithBackendFactory(f BackendFactory) CommandOption {
	return func(o *options) {
		if f != nil {
			o.backends = f
		}
	}
}

// NewRootCommand builds the upload command.
func NewRootCommand(opts ...CommandOption) *cobra.Command {
	o := &options{
		streams:  DefaultStreams(),
		backends: defaultBackends,
	}
	for _, opt := range opts {
		opt(o)
	}

	v := viper.New()

	cmd := &cobra.Command{
		Use:           "upload [flags] [file...]",
		Short:         "Upload files to the internet",
		Long:          "Upload files to the first reachable file hosting service that meets the given requirements.",
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := LoadSettings(v, args, o.streams.Interactive)
			if err != nil {
				return err
			}
			return run(cmd.Context(), s, o)
		},
	}

	cmd.SetIn(o.streams.In)
	cmd.SetOut(o.streams.Out)
	cmd.SetErr(o.streams.Err)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})

	f := cmd.Flags()
	f.BoolP("archive", "a", false, "Pack all files and directories into one archive")
	f.BoolP("individual", "i", false, "Upload every file or directory on its own")
	f.BoolP("list", "l", false, "List the reachable backends for the given requirements, ordered by preference")
	f.BoolP("directory-archive", "d", false, "Put the contents of directories in a directory in the archive")
	f.BoolP("root-archive", "r", false, "Put the contents of directories in the root of the archive")
	f.StringP("name", "n", "", "Name of the archive created in archive mode")
	f.StringSliceP("backend", "t", nil, "Use only these backends, in this order")
	f.StringSliceP("exclude", "x", nil, "Never use these backends")
	f.BoolP("preserve-name", "p", false, "Keep the file name in the URL")
	f.BoolP("ssl", "s", false, "Require https")
	f.Bool("no-ssl", false, "Require plain http")
	f.Int64("min-size", 0, "Require backends to accept files of at least this many bytes")
	f.String("min-retention", "", "Keep files at least this long (e.g. 12h, 7d)")
	f.String("max-retention", "", "Delete files after at most this long (e.g. 12h, 7d)")
	f.Int64("max-downloads", 0, "Delete files after this many downloads")
	f.Int("min-random-part", 0, "Minimum length of the random part of the URL")
	f.Int("max-random-part", 0, "Maximum length of the random part of the URL")
	f.Int("max-url-length", 0, "Maximum length of the URL")
	f.Bool("continue", false, "Keep going when a file cannot be uploaded")
	f.Bool("check-when-needed", false, "Probe backends only when they are needed")
	f.Duration("probe-timeout", upload.DefaultProbeTimeout, "Timeout of a reachability check")
	f.Duration("upload-timeout", upload.DefaultUploadTimeout, "Timeout of a single upload attempt, 0 disables it")
	f.String("local-dir", "", "Also offer a local directory as backend")
	f.String("s3-bucket", "", "Also offer an S3 bucket as backend")
	f.String("s3-region", "", "Region of the S3 buckets")
	f.String("s3-prefix", "", "Key prefix for files stored in the S3 bucket")
	f.String("from-bucket", "", "Read the given keys from this S3 bucket instead of the local disk")
	f.String("config", "", "Config file (default $HOME/.config/upload/upload.yaml)")
	f.CountP("verbose", "v", "Increase verbosity, repeat for debug output")

	return cmd
}

// Execute runs the command and returns the process exit code.
func Execute(ctx context.Context, opts ...CommandOption) int {
	return executeCommand(ctx, NewRootCommand(opts...))
}

func executeCommand(ctx context.Context, cmd *cobra.Command) int {
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "upload:", err)
	}

	return ExitCode(err)
}

func initConfig(v *viper.Viper, cmd *cobra.Command) error {
	v.SetEnvPrefix("UPLOAD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if file, _ := cmd.Flags().GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("upload")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.config/upload")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("%w: reading config: %v", ErrUsage, err)
	}

	return nil
}

func run(ctx context.Context, s *Settings, o *options) error {
	logger := NewLogger(o.streams.Err, s.Verbosity)

	backends, err := o.backends(ctx, s, logger)
	if err != nil {
		return err
	}

	manager := upload.NewManager(
		upload.WithLogger(logger),
		upload.WithBackends(backends...),
		upload.WithRequirements(s.Requirements),
		upload.WithWanted(s.Backends...),
		upload.WithExcluded(s.Exclude...),
		upload.WithProbePolicy(s.ProbePolicy),
		upload.WithProbeTimeout(s.ProbeTimeout),
		upload.WithUploadTimeout(s.UploadTimeout),
		upload.WithContinueOnError(s.ContinueOnError),
		upload.WithOnUploadComplete(func(_ context.Context, result *upload.Result) error {
			_, err := fmt.Fprintln(o.streams.Out, result.URL)
			return err
		}),
	)
	defer manager.Close()

	if s.Mode == ModeList {
		return list(ctx, manager, o.streams.Out, logger)
	}

	source, err := newSource(ctx, s, o, logger)
	if err != nil {
		return err
	}

	report, err := manager.UploadAll(ctx, source)
	if err != nil {
		return err
	}

	switch report.Outcome() {
	case upload.OutcomeSuccess:
		return nil
	default:
		return fmt.Errorf("%w: %d of %d files failed", ErrIncompleteUpload, len(report.Failed()), len(report.Results()))
	}
}

func list(ctx context.Context, manager *upload.Manager, out io.Writer, logger upload.Logger) error {
	available, err := manager.Available(ctx)
	if err != nil {
		return err
	}

	for _, entry := range manager.Probes() {
		if entry.State != upload.ProbeReachable {
			logger.Debug("backend not listed", "backend", entry.Backend.Name(), "state", entry.State, "error", entry.Err)
		}
	}

	if len(available) == 0 {
		return upload.ErrNoBackends
	}

	for _, b := range available {
		fmt.Fprintln(out, b.Name())
	}

	return nil
}

func newSource(ctx context.Context, s *Settings, o *options, logger upload.Logger) (upload.FileSource, error) {
	mode := upload.ModeIndividual
	if s.Mode == ModeArchive {
		mode = upload.ModeArchive
	}

	opts := []upload.PathSourceOption{
		upload.WithSourceMode(mode),
		upload.WithDirectoryArchive(s.DirectoryArchive),
		upload.WithArchiveName(s.ArchiveName),
		upload.WithStdin(o.streams.In),
		upload.WithSourceLogger(logger),
	}

	if s.SourceBucket == "" {
		return upload.NewPathSource(s.Files, opts...), nil
	}

	client, err := newS3Client(ctx, s.S3Region)
	if err != nil {
		return nil, err
	}

	return upload.NewS3Source(client, s.SourceBucket, s.Files, opts...), nil
}

func defaultBackends(ctx context.Context, s *Settings, logger upload.Logger) ([]upload.Backend, error) {
	backends := upload.DefaultBackends(logger)

	if s.LocalDir != "" {
		backends = append(backends, upload.NewLocalBackend(s.LocalDir).WithLogger(logger))
	}

	if s.S3Bucket != "" {
		client, err := newS3Client(ctx, s.S3Region)
		if err != nil {
			return nil, err
		}

		backends = append(backends, upload.NewS3Backend(client, s.S3Bucket).
			WithBasePath(s.S3Prefix).
			WithLogger(logger))
	}

	return backends, nil
}

func newS3Client(ctx context.Context, region string) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return s3.NewFromConfig(cfg), nil
}
