// Package commands implements the hornbeam CLI subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/hornbeam/pkg/config"
	"github.com/Sumatoshi-tech/hornbeam/pkg/observability"
	"github.com/Sumatoshi-tech/hornbeam/pkg/safeconv"
	"github.com/Sumatoshi-tech/hornbeam/pkg/textutil"
	"github.com/Sumatoshi-tech/hornbeam/pkg/transform"
	"github.com/Sumatoshi-tech/hornbeam/pkg/version"
)

// Persistent flag names shared by every subcommand.
const (
	FlagConfig  = "config"
	FlagVerbose = "verbose"
	FlagQuiet   = "quiet"
)

// flagDebug enables debug logging and tracing on long-running commands.
const flagDebug = "debug"

// stdinName is the file argument that selects standard input.
const stdinName = "-"

// Sentinel errors.
var (
	ErrFileTooLarge = errors.New("file exceeds engine.max_file_size")
	ErrBinaryInput  = errors.New("input is not UTF-8 text")
)

// InitObservability initializes telemetry providers. Tests substitute it.
type InitObservability func(ctx context.Context, cfg observability.Config) (observability.Providers, error)

// Deps are the injectable dependencies of the commands.
type Deps struct {
	// Fs is the file system files are read from and written to.
	Fs afero.Fs

	// Stdin is read when no file arguments are given.
	Stdin io.Reader

	// InitObservability sets up telemetry for the command.
	InitObservability InitObservability
}

// DefaultDeps returns the production dependencies.
func DefaultDeps() Deps {
	return Deps{
		Fs:                afero.NewOsFs(),
		Stdin:             os.Stdin,
		InitObservability: observability.Init,
	}
}

// session is the per-invocation state every command builds first.
type session struct {
	deps        Deps
	cfg         *config.Config
	providers   observability.Providers
	rewrites    *observability.RewriteMetrics
	maxFileSize uint64
	quiet       bool
}

// openSession loads configuration and initializes observability for cmd.
func openSession(cmd *cobra.Command, deps Deps, mode observability.AppMode) (*session, error) {
	cfg, err := config.LoadConfig(flagString(cmd, FlagConfig))
	if err != nil {
		return nil, err
	}

	if flagBool(cmd, FlagVerbose) || flagBool(cmd, flagDebug) {
		cfg.Logging.Level = "debug"
	}

	if flagBool(cmd, flagDebug) {
		cfg.Observability.DebugTrace = true
	}

	maxSize, err := cfg.MaxFileSizeBytes()
	if err != nil {
		return nil, err
	}

	providers, err := deps.InitObservability(cmd.Context(), cfg.ObservabilityConfig(mode, version.Version))
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	s := &session{
		deps:        deps,
		cfg:         cfg,
		providers:   providers,
		maxFileSize: maxSize,
		quiet:       flagBool(cmd, FlagQuiet),
	}

	if providers.Meter != nil {
		s.rewrites, err = observability.NewRewriteMetrics(providers.Meter)
		if err != nil {
			s.close(cmd.Context())

			return nil, err
		}
	}

	return s, nil
}

// close flushes telemetry.
func (s *session) close(ctx context.Context) {
	if s.providers.Shutdown == nil {
		return
	}

	err := s.providers.Shutdown(context.WithoutCancel(ctx))
	if err != nil && s.providers.Logger != nil {
		s.providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

// transformOptions combines configured engine options with telemetry.
func (s *session) transformOptions() []transform.Option {
	opts := slices.Clip(s.cfg.TransformOptions())

	if s.providers.Logger != nil {
		opts = append(opts, transform.WithLogger(s.providers.Logger))
	}

	if s.providers.Tracer != nil {
		opts = append(opts, transform.WithTracer(s.providers.Tracer))
	}

	return opts
}

// input is one text to process.
type input struct {
	name string
	text string
}

// expandArgs resolves glob patterns to file names. Patterns with no match
// are kept so that reading them reports the missing file.
func (s *session) expandArgs(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		if arg == stdinName {
			files = append(files, arg)

			continue
		}

		matches, err := afero.Glob(s.deps.Fs, arg)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", arg, err)
		}

		if len(matches) == 0 {
			files = append(files, arg)

			continue
		}

		files = append(files, matches...)
	}

	return files, nil
}

// readInputs reads every named file, or stdin when names is empty.
func (s *session) readInputs(names []string) ([]input, error) {
	if len(names) == 0 {
		names = []string{stdinName}
	}

	files, err := s.expandArgs(names)
	if err != nil {
		return nil, err
	}

	inputs := make([]input, 0, len(files))

	for _, name := range files {
		text, readErr := s.readInput(name)
		if readErr != nil {
			return nil, readErr
		}

		inputs = append(inputs, input{name: name, text: text})
	}

	return inputs, nil
}

func (s *session) readInput(name string) (string, error) {
	if name == stdinName {
		data, err := io.ReadAll(io.LimitReader(s.deps.Stdin, safeconv.MustUint64ToInt64(s.maxFileSize)+1))
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}

		if uint64(len(data)) > s.maxFileSize {
			return "", fmt.Errorf("%w: stdin (max %s)", ErrFileTooLarge, humanize.Bytes(s.maxFileSize))
		}

		if !textutil.IsText(data) {
			return "", fmt.Errorf("%w: stdin", ErrBinaryInput)
		}

		return string(data), nil
	}

	info, err := s.deps.Fs.Stat(name)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", name, err)
	}

	if info.IsDir() {
		return "", fmt.Errorf("read %s: is a directory", name)
	}

	size := safeconv.MustInt64ToUint64(info.Size())
	if size > s.maxFileSize {
		return "", fmt.Errorf("%w: %s is %s (max %s)", ErrFileTooLarge, name,
			humanize.Bytes(size), humanize.Bytes(s.maxFileSize))
	}

	data, err := afero.ReadFile(s.deps.Fs, filepath.Clean(name))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}

	if !textutil.IsText(data) {
		return "", fmt.Errorf("%w: %s", ErrBinaryInput, name)
	}

	return string(data), nil
}

// writeFile replaces the contents of name, keeping its permissions.
func (s *session) writeFile(name, text string) error {
	info, err := s.deps.Fs.Stat(name)
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}

	err = afero.WriteFile(s.deps.Fs, name, []byte(text), info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return nil
}

func flagString(cmd *cobra.Command, name string) string {
	f := cmd.Flag(name)
	if f == nil {
		return ""
	}

	return f.Value.String()
}

func flagBool(cmd *cobra.Command, name string) bool {
	return flagString(cmd, name) == "true"
}
