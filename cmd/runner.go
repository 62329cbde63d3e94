package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/repositories"
	"github.com/desertthunder/songbook/internal/services"
	"github.com/desertthunder/songbook/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	library    *services.Library
	lyrics     services.LyricsStore
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Library and Lyrics are opened from the configured database on first use when nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Library    *services.Library
	Lyrics     services.LyricsStore
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		library:    opts.Library,
		lyrics:     opts.Lyrics,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, lyricsCommand, dupesCommand, artistsCommand, postsCommand, stationsCommand,
		serveCommand, remoteCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger. Call before the library is opened.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// openDB connects to the configured database without migrating it.
func (r *Runner) openDB() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	path := r.config.Database.Path
	r.logger.Debug("opening database", "path", path)

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	if path != ":memory:" {
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	}

	r.db = db
	return db, nil
}

// open connects to the configured database, applies pending migrations and builds the library.
func (r *Runner) open() error {
	if r.library != nil {
		return nil
	}

	opts, err := services.OptionsFromConfig(r.config.Duplicates, r.logger)
	if err != nil {
		return err
	}

	db, err := r.openDB()
	if err != nil {
		return err
	}
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	lyrics := repositories.NewLyricsRepository(db)
	r.lyrics = lyrics
	r.library = services.NewLibrary(
		lyrics,
		repositories.NewArtistRepository(db),
		repositories.NewPostRepository(db),
		repositories.NewStationRepository(db),
		opts,
	)
	return nil
}

// Close releases the database opened by the runner, if any.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// readText returns --lyrics, or the contents of --file ("-" reads standard input).
func (r *Runner) readText(cmd *cli.Command) (string, error) {
	text := cmd.String("lyrics")
	path := cmd.String("file")

	switch {
	case text != "" && path != "":
		return "", fmt.Errorf("%w: cannot specify both --lyrics and --file", shared.ErrInvalidArgument)
	case text != "":
		return text, nil
	case path == "-":
		data, err := io.ReadAll(r.input)
		if err != nil {
			return "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return string(data), nil
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read lyrics file: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: either --lyrics or --file must be provided", shared.ErrMissingArgument)
	}
}

// requireArgs returns the named positional arguments, failing on any that are empty.
func requireArgs(cmd *cli.Command, names ...string) ([]string, error) {
	values := make([]string, len(names))
	for i, name := range names {
		values[i] = cmd.StringArg(name)
		if values[i] == "" {
			return nil, fmt.Errorf("%w: <%s>", shared.ErrMissingArgument, name)
		}
	}
	return values, nil
}
