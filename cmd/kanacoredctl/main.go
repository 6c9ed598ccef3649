// Command kanacoredctl is the reproducible-test-harness CLI spec §6.5
// defines: a line-oriented driver over a composition, with an optional
// persisted history predictor behind it (SPEC_FULL §12.5).
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"

	kanacore "github.com/sodiumhq/kanacore"
	"github.com/sodiumhq/kanacore/config"
	"github.com/sodiumhq/kanacore/corrector"
	"github.com/sodiumhq/kanacore/cryptoblob"
	"github.com/sodiumhq/kanacore/history"
	"github.com/sodiumhq/kanacore/predictor"
	"github.com/sodiumhq/kanacore/storage"
	"github.com/sodiumhq/kanacore/storage/file"
	"github.com/sodiumhq/kanacore/storage/mssql"
	"github.com/sodiumhq/kanacore/storage/mysql"
	"github.com/sodiumhq/kanacore/storage/postgres"
	"github.com/sodiumhq/kanacore/storage/sqlite"
	"github.com/sodiumhq/kanacore/table"
	"github.com/sodiumhq/kanacore/translit"
)

type cliOptions struct {
	Table            string `short:"t" long:"table" description:"Rewrite-table TSV path" required:"true" value-name:"path"`
	History          string `long:"history" description:"Path to a persisted history blob" value-name:"path"`
	PassphrasePrompt bool   `long:"passphrase-prompt" description:"Prompt for a passphrase to encrypt/decrypt the history blob"`
	Config           string `long:"config" description:"YAML engine config path (SPEC_FULL §10.3)" value-name:"path"`
	Debug            bool   `short:"d" long:"debug" description:"Pretty-print each composition query via pp.Println"`
	Help             bool   `long:"help" description:"Show this help"`
}

func parseOptions(args []string) *cliOptions {
	var opts cliOptions
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options]"
	if _, err := parser.ParseArgs(args); err != nil {
		log.Fatal(err)
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	return &opts
}

func main() {
	opts := parseOptions(os.Args[1:])
	config.InitLogging()

	tblFile, err := os.Open(opts.Table)
	if err != nil {
		log.Fatal(err)
	}
	tbl, err := table.Load(tblFile)
	tblFile.Close()
	if err != nil {
		log.Fatal(err)
	}

	var cfg config.EngineConfig
	if opts.Config != "" {
		cfg, err = config.ParseEngineConfig(opts.Config)
		if err != nil {
			log.Fatal(err)
		}
	}
	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = 3000
	}

	backend := buildBackend(opts, cfg)
	store := history.New(cacheSize)
	if backend != nil {
		loadHistory(store, backend)
	}

	modules := kanacore.New(tbl, translit.NewSet(), corrector.RomanCorrector{}, nil)
	pred := predictor.New(store, modules.Corrector, modules.ZeroQuery, backend, nil, predictor.Config{
		Disabled:                         cfg.Disabled,
		Incognito:                        cfg.Incognito,
		ContentWordLearningEnabled:       cfg.ContentWordLearningEnabled,
		DisableZeroQuerySuffixPrediction: cfg.DisableZeroQuerySuffixPrediction,
		MaxResults:                       cfg.MaxResults,
	})

	comp := modules.NewComposition(translit.Hiragana)
	cursor := 0

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		cursor = applyLine(comp, cursor, line)
		fmt.Printf("%s\t%d\n", comp.GetString(), cursor)
		if opts.Debug {
			pp.Println(comp.Query())
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatal(err)
	}

	if backend != nil {
		pred.Sync()
		pred.Wait()
	}
}

// applyLine implements spec §6.5's three-way dispatch: a signed-integer
// line moves the cursor by that delta, "!" deletes at the cursor, and
// anything else is inserted at the cursor.
func applyLine(comp interface {
	InsertAt(pos int, raw string) int
	DeleteAt(pos int) int
	Length(proj translit.Projection) int
}, cursor int, line string) int {
	if line == "!" {
		return comp.DeleteAt(cursor)
	}
	if len(line) > 0 && (line[0] == '-' || (line[0] >= '0' && line[0] <= '9')) {
		if delta, err := strconv.Atoi(line); err == nil {
			cursor += delta
			if cursor < 0 {
				cursor = 0
			}
			if max := comp.Length(translit.Local); cursor > max {
				cursor = max
			}
			return cursor
		}
	}
	return comp.InsertAt(cursor, line)
}

// buildBackend wires the --history path and the config-selected
// storage_backend/storage_dsn (SPEC_FULL §11.1) to a storage.Backend,
// wrapping it in cryptoblob.Codec when --passphrase-prompt asks for an
// encrypted blob (spec §6.4, SPEC_FULL §11).
func buildBackend(opts *cliOptions, cfg config.EngineConfig) storage.Backend {
	dsn := cfg.StorageDSN
	if dsn == "" {
		dsn = opts.History
	}
	if dsn == "" {
		return nil
	}
	backend, err := selectBackend(cfg, dsn)
	if err != nil {
		log.Fatal(err)
	}
	if !opts.PassphrasePrompt {
		return backend
	}
	fmt.Print("Passphrase: ")
	passBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		log.Fatal(err)
	}
	salt, err := loadOrCreateSalt(dsn + ".salt")
	if err != nil {
		log.Fatal(err)
	}
	key := cryptoblob.DeriveKey(string(passBytes), salt)
	return cryptoblob.NewCodec(backend, key)
}

// selectBackend dispatches on cfg.StorageBackend to build the
// roaming-sync backend (SPEC_FULL §11.1) the config names, defaulting to
// the local file backend when the config is silent.
func selectBackend(cfg config.EngineConfig, dsn string) (storage.Backend, error) {
	switch cfg.StorageBackend {
	case "", "file":
		return file.New(dsn), nil
	case "sqlite":
		return sqlite.New(dsn)
	case "mysql":
		return mysql.New(dsn)
	case "postgres":
		return postgres.New(dsn)
	case "mssql":
		return mssql.New(dsn)
	default:
		return nil, fmt.Errorf("kanacoredctl: unknown storage_backend %q", cfg.StorageBackend)
	}
}

// loadOrCreateSalt reuses the salt saved alongside the history blob on a
// prior run, or generates and persists a fresh one — the derived key must
// stay stable across invocations for the blob to decrypt (spec §6.4).
func loadOrCreateSalt(path string) ([]byte, error) {
	if existing, err := os.ReadFile(path); err == nil {
		return existing, nil
	}
	salt, err := cryptoblob.NewSalt()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, salt, 0o600); err != nil {
		return nil, err
	}
	return salt, nil
}

func loadHistory(store *history.Store, backend storage.Backend) {
	blob, err := backend.Load()
	if err != nil {
		log.Fatal(err)
	}
	if blob == nil {
		return
	}
	if err := store.Load(bytes.NewReader(blob), time.Now().Unix()); err != nil {
		log.Fatal(err)
	}
}
