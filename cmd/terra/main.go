// Command terra is the thin CLI front end spec.md §6 describes: it reads
// a desired-state schema, introspects a live database, computes a plan,
// and either prints or applies it. Grounded on the teacher's
// cmd/psqldef/psqldef.go (flag layout, the no-args/too-many-args help
// path) and sqldef.go (the dump -> parse -> generate -> run shape this
// repo splits into Introspect -> Parse -> diff.Diff -> plan.Build ->
// apply.Run).
package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"

	"github.com/elitan/terra/apply"
	"github.com/elitan/terra/catalog"
	"github.com/elitan/terra/dbcore"
	"github.com/elitan/terra/internal/util"
	"github.com/elitan/terra/parser"
	"github.com/elitan/terra/plan"
	"github.com/elitan/terra/provider"
	"github.com/elitan/terra/provider/postgres"
	"github.com/elitan/terra/provider/sqlite"
)

type options struct {
	Dialect     string        `long:"dialect" description:"Target database dialect" choice:"postgres" choice:"sqlite" required:"true"`
	DSN         string        `long:"dsn" description:"Data source name / connection string for postgres, or file path for sqlite" required:"true"`
	Schema      string        `long:"schema" description:"Desired-state SQL, a path to a .sql file, or '-' for stdin" value-name:"value"`
	Schemas     []string      `long:"schemas" description:"Managed schema allow-list (postgres only)" default:"public"`
	AutoApprove bool          `long:"auto-approve" description:"Apply without an interactive confirmation prompt"`
	DryRun      bool          `long:"dry-run" description:"Compute and print the plan without applying it"`
	LockName    string        `long:"lock-name" description:"Advisory lock name; empty disables locking"`
	LockTimeout time.Duration `long:"lock-timeout" description:"How long to wait for the advisory lock" default:"5s"`
	ConfigFile  string        `long:"config" description:"YAML config file merged under the flags above" value-name:"path"`
	Debug       bool          `long:"debug" description:"Pretty-print the computed plan before applying"`
	Help        bool          `long:"help" description:"Show this help"`
}

func main() {
	util.InitSlog()

	var opts options
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "plan|apply [options]"
	args, err := parser.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if len(args) != 1 || (args[0] != "plan" && args[0] != "apply") {
		fmt.Fprintln(os.Stderr, "Expected exactly one verb: plan or apply")
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}
	verb := args[0]

	cfg := dbcore.DefaultConfig()
	cfg, err = dbcore.LoadConfigFile(opts.ConfigFile, cfg)
	if err != nil {
		log.Fatalf("failed to load config: %s", err)
	}
	if len(opts.Schemas) > 0 {
		cfg.ManagedSchemas = opts.Schemas
	}
	cfg.AutoApprove = opts.AutoApprove
	cfg.DryRun = opts.DryRun || verb == "plan"
	cfg.LockName = opts.LockName
	cfg.LockTimeout = opts.LockTimeout

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	prov, err := openProvider(opts.Dialect, opts.DSN, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer prov.Close()

	desired, err := loadDesiredCatalog(opts.Schema, parserDialect(opts.Dialect))
	if err != nil {
		log.Fatalf("failed to read desired schema: %s", err)
	}

	current, err := prov.Introspect(ctx)
	if err != nil {
		log.Fatalf("introspection failed: %s", err)
	}

	mp, err := plan.Build(desired, current, prov)
	if err != nil {
		log.Fatalf("failed to compute plan: %s", err)
	}

	if opts.Debug {
		pp.Println(mp)
	}

	printPlan(mp)

	if verb == "plan" {
		return
	}

	result, err := apply.Run(ctx, mp, prov, cfg, confirmOnTerminal)
	if err != nil {
		log.Fatal(err)
	}
	switch {
	case result.Cancelled:
		fmt.Println("Apply cancelled.")
	case mp.Empty():
		fmt.Println("Nothing to do: desired state already matches the database.")
	default:
		fmt.Println("Apply complete.")
	}
}

func openProvider(dialect, dsn string, cfg dbcore.Config) (provider.Provider, error) {
	switch dialect {
	case "postgres":
		return postgres.Open(dsn, cfg)
	case "sqlite":
		return sqlite.Open(dsn, cfg)
	default:
		return nil, fmt.Errorf("unknown dialect %q", dialect)
	}
}

// loadDesiredCatalog implements spec.md §6's schema-input heuristic:
// inline SQL text is detected by the presence of a newline, a semicolon,
// a CREATE keyword, or simply being long; anything else is treated as a
// file path (or stdin, for "-"). An empty string parses to an empty
// Catalog so an empty desired state is a legitimate "drop everything"
// request rather than an error.
func loadDesiredCatalog(schema string, dialect parser.Dialect) (*catalog.Catalog, error) {
	sql, err := resolveSchemaText(schema)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(sql) == "" {
		return catalog.NewCatalog(), nil
	}
	return parser.Parse(sql, dialect)
}

func parserDialect(dialect string) parser.Dialect {
	if dialect == "sqlite" {
		return parser.DialectSQLite
	}
	return parser.DialectPostgres
}

func resolveSchemaText(schema string) (string, error) {
	if schema == "" {
		return "", nil
	}
	if schema == "-" {
		buf, err := io.ReadAll(os.Stdin)
		return string(buf), err
	}
	if looksLikeInlineSQL(schema) {
		return schema, nil
	}
	buf, err := os.ReadFile(schema)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func looksLikeInlineSQL(s string) bool {
	if strings.ContainsAny(s, "\n;") {
		return true
	}
	if strings.Contains(strings.ToUpper(s), "CREATE ") {
		return true
	}
	return len(s) > 500
}

func printPlan(mp *plan.MigrationPlan) {
	if mp.Empty() {
		fmt.Println("-- Nothing is modified --")
		return
	}
	fmt.Println("-- plan --")
	for _, stmt := range mp.Statements() {
		fmt.Printf("%s;\n", stmt)
	}
	for _, w := range mp.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}

// confirmOnTerminal is the Confirm collaborator apply.Run delegates to in
// non-auto-approve mode, grounded on the teacher's own stdin-scanning
// style in sqldef.go's readFile.
func confirmOnTerminal(mp *plan.MigrationPlan) (bool, error) {
	fmt.Printf("Apply %d statement(s)? [y/N] ", len(mp.Statements()))
	var buf bytes.Buffer
	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		buf.WriteString(scanner.Text())
	}
	answer := strings.ToLower(strings.TrimSpace(buf.String()))
	slog.Debug("confirmation received", "answer", answer)
	return answer == "y" || answer == "yes", nil
}
