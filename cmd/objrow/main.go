package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	config "github.com/hanpama/objrow/internal/config"
	eventbus "github.com/hanpama/objrow/internal/eventbus"
	executor "github.com/hanpama/objrow/internal/executor"
	expr "github.com/hanpama/objrow/internal/expr"
	metrics "github.com/hanpama/objrow/internal/metrics"
	otel "github.com/hanpama/objrow/internal/otel"
	row "github.com/hanpama/objrow/internal/row"
	serializer "github.com/hanpama/objrow/internal/serializer"
	types "github.com/hanpama/objrow/internal/types"
)

const rootUsage = `objrow: convert engine rows into external rows

USAGE:
  objrow <command> [flags]

COMMANDS:
  eval     Evaluate the external row deserializer over JSON rows
  verify   Check that interpreted and generated evaluation agree
  help     Show help for any command
`

const commonFlags = `  -schema <file>          GraphQL SDL file defining the row type (required)
  -type <name>            Object type in the schema to read rows as (required)
  -rows <file>            JSON array of rows, positional arrays or objects (required)
  -config <file>          objrow.toml or objrow.yaml configuration
  -log.level <level>      Log level (default: from config, else info)
  -otel.endpoint <addr>   OTLP collector endpoint
  -metrics.out <file>     Write Prometheus metrics in text format on exit
`

const evalUsage = `eval FLAGS:
` + commonFlags + `  -mode <mode>            interpreted, codegen or fallback (default: from config, else fallback)
  -encode                 Print each row encoded by the configured serializer (general only)
`

const verifyUsage = `verify FLAGS:
` + commonFlags + `  (Exits non-zero when any row differs)
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}
	cmd, cmdArgs := args[0], args[1:]
	switch cmd {
	case "eval":
		return cmdEval(cmdArgs, stdout, stderr)
	case "verify":
		return cmdVerify(cmdArgs, stdout, stderr)
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "eval":
		fmt.Fprint(stdout, evalUsage)
	case "verify":
		fmt.Fprint(stdout, verifyUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type commonOptions struct {
	schemaFile   string
	typeName     string
	rowsFile     string
	configFile   string
	logLevel     string
	otelEndpoint string
	metricsOut   string
}

func (o *commonOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.schemaFile, "schema", "", "GraphQL SDL file defining the row type")
	fs.StringVar(&o.typeName, "type", "", "Object type to read rows as")
	fs.StringVar(&o.rowsFile, "rows", "", "JSON array of rows")
	fs.StringVar(&o.configFile, "config", "", "Configuration file")
	fs.StringVar(&o.logLevel, "log.level", "", "Log level")
	fs.StringVar(&o.otelEndpoint, "otel.endpoint", "", "OTLP collector endpoint")
	fs.StringVar(&o.metricsOut, "metrics.out", "", "Prometheus text file output")
}

func (o *commonOptions) required() error {
	switch {
	case o.schemaFile == "":
		return fmt.Errorf("-schema is required")
	case o.typeName == "":
		return fmt.Errorf("-type is required")
	case o.rowsFile == "":
		return fmt.Errorf("-rows is required")
	}
	return nil
}

// session holds what eval and verify share: configuration, subscribers,
// the deserializer tree and the input rows.
type session struct {
	cfg   *config.Config
	tree  expr.Expression
	rows  []row.InternalRow
	close func() error
}

func open(o *commonOptions, mode string, stderr io.Writer) (*session, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	if mode != "" {
		cfg.Executor.Mode = mode
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.otelEndpoint != "" {
		cfg.Otel.Endpoint = o.otelEndpoint
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetOutput(stderr)
	log.SetLevel(cfg.LogLevel())

	tree, rows, err := load(o)
	if err != nil {
		return nil, err
	}

	eventbus.Use(eventbus.New())
	unlog := logEvents(log)
	reg := prometheus.NewRegistry()
	_, unmetrics := metrics.Register(reg)
	shutdown, err := otel.Setup(cfg.Otel.Endpoint, cfg.Otel.Service)
	if err != nil {
		unlog()
		unmetrics()
		return nil, fmt.Errorf("otel setup: %w", err)
	}

	s := &session{cfg: cfg, tree: tree, rows: rows}
	s.close = func() error {
		defer unlog()
		unmetrics()
		if err := shutdown(context.Background()); err != nil {
			log.WithError(err).Warn("otel shutdown failed")
		}
		if o.metricsOut == "" {
			return nil
		}
		if err := prometheus.WriteToTextfile(o.metricsOut, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		return nil
	}
	return s, nil
}

func load(o *commonOptions) (expr.Expression, []row.InternalRow, error) {
	src, err := os.ReadFile(o.schemaFile)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read %s: %w", o.schemaFile, err)
	}
	sch, err := types.ParseSDL(o.schemaFile, string(src))
	if err != nil {
		return nil, nil, fmt.Errorf("load schema: %w", err)
	}
	st, ok := sch.Struct(o.typeName)
	if !ok {
		return nil, nil, fmt.Errorf("type %q not found in %s", o.typeName, o.schemaFile)
	}
	tree, err := deserializer(expr.NewResolver(expr.Builtins()), st)
	if err != nil {
		return nil, nil, fmt.Errorf("build deserializer: %w", err)
	}
	rows, err := readRows(o.rowsFile, st)
	if err != nil {
		return nil, nil, err
	}
	return tree, rows, nil
}

func cmdEval(args []string, stdout, stderr io.Writer) (err error) {
	var o commonOptions
	mode := ""
	encode := false
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	o.register(fs)
	fs.StringVar(&mode, "mode", mode, "Evaluation mode")
	fs.BoolVar(&encode, "encode", encode, "Encode rows with the configured serializer")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, evalUsage)
		return err
	}
	if err := o.required(); err != nil {
		fmt.Fprint(stderr, evalUsage)
		return err
	}

	s, err := open(&o, mode, stderr)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); err == nil {
			err = cerr
		}
	}()

	// External rows carry no fast serializer registration.
	if encode && s.cfg.SerializerKind() == serializer.Fast {
		return fmt.Errorf("-encode supports only the general serializer, got backend %q", s.cfg.Serializer.Backend)
	}

	ex, err := executor.New(s.cfg.ExecutorOptions()...)
	if err != nil {
		return err
	}
	tree := s.tree
	if encode {
		tree, err = expr.NewEncodeUsingSerializer(serializer.NewFactory(), tree, s.cfg.SerializerKind())
		if err != nil {
			return err
		}
	}
	out, err := ex.EvaluateBatch(context.Background(), tree, s.rows)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	for _, v := range out {
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

func cmdVerify(args []string, stdout, stderr io.Writer) (err error) {
	var o commonOptions
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	o.register(fs)
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, verifyUsage)
		return err
	}
	if err := o.required(); err != nil {
		fmt.Fprint(stderr, verifyUsage)
		return err
	}

	s, err := open(&o, "", stderr)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); err == nil {
			err = cerr
		}
	}()

	mismatches, err := executor.Verify(context.Background(), s.tree, s.rows)
	if err != nil {
		return err
	}
	for _, m := range mismatches {
		fmt.Fprintln(stdout, m)
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("%d of %d rows differ between interpreted and generated evaluation", len(mismatches), len(s.rows))
	}
	fmt.Fprintf(stdout, "%d rows verified\n", len(s.rows))
	return nil
}
