package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"sift/internal/config"
	"sift/internal/descriptor"
	"sift/internal/filter"
	"sift/internal/resolver"
	"sift/internal/scanner"
	"sift/internal/selector"
	"sift/internal/storage"
	"sift/internal/uid"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const engineName = "sift"

var (
	rootCmd = &cobra.Command{
		Use:   "sift",
		Short: "Selector-driven test discovery",
	}

	logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})

	configPath string
	dbPath     string

	packageNames []string
	suiteNames   []string
	methodNames  []string
	uniqueIDs    []string
	includePats  []string
	excludePats  []string
	saveSnapshot bool
	runID        int64
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "sift.yaml", "Path to the config file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the snapshot database (overrides config)")

	discoverCmd.Flags().StringArrayVarP(&packageNames, "package", "p", nil, "Discover a package and everything below it (dotted name)")
	discoverCmd.Flags().StringArrayVarP(&suiteNames, "suite", "s", nil, "Discover one suite (pkg:SuiteName)")
	discoverCmd.Flags().StringArrayVarP(&methodNames, "method", "m", nil, "Discover one test method (pkg:SuiteName:TestMethod)")
	discoverCmd.Flags().StringArrayVar(&uniqueIDs, "id", nil, "Discover a node directly by unique id")
	discoverCmd.Flags().StringArrayVar(&includePats, "include", nil, "Only include suites whose name matches a pattern")
	discoverCmd.Flags().StringArrayVar(&excludePats, "exclude", nil, "Exclude suites whose name matches a pattern")
	discoverCmd.Flags().BoolVar(&saveSnapshot, "save", false, "Persist the discovery tree as a snapshot")

	showCmd.Flags().Int64Var(&runID, "run", 0, "Snapshot run id (defaults to the most recent)")

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(showCmd)
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("Failed to load config", "path", configPath, "err", err)
	}
	if dbPath != "" {
		cfg.Snapshot.DBPath = dbPath
	}
	return cfg
}

var discoverCmd = &cobra.Command{
	Use:   "discover [path]",
	Short: "Scan a source tree and resolve the selected tests into a discovery tree",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		root := cfg.Project.Root
		if len(args) > 0 {
			root = args[0]
		}

		start := time.Now()
		sc, err := scanner.NewScanner(cfg.Project.Ignore...)
		if err != nil {
			logger.Fatal("Failed to create scanner", "err", err)
		}
		idx, err := sc.Scan(root)
		if err != nil {
			logger.Fatal("Scan failed", "root", root, "err", err)
		}
		logger.Info("Scanned source tree", "root", root, "took", time.Since(start))

		req, err := buildRequest(cfg, idx, root)
		if err != nil {
			logger.Fatal("Invalid request", "err", err)
		}

		engineRoot := descriptor.NewEngine(engineName)
		registry := resolver.NewStandardRegistry(idx)
		report, err := registry.Resolve(engineRoot, req)
		if err != nil {
			logger.Fatal("Discovery failed", "err", err)
		}
		for _, sel := range report.Unmatched {
			logger.Warn("Selector matched nothing", "selector", sel)
		}

		printTree(engineRoot)

		containers, tests := countNodes(engineRoot)
		logger.Info("Discovery complete", "containers", containers, "tests", tests)

		if saveSnapshot {
			store, err := storage.NewSQLiteStore(cfg.Snapshot.DBPath)
			if err != nil {
				logger.Fatal("Failed to open snapshot database", "err", err)
			}
			defer store.Close()

			id, err := store.SaveRun(context.Background(), strings.Join(selectorLabels(req), " "), engineRoot)
			if err != nil {
				logger.Fatal("Failed to save snapshot", "err", err)
			}
			logger.Info("Snapshot saved", "run", id, "db", cfg.Snapshot.DBPath)
		}
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List saved discovery snapshots",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		store, err := storage.NewSQLiteStore(cfg.Snapshot.DBPath)
		if err != nil {
			logger.Fatal("Failed to open snapshot database", "err", err)
		}
		defer store.Close()

		runs, err := store.ListRuns(context.Background())
		if err != nil {
			logger.Fatal("Failed to list runs", "err", err)
		}
		if len(runs) == 0 {
			fmt.Println("no snapshots")
			return
		}
		for _, r := range runs {
			fmt.Printf("%4d  %s  %4d nodes  %s\n", r.ID, r.CreatedAt.Format(time.RFC3339), r.NodeCount, r.Label)
		}
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a saved discovery snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		store, err := storage.NewSQLiteStore(cfg.Snapshot.DBPath)
		if err != nil {
			logger.Fatal("Failed to open snapshot database", "err", err)
		}
		defer store.Close()

		ctx := context.Background()
		id := runID
		if id == 0 {
			runs, err := store.ListRuns(ctx)
			if err != nil || len(runs) == 0 {
				logger.Fatal("No snapshots available")
			}
			id = runs[0].ID
		}

		nodes, err := store.LoadRun(ctx, id)
		if err != nil {
			logger.Fatal("Failed to load snapshot", "run", id, "err", err)
		}
		for _, n := range nodes {
			parsed, err := uid.Parse(n.UID)
			if err != nil {
				logger.Fatal("Corrupt snapshot node", "uid", n.UID, "err", err)
			}
			fmt.Printf("%s%s [%s]\n", strings.Repeat("  ", parsed.Length()-1), n.DisplayName, n.SegmentType)
		}
	},
}

// buildRequest translates CLI flags and config patterns into a discovery
// request. With no selector flags at all, the whole source root is selected.
func buildRequest(cfg *config.Config, idx *scanner.Index, root string) (selector.Request, error) {
	var req selector.Request

	for _, name := range packageNames {
		sel, err := selector.ForPackage(name)
		if err != nil {
			return selector.Request{}, err
		}
		req.Selectors = append(req.Selectors, sel)
	}

	for _, arg := range suiteNames {
		pkg, name, ok := strings.Cut(arg, ":")
		if !ok {
			return selector.Request{}, fmt.Errorf("invalid suite %q, expected pkg:SuiteName", arg)
		}
		sel, err := selector.ForSuite(pkg, name)
		if err != nil {
			return selector.Request{}, err
		}
		req.Selectors = append(req.Selectors, sel)
	}

	for _, arg := range methodNames {
		parts := strings.Split(arg, ":")
		if len(parts) != 3 {
			return selector.Request{}, fmt.Errorf("invalid method %q, expected pkg:SuiteName:TestMethod", arg)
		}
		sel, err := selector.ForMethod(idx, parts[0], parts[1], parts[2])
		if err != nil {
			return selector.Request{}, err
		}
		req.Selectors = append(req.Selectors, sel)
	}

	for _, id := range uniqueIDs {
		sel, err := selector.ForUniqueID(id)
		if err != nil {
			return selector.Request{}, err
		}
		req.Selectors = append(req.Selectors, sel)
	}

	if len(req.Selectors) == 0 {
		sel, err := selector.ForRoot(root)
		if err != nil {
			return selector.Request{}, err
		}
		req.Selectors = append(req.Selectors, sel)
	}

	include := append(append([]string(nil), cfg.Discovery.IncludeSuites...), includePats...)
	exclude := append(append([]string(nil), cfg.Discovery.ExcludeSuites...), excludePats...)
	if len(include) > 0 || len(exclude) > 0 {
		f, err := filter.SuiteNamePatterns(include, exclude)
		if err != nil {
			return selector.Request{}, err
		}
		req.Filters = append(req.Filters, f)
	}

	return req, nil
}

func selectorLabels(req selector.Request) []string {
	out := make([]string, 0, len(req.Selectors))
	for _, sel := range req.Selectors {
		out = append(out, sel.String())
	}
	return out
}

func printTree(root descriptor.Descriptor) {
	descriptor.Walk(root, func(d descriptor.Descriptor) bool {
		depth := d.UniqueID().Length() - 1
		marker := "▸"
		if d.IsTest() {
			marker = "•"
		}
		fmt.Printf("%s%s %s\n", strings.Repeat("  ", depth), marker, d.DisplayName())
		return true
	})
}

func countNodes(root descriptor.Descriptor) (containers, tests int) {
	for _, d := range descriptor.Descendants(root) {
		if d.IsTest() {
			tests++
		} else {
			containers++
		}
	}
	return containers, tests
}
