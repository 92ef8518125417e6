package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"customer-segmentation/internal/api"
	"customer-segmentation/internal/config"
	"customer-segmentation/internal/dataset"
	"customer-segmentation/internal/enrich"
	"customer-segmentation/internal/logger"
	"customer-segmentation/internal/models"
	"customer-segmentation/internal/profile"
)

func main() {
	var (
		configPath  = flag.String("config", "", "pipeline config YAML (defaults apply when empty)")
		nCustomers  = flag.Int("n", 0, "customer count (overrides config)")
		datasetType = flag.String("dataset-type", "enriched", "basic, enriched or both")
		method      = flag.String("method", "all", "clustering method: fuzzy, neural, gmm or all")
		outDir      = flag.String("out", "data/output", "output directory")
		skipCluster = flag.Bool("generate-only", false, "generate the dataset and stop")
		validate    = flag.Bool("validate-personas", false, "validate persona and hierarchy files, then exit")
		logMode     = flag.String("log-mode", "production", "logger mode: development or production")
	)
	flag.Parse()

	log, err := logger.New(*logMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init:", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal("failed to load config", "path", *configPath, "error", err)
		}
	}
	if *nCustomers > 0 {
		cfg.DataGeneration.NCustomers = *nCustomers
	}

	var personas []models.Persona
	var hierarchy models.Hierarchy
	if cfg.DataGeneration.UsePersonas || *validate {
		personas, err = config.LoadPersonas(cfg.DataGeneration.PersonasFile)
		if err != nil {
			log.Fatal("persona config rejected", "file", cfg.DataGeneration.PersonasFile, "error", err)
		}
		hierarchy, err = config.LoadHierarchy(cfg.DataGeneration.HierarchyFile)
		if err != nil {
			log.Fatal("hierarchy config rejected", "file", cfg.DataGeneration.HierarchyFile, "error", err)
		}
	}
	if *validate {
		log.Info("persona configuration valid",
			"personas", len(personas),
			"departments", len(hierarchy.Departments),
			"classes", len(hierarchy.AllClasses()),
		)
		return
	}

	kind := dataset.Enriched
	switch *datasetType {
	case "basic":
		kind = dataset.Basic
	case "enriched":
	case "both":
		cfg.DataGeneration.GenerateDualDatasets = true
	default:
		log.Fatal("unknown dataset type", "dataset_type", *datasetType)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal("cannot create output directory", "dir", *outDir, "error", err)
	}

	p := api.NewPipeline(cfg, personas, hierarchy, log)

	n := cfg.DataGeneration.NCustomers
	bar := progressbar.Default(int64(n), "generating customers")
	table, basic, err := p.Generate(n, kind, func(done, total int) {
		bar.Add(1)
	})
	if err != nil {
		log.Fatal("generation failed", "error", err)
	}

	if err := writeTableCSV(table, filepath.Join(*outDir, "customers_"+table.Kind.String()+".csv")); err != nil {
		log.Fatal("csv export failed", "error", err)
	}
	if basic != nil {
		if err := writeTableCSV(basic, filepath.Join(*outDir, "customers_basic.csv")); err != nil {
			log.Fatal("csv export failed", "error", err)
		}
	}
	log.Info("dataset written", "rows", table.Len(), "dir", *outDir)

	if *skipCluster {
		return
	}

	methods := []string{api.MethodFuzzy, api.MethodNeural, api.MethodGMM}
	if *method != "all" {
		methods = strings.Split(*method, ",")
	}
	for _, m := range methods {
		res, err := p.Run(m, table)
		if err != nil {
			log.Fatal("clustering failed", "method", m, "error", err)
		}
		if err := writeRunOutputs(*outDir, res); err != nil {
			log.Fatal("profile export failed", "method", m, "error", err)
		}
		log.Info("method complete",
			"method", m,
			"run_id", res.Document.Metadata.RunID,
			"silhouette", res.Metrics["silhouette_score"],
		)
	}
}

func writeTableCSV(t *dataset.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return t.WriteCSV(f)
}

// writeRunOutputs persists one run: the profile document as JSON, YAML and
// flat CSV, plus the enriched segment export.
func writeRunOutputs(dir string, res *api.RunResult) error {
	ts := time.Now()

	jsonPath := filepath.Join(dir, profile.Filename(res.Method, "json", ts))
	f, err := os.Create(jsonPath)
	if err != nil {
		return err
	}
	if err := profile.WriteJSON(f, res.Document); err != nil {
		f.Close()
		return err
	}
	f.Close()

	yamlPath := filepath.Join(dir, profile.Filename(res.Method, "yaml", ts))
	f, err = os.Create(yamlPath)
	if err != nil {
		return err
	}
	if err := profile.WriteYAML(f, res.Document); err != nil {
		f.Close()
		return err
	}
	f.Close()

	flatPath := filepath.Join(dir, profile.Filename(res.Method, "csv", ts))
	f, err = os.Create(flatPath)
	if err != nil {
		return err
	}
	if err := profile.WriteFlatCSV(f, res.Document); err != nil {
		f.Close()
		return err
	}
	f.Close()

	export, err := enrich.NewExport(res.Segments)
	if err != nil {
		return err
	}
	segPath := filepath.Join(dir, fmt.Sprintf("%s_segments_%s.json", res.Method, ts.Format("20060102_150405")))
	f, err = os.Create(segPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return export.WriteJSON(f)
}
