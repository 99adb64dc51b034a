// Package config builds the explicit configuration value passed into the
// pipeline. All lookups happen here at startup; core logic never consults
// viper or the environment directly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/windgate/tecres/internal/catalog"
	"github.com/windgate/tecres/internal/common"
)

// CatalogFileName is the fixed name of the catalog file inside the
// catalogue folder.
const CatalogFileName = "codeids.csv"

// Config holds every setting the pipeline and its collaborators need.
type Config struct {
	SourceDir      string
	OutputDir      string
	CatalogPath    string
	LocalOutputDir string
	DatabasePath   string
	Suffix         string
	MirrorLibrary  string
	ProcessDate    string
	AllowFallback  bool
	MirrorEnabled  bool
	WithMessages   bool
}

// Load resolves the configuration from viper (config file, TECRES_ env
// vars and flag bindings), applying the conventional folder layout under
// the synced root.
func Load() (*Config, error) {
	root := viper.GetString("paths.root")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		root = filepath.Join(home, "OneDrive")
	}

	cfg := &Config{
		SourceDir:      resolveSubfolder(root, viper.GetString("paths.data_subfolder"), "Data"),
		OutputDir:      resolveSubfolder(root, viper.GetString("paths.output_subfolder"), "Processed"),
		LocalOutputDir: viper.GetString("paths.local_output"),
		DatabasePath:   viper.GetString("paths.database"),
		Suffix:         viper.GetString("processing.suffix"),
		MirrorLibrary:  viper.GetString("mirror.library"),
		ProcessDate:    viper.GetString("processing.date"),
		AllowFallback:  viper.GetBool("processing.allow_fallback"),
		MirrorEnabled:  viper.GetBool("mirror.enabled"),
		WithMessages:   viper.GetBool("processing.with_messages"),
	}

	catalogueDir := resolveSubfolder(root, viper.GetString("paths.catalogue_subfolder"), "Catalogue")
	cfg.CatalogPath = filepath.Join(catalogueDir, CatalogFileName)

	if cfg.LocalOutputDir == "" {
		cfg.LocalOutputDir = filepath.Join("data", "output")
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join("data", "tecres.db")
	}
	if cfg.Suffix == "" {
		cfg.Suffix = catalog.DefaultSuffix
	}
	// An empty mirror library means outputs land directly under the
	// output root; a name is only needed for true document-library
	// backends.

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the resolved configuration is usable.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("%w: source directory", common.ErrMissingConfig)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output directory", common.ErrMissingConfig)
	}
	if c.CatalogPath == "" {
		return fmt.Errorf("%w: catalog path", common.ErrMissingConfig)
	}
	if c.ProcessDate != "" && !validDate(c.ProcessDate) {
		return fmt.Errorf("%w: processing date %q is not dd-mm-YYYY", common.ErrInvalidConfig, c.ProcessDate)
	}
	return nil
}

// resolveSubfolder keeps absolute paths as-is and joins relative ones to
// the synced root, matching the deployment's folder conventions.
func resolveSubfolder(root, sub, fallback string) string {
	if sub == "" {
		sub = fallback
	}
	if filepath.IsAbs(sub) {
		return sub
	}
	return filepath.Join(root, sub)
}

func validDate(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return false
	}
	return len(parts[0]) == 2 && len(parts[1]) == 2 && len(parts[2]) == 4
}
