package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"imgcrawler/pkg/config"
	"imgcrawler/pkg/credentials"
	"imgcrawler/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Inspect and create imgcrawler configuration files.

Each setting is taken from the first source that provides it: a command
line flag, an IMGCRAWLER_* environment variable (also read from .env), the
YAML file named by --config, and finally the built-in default.`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to a file",
	Long: `Write the default configuration as YAML.

The file is created as '.imgcrawler.yaml' in the current directory unless a
different path is given with --config.`,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source. Header values are
masked.`,
	RunE: runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".imgcrawler.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	ui.PrintSuccess("Wrote default settings to " + path)
	ui.PrintInfo("Check edits with", "imgcrawler config validate --config "+path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		return err
	}

	display := *cfg
	display.Crawl.Headers = maskHeaders(cfg.Crawl.Headers)

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	fmt.Println(ui.Magenta("Current Configuration"))
	fmt.Println()
	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		return err
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Output", filepath.Join(cfg.Output.StorageRoot, cfg.Output.Directory))
	ui.PrintInfo("Downloads", fmt.Sprintf("%d at a time, %d attempt(s) each", cfg.Crawl.Concurrency, cfg.Download.RetryAttempts))
	ui.PrintInfo("Pages", fmt.Sprintf("up to %d, %dms apart", cfg.Crawl.MaxPages, cfg.Crawl.PageDelayMs))
	ui.PrintInfo("Headless fallback", fmt.Sprintf("%t", cfg.Crawl.UseHeadless))
	return nil
}

// maskHeaders hides header values the same way stored credentials are shown
func maskHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return h
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = credentials.Sanitize(&credentials.Site{Cookie: v}).Cookie
	}
	return out
}
