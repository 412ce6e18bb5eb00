package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ushlint/internal/logging"
	"ushlint/internal/lsp"
	"ushlint/internal/version"
)

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the UdonSharp linter language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func runLSP(cmd *cobra.Command, _ []string) error {
	baseDir := executableDir()
	logDir := filepath.Join(baseDir, "logs")
	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(os.Getenv("UDONSHARP_LINTER_LOG_LEVEL")),
		Dir:     logDir,
		Service: "lsp",
		Quiet:   true, // stderr stays quiet; stdout is the wire
	})
	defer logger.Close()
	logging.AppendBoot(logDir, fmt.Sprintf("ushlint %s starting", version.Version))

	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		BaseDir:    baseDir,
		Log:        logger.Logger,
		OnLogLevel: logger.SetLevel,
	})
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		logging.AppendFatal(logDir, err.Error())
		return err
	}
	return nil
}
