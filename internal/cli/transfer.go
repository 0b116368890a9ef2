package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) logArtifactCommand() *cobra.Command {
	var artifactPath string
	cmd := &cobra.Command{
		Use:   "log-artifact FILE",
		Short: "Upload one file",
		Long: `Uploads FILE into the folder --path of the repository (the root when
omitted), replacing a remote file of the same name. A missing folder is
created, but only one level deep.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.repository()
			if err != nil {
				return err
			}
			if err := repo.LogArtifact(cmd.Context(), args[0], artifactPath); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "uploaded %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&artifactPath, "path", "", "artifact path relative to the repository root")
	return cmd
}

func (a *app) logArtifactsCommand() *cobra.Command {
	var artifactPath string
	cmd := &cobra.Command{
		Use:   "log-artifacts DIR",
		Short: "Upload the files of a directory",
		Long: `Uploads every regular file directly inside DIR into the folder --path.
Subdirectories are skipped. With --upload-concurrency above 1 files are
sent in parallel over one SSH connection.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.repository()
			if err != nil {
				return err
			}
			if err := repo.LogArtifacts(cmd.Context(), args[0], artifactPath); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "uploaded %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&artifactPath, "path", "", "artifact path relative to the repository root")
	return cmd
}

func (a *app) downloadCommand() *cobra.Command {
	var artifactPath string
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a file or the files of a folder",
		Long: `Downloads --path (the root when omitted) and prints the local path.
A remote file becomes a temp file; a remote folder becomes a temp
directory holding its regular files, without subdirectories.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.repository()
			if err != nil {
				return err
			}
			local, err := repo.DownloadArtifacts(cmd.Context(), artifactPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, local)
			return nil
		},
	}
	cmd.Flags().StringVar(&artifactPath, "path", "", "artifact path relative to the repository root")
	return cmd
}
