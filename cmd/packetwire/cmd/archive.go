/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/packetwire/pkg/api"
	"github.com/ssargent/packetwire/pkg/storage"
)

// archiveCmd represents the archive command
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage the local packet archive",
	Long: `Store, fetch, list and delete encoded packets in the local archive.

Packets are keyed by KSUIDs, so listing returns them in arrival order.`,
}

var archivePutCmd = &cobra.Command{
	Use:   "put",
	Short: "Archive a wire buffer",
	Long: `Validate a wire buffer by decoding it and store it under a new id.

Example:
  packetwire encode --payload hi | packetwire archive put`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _ := cmd.Flags().GetString("in")
		hexInput, _ := cmd.Flags().GetBool("hex")

		wire, err := readInput(cmd, in, hexInput)
		if err != nil {
			return err
		}
		archive, err := openArchive(cmd)
		if err != nil {
			return err
		}
		id, err := archive.PutRaw(wire)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id.String())
		return nil
	},
}

var archiveGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch an archived wire buffer",
	Long: `Fetch an archived wire buffer by id, or print it decoded with --decode.

Example:
  packetwire archive get 2HbR3Gk1kZCkHktcwdNs0fjvn0Q --decode`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		hexOutput, _ := cmd.Flags().GetBool("hex")
		decode, _ := cmd.Flags().GetBool("decode")

		id, err := ksuid.Parse(args[0])
		if err != nil {
			return err
		}
		archive, err := openArchive(cmd)
		if err != nil {
			return err
		}

		if !decode {
			wire, err := archive.Raw(id)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, wire, hexOutput)
		}

		p, err := archive.Load(id)
		if err != nil {
			return err
		}
		decoded, err := api.NewPacketResponse(p)
		if err != nil {
			return err
		}
		cmd.PrintErrf("kind=%s crc=%08x compression=%s valid=%t\n", decoded.Kind, decoded.CRC, decoded.Compression, decoded.Valid)
		if decoded.ReactionKind != nil {
			cmd.PrintErrf("reaction=%s\n", *decoded.ReactionKind)
		}
		return writeOutput(cmd, out, decoded.Payload, hexOutput)
	},
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived packet ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		archive, err := openArchive(cmd)
		if err != nil {
			return err
		}
		ids, err := archive.List(limit)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id.String())
		}
		return nil
	},
}

var archiveDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an archived packet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ksuid.Parse(args[0])
		if err != nil {
			return err
		}
		archive, err := openArchive(cmd)
		if err != nil {
			return err
		}
		if err := archive.Delete(id); err != nil {
			return err
		}
		cmd.Printf("Deleted %s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archivePutCmd, archiveGetCmd, archiveListCmd, archiveDeleteCmd)

	archiveCmd.PersistentFlags().StringP("data-dir", "d", "", "Archive data directory (default from config)")

	archivePutCmd.Flags().StringP("in", "i", "", "Wire file (default: stdin)")
	archivePutCmd.Flags().Bool("hex", false, "Read the wire bytes as hex")

	archiveGetCmd.Flags().StringP("out", "o", "", "Output file (default: stdout)")
	archiveGetCmd.Flags().Bool("hex", false, "Write bytes as hex")
	archiveGetCmd.Flags().Bool("decode", false, "Print the decoded packet instead of the wire bytes")

	archiveListCmd.Flags().Int("limit", 0, "Maximum number of ids to list (0 for all)")
}

// openArchive opens the archive, honouring --data-dir
func openArchive(cmd *cobra.Command) (*storage.Archive, error) {
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		container.Config().Archive.DataDir = dir
	}
	return container.Archive()
}
