/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/packetwire/pkg/checksum"
)

// checksumCmd represents the checksum command
var checksumCmd = &cobra.Command{
	Use:   "checksum",
	Short: "Print the CRC-32 (IEEE) of raw bytes",
	Long: `Print the CRC-32 (IEEE) of the input as eight hex digits.

Example:
  echo -n 123456789 | packetwire checksum   # cbf43926`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _ := cmd.Flags().GetString("in")

		data, err := readInput(cmd, in, false)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%08x\n", checksum.Sum(data))
		return err
	},
}

func init() {
	rootCmd.AddCommand(checksumCmd)
	checksumCmd.Flags().StringP("in", "i", "", "Input file (default: stdin)")
}
