/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ssargent/packetwire/pkg/checksum"
	"github.com/ssargent/packetwire/pkg/codec"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the CRC-32 of a wire buffer",
	Long: `Decode a wire buffer and compare its stored checksum with one computed
over the compressed payload. Exits non-zero on a mismatch.

Example:
  packetwire verify --in note.pkt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _ := cmd.Flags().GetString("in")
		hexInput, _ := cmd.Flags().GetBool("hex")

		wire, err := readInput(cmd, in, hexInput)
		if err != nil {
			return err
		}
		p, err := container.Codec().Decode(wire)
		if err != nil {
			return err
		}

		computed := checksum.Sum(p.CompressedPayload())
		if !p.Verify() {
			return errors.Wrapf(codec.ErrChecksumMismatch, "stored %08x, computed %08x", p.CRC(), computed)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok crc=%08x\n", computed)
		return err
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringP("in", "i", "", "Wire file (default: stdin)")
	verifyCmd.Flags().Bool("hex", false, "Read the wire bytes as hex")
}
