/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/ssargent/packetwire/pkg/api"
	"github.com/ssargent/packetwire/pkg/codec"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a wire buffer and print it as JSON",
	Long: `Decode a wire buffer and print the packet as JSON. The payload is
base64 encoded.

The checksum is reported in the "valid" field but not enforced unless --verify
is given.

Examples:
  packetwire decode --in note.pkt
  packetwire decode --hex --verify < note.hex`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _ := cmd.Flags().GetString("in")
		hexInput, _ := cmd.Flags().GetBool("hex")
		verify, _ := cmd.Flags().GetBool("verify")
		allowTrailing, _ := cmd.Flags().GetBool("allow-trailing")

		wire, err := readInput(cmd, in, hexInput)
		if err != nil {
			return err
		}

		cfg := container.Config()
		if allowTrailing {
			cfg.Codec.AllowTrailing = true
		}
		verify = verify || cfg.Codec.VerifyOnDecode

		var p *codec.Packet
		if verify {
			p, err = container.Codec().DecodeVerified(wire)
		} else {
			p, err = container.Codec().Decode(wire)
		}
		if err != nil {
			return err
		}

		out, err := api.NewPacketResponse(p)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringP("in", "i", "", "Wire file (default: stdin)")
	decodeCmd.Flags().Bool("hex", false, "Read the wire bytes as hex")
	decodeCmd.Flags().Bool("verify", false, "Fail when the checksum does not match")
	decodeCmd.Flags().Bool("allow-trailing", false, "Ignore bytes after the packet")
}
