/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/packetwire/pkg/codec"
)

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Build a packet and write its wire form",
	Long: `Build a packet from a payload and write the encoded bytes.

The payload is read from --payload, or from --in (a file, or stdin when omitted).

Examples:
  packetwire encode --kind message --payload "hello world" --hex
  packetwire encode --kind reaction --reaction like --in note.txt --out note.pkt
  echo -n hi | packetwire encode --kind typing --compression zstd > typing.pkt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kindName, _ := cmd.Flags().GetString("kind")
		reactionName, _ := cmd.Flags().GetString("reaction")
		compression, _ := cmd.Flags().GetString("compression")
		in, _ := cmd.Flags().GetString("in")
		out, _ := cmd.Flags().GetString("out")
		hexOutput, _ := cmd.Flags().GetBool("hex")

		var payload []byte
		if cmd.Flags().Changed("payload") {
			text, _ := cmd.Flags().GetString("payload")
			payload = []byte(text)
		} else {
			var err error
			if payload, err = readInput(cmd, in, false); err != nil {
				return err
			}
		}

		kind, err := codec.ParseKind(kindName)
		if err != nil {
			return err
		}
		comp, err := container.Compression(compression)
		if err != nil {
			return err
		}

		opts := []codec.PacketOption{codec.WithCompression(comp)}
		if reactionName != "" {
			reaction, err := codec.ParseReactionKind(reactionName)
			if err != nil {
				return err
			}
			opts = append(opts, codec.WithReaction(reaction))
		}

		p, err := codec.NewPacket(kind, payload, opts...)
		if err != nil {
			return err
		}
		wire, err := container.Codec().Encode(p)
		if err != nil {
			return err
		}

		logger := container.Logger()
		logger.Debug().
			Str("kind", kind.String()).
			Str("compression", comp.Name()).
			Int("raw_size", len(payload)).
			Int("compressed_size", p.CompressedSize()).
			Uint32("crc", p.CRC()).
			Msg("packet encoded")

		return writeOutput(cmd, out, wire, hexOutput)
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().StringP("kind", "k", "message", "Packet kind (message, reaction, typing)")
	encodeCmd.Flags().StringP("reaction", "r", "", "Reaction kind (none, like, dislike, heart, star)")
	encodeCmd.Flags().StringP("compression", "c", "", "Compression codec (default from config)")
	encodeCmd.Flags().String("payload", "", "Payload text (overrides --in)")
	encodeCmd.Flags().StringP("in", "i", "", "Payload file (default: stdin)")
	encodeCmd.Flags().StringP("out", "o", "", "Output file (default: stdout)")
	encodeCmd.Flags().Bool("hex", false, "Write the wire bytes as hex")
}
