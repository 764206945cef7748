package cmd

import (
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// readInput reads path, or stdin when path is empty or "-". With hexInput the
// content is hex text and whitespace is ignored.
func readInput(cmd *cobra.Command, path string, hexInput bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read input")
	}

	if !hexInput {
		return data, nil
	}
	decoded, err := hex.DecodeString(strings.Join(strings.Fields(string(data)), ""))
	if err != nil {
		return nil, errors.Wrap(err, "input is not valid hex")
	}
	return decoded, nil
}

// writeOutput writes data to path, or stdout when path is empty or "-". With
// hexOutput the bytes are written as one line of hex text.
func writeOutput(cmd *cobra.Command, path string, data []byte, hexOutput bool) error {
	if hexOutput {
		data = []byte(hex.EncodeToString(data) + "\n")
	}
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return errors.Wrap(err, "failed to write output")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "failed to write output")
}
