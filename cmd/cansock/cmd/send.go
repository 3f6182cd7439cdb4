package cmd

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	socketcan "github.com/ohowland/socketcan-go"
)

var flagBlocking bool

var sendCmd = &cobra.Command{
	Use:   "send ID#HEXDATA",
	Short: "Send a single frame",
	Long: `Send a single frame in candump notation, e.g.

  cansock send 123#DEADBEEF
  cansock send 1FFFFFFF#0102030405060708
  cansock send 456#R

IDs longer than three hex digits are sent as extended frames.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		frame, err := parseFrame(args[0])
		if err != nil {
			return err
		}
		sock, err := socketcan.Dial(flagInterface)
		if err != nil {
			return err
		}
		defer sock.Close()
		if flagBlocking {
			return socketcan.NewWriter(sock).WriteBlocking(frame)
		}
		return sock.WriteFrame(frame)
	},
}

func parseFrame(s string) (socketcan.Frame, error) {
	idStr, dataStr, ok := strings.Cut(s, "#")
	if !ok {
		return socketcan.Frame{}, fmt.Errorf("invalid frame %q, want ID#HEXDATA", s)
	}
	id, err := strconv.ParseUint(idStr, 16, 32)
	if err != nil {
		return socketcan.Frame{}, fmt.Errorf("invalid CAN id %q: %w", idStr, err)
	}
	remote := dataStr == "R" || dataStr == "r"
	var data []byte
	if !remote {
		data, err = hex.DecodeString(dataStr)
		if err != nil {
			return socketcan.Frame{}, fmt.Errorf("invalid frame data %q: %w", dataStr, err)
		}
	}
	frame, err := socketcan.NewFrame(uint32(id), data, remote, false)
	if err != nil {
		return socketcan.Frame{}, err
	}
	if len(idStr) > 3 {
		frame.IsExtended = true
	}
	return frame, nil
}

func init() {
	sendCmd.Flags().BoolVarP(&flagBlocking, "blocking", "b", false, "retry while the transmit queue is full")
	rootCmd.AddCommand(sendCmd)
}
