package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	socketcan "github.com/ohowland/socketcan-go"
)

var flagTimestamps bool

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print frames received on the interface",
	RunE: func(cmd *cobra.Command, args []string) error {
		sock, err := socketcan.Dial(flagInterface)
		if err != nil {
			return err
		}
		defer sock.Close()

		// Short read timeout so ctx cancellation is noticed promptly
		// without tearing the socket down from another goroutine.
		if err := sock.SetReadTimeout(500 * time.Millisecond); err != nil {
			return err
		}

		ctx := cmd.Context()
		for {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			frame, err := sock.ReadFrame()
			if err != nil {
				if socketcan.IsTimeout(err) {
					continue
				}
				return err
			}
			if flagTimestamps {
				ts, err := sock.ReadTimestamp()
				if err != nil {
					return err
				}
				fmt.Printf("(%d.%09d) %s %s\n", ts.Unix(), ts.Nanosecond(), flagInterface, frame)
				continue
			}
			fmt.Printf("%s %s\n", flagInterface, frame)
		}
	},
}

func init() {
	dumpCmd.Flags().BoolVarP(&flagTimestamps, "timestamps", "t", false, "print kernel receive timestamps")
	rootCmd.AddCommand(dumpCmd)
}
