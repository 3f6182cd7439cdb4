package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	socketcan "github.com/ohowland/socketcan-go"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show link-level details of the interface",
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := socketcan.GetLinkInfo(flagInterface)
		if err != nil {
			return err
		}
		state := "DOWN"
		if info.Up {
			state = "UP"
		}
		fmt.Printf("%s (index %d): %s, kind %s\n", info.Name, info.Index, state, info.Kind)
		fmt.Printf("  bitrate %d, sample point %d.%d%%\n",
			info.BitTiming.Bitrate, info.BitTiming.Sample_point/10, info.BitTiming.Sample_point%10)
		fmt.Printf("  clock %d Hz, ctrlmode flags %#x\n", info.Clock.Freq, info.CtrlMode.Flags)
		fmt.Printf("  error counters: tx %d, rx %d\n", info.ErrorCounters.Txerr, info.ErrorCounters.Rxerr)
		fmt.Printf("  restarts %d, bus-off %d, bus errors %d\n",
			info.Stats.Restarts, info.Stats.Bus_off, info.Stats.Bus_error)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
