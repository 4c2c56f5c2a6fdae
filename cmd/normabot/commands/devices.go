package commands

import (
	"github.com/spf13/cobra"

	"github.com/normacomex/normabot/pkg/audio/portaudio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input and output devices",
	Long: `List the audio devices PortAudio can open. Use the names with
call --input-device and --output-device.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		devs, err := portaudio.Devices()
		if err != nil {
			return err
		}
		return outputResult(devs)
	},
}
