package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aiSzzPL-retroio/cdimage/cdimage"
	"github.com/aiSzzPL-retroio/cdimage/cue"
)

var tocMediaType string

var tocCmd = &cobra.Command{
	Use:                   "toc FILE",
	Short:                 "Display the disc table of contents",
	Long:                  `Reads and displays the table of contents and index structure from a BIN/CUE disc image, or from a ZIP archive containing one.`,
	Args:                  cobra.ExactArgs(1),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		filename := args[0]

		var img cdimage.Image
		var err error

		switch imgType := mediaType(tocMediaType, filename); imgType {
		case "cue":
			img, err = cue.New(filename)
		case "zip":
			img, err = cue.NewFromZip(filename)
		default:
			fmt.Printf("Unsupported media type: '%s'", imgType)
			return
		}

		if err != nil {
			fmt.Println("Image read error!")
			fmt.Println(err)
			os.Exit(1)
		}
		defer img.Close()

		fmt.Printf("Format: %s\n", img.ImageFormat())
		fmt.Print(img.Toc())

		if dump, ok := img.(fmt.Stringer); ok {
			fmt.Print(dump)
		}
	},
}

func init() {
	tocCmd.Flags().StringVarP(&tocMediaType, "media", "m", "", `Media type, default: file extension`)
	rootCmd.AddCommand(tocCmd)
}
